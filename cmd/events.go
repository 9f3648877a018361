/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/librarium/apiserver/internal/mq"
	"github.com/librarium/apiserver/types"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect loan events on the message queue",
}

// eventsTailCmd logs loan events as they arrive.
var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the loan channel and log each event",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("events tail requires MQ_BACKEND to be rabbitmq or pubsub")
		}
		defer queue.Close()

		slog.Info("tailing loan events", "channel", queue.Channel(), "backend", cfg.MQ.Backend)
		err = queue.SubscribeLoanEvents(ctx, func(ctx context.Context, event types.LoanEvent) error {
			slog.InfoContext(ctx, "loan event",
				"type", event.Type,
				"record_id", event.RecordID,
				"user_id", event.UserID,
				"book_id", event.BookID,
				"due_date", event.DueDate,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
