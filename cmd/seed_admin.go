/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/librarium/apiserver/internal/db"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	seedAdminName     string
	seedAdminEmail    string
	seedAdminPassword string
)

// seedAdminCmd creates or promotes the administrator account.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or promote an administrator account",
	Long: `Creates an approved administrator, or promotes and unbans an existing
account with the same email. The password is read from the terminal when
--password is omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("seed-admin requires the postgres driver, got %q", cfg.Database.Driver)
		}

		name := firstNonEmpty(seedAdminName, cfg.Admin.Name)
		email := firstNonEmpty(seedAdminEmail, cfg.Admin.Email)
		if email == "" {
			return errors.New("--email is required")
		}
		password := firstNonEmpty(seedAdminPassword, cfg.Admin.Password)
		if password == "" {
			password, err = promptPassword()
			if err != nil {
				return err
			}
		}

		dbConn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		users := services.NewUserService(store.NewUserRepository(dbConn), nil)
		admin, err := users.EnsureAdmin(cmd.Context(), name, email, password)
		if err != nil {
			return fmt.Errorf("seed admin failed: %w", err)
		}
		slog.Info("admin account ready", "user_id", admin.ID, "email", admin.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
	seedAdminCmd.Flags().StringVar(&seedAdminName, "name", "", "display name (default ADMIN_NAME)")
	seedAdminCmd.Flags().StringVar(&seedAdminEmail, "email", "", "login email (default ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&seedAdminPassword, "password", "", "password (prompted when empty)")
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Admin password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
