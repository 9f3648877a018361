package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/librarium/apiserver/types"
)

// Message attribute keys set on loan events.
const (
	AttrContentType = "content_type"
	AttrEventType   = "event_type"
	AttrRecordID    = "record_id"
	// AttrOrderingKey groups events that brokers must deliver in publish
	// order. Loan events are keyed by book.
	AttrOrderingKey = "ordering_key"
)

func orderingKey(event types.LoanEvent) string {
	return "book-" + strconv.Itoa(event.BookID)
}

func encodeLoanEvent(event types.LoanEvent) ([]byte, map[string]string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("encode loan event: %w", err)
	}
	return data, map[string]string{
		AttrContentType: "application/json",
		AttrEventType:   string(event.Type),
		AttrRecordID:    strconv.Itoa(event.RecordID),
		AttrOrderingKey: orderingKey(event),
	}, nil
}

// DecodeLoanEvent parses a message produced by MQ.PublishLoanEvent.
func DecodeLoanEvent(msg Message) (types.LoanEvent, error) {
	var event types.LoanEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.LoanEvent{}, fmt.Errorf("decode loan event: %w", err)
	}
	switch event.Type {
	case types.LoanBorrowed, types.LoanReturned:
	default:
		return types.LoanEvent{}, errors.New("decode loan event: unknown type")
	}
	return event, nil
}
