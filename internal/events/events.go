// Package events defines the ledger event feed emitted after successful
// persistence. Publication is fire-and-forget: a publish failure is logged
// by the caller and never affects extraction semantics.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/bizledger/internal/domain"
)

// TransactionRecorded announces one persisted ledger record.
type TransactionRecorded struct {
	EventID    string    `json:"event_id"`
	BusinessID string    `json:"business_id"`
	RecordID   string    `json:"record_id"`
	Kind       string    `json:"kind"`
	Amount     string    `json:"amount"`
	Label      string    `json:"label"`
	OccurredOn string    `json:"occurred_on"`
	RecordedAt time.Time `json:"recorded_at"`
}

// FromRecord builds the event for a just-persisted record.
func FromRecord(rec domain.Record) TransactionRecorded {
	return TransactionRecorded{
		EventID:    uuid.NewString(),
		BusinessID: rec.Business(),
		RecordID:   rec.RecordID(),
		Kind:       string(rec.Kind()),
		Amount:     rec.Money().StringFixed(2),
		Label:      rec.Label(),
		OccurredOn: rec.OccurredOn().String(),
		RecordedAt: time.Now().UTC(),
	}
}

// Publisher pushes ledger events to an external feed.
type Publisher interface {
	Publish(ctx context.Context, event TransactionRecorded) error
	Close() error
}
