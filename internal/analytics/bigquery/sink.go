// Package bigquery streams persisted ledger records into a BigQuery dataset
// so dashboards can aggregate without touching the transactional store.
// Mirroring is best-effort; the ledger remains the source of truth.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/option"

	"github.com/dvloznov/bizledger/internal/domain"
)

const tableID = "ledger_records"

// LedgerRow is the flattened warehouse shape shared by all three variants.
type LedgerRow struct {
	RecordID   string              `bigquery:"record_id"`
	BusinessID string              `bigquery:"business_id"`
	Kind       string              `bigquery:"kind"`
	Amount     float64             `bigquery:"amount"`
	OccurredOn civil.Date          `bigquery:"occurred_on"`
	Category   bigquery.NullString `bigquery:"category"`
	Label      string              `bigquery:"label"`
	RecordedTS time.Time           `bigquery:"recorded_ts"`
}

// Sink mirrors ledger records into BigQuery via the streaming inserter.
type Sink struct {
	client  *bigquery.Client
	dataset string
}

// NewSink creates a sink with a shared BigQuery client.
func NewSink(ctx context.Context, projectID, dataset string, opts ...option.ClientOption) (*Sink, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("analytics: bigquery client: %w", err)
	}
	return &Sink{client: client, dataset: dataset}, nil
}

// Close releases the BigQuery client.
func (s *Sink) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// MirrorRecords streams a batch of persisted records into the warehouse.
func (s *Sink) MirrorRecords(ctx context.Context, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]*LedgerRow, 0, len(recs))
	now := time.Now().UTC()
	for _, rec := range recs {
		amount, _ := rec.Money().Float64()
		rows = append(rows, &LedgerRow{
			RecordID:   rec.RecordID(),
			BusinessID: rec.Business(),
			Kind:       string(rec.Kind()),
			Amount:     amount,
			OccurredOn: rec.OccurredOn(),
			Category:   categoryOf(rec),
			Label:      rec.Label(),
			RecordedTS: now,
		})
	}

	inserter := s.client.Dataset(s.dataset).Table(tableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("analytics: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

func categoryOf(rec domain.Record) bigquery.NullString {
	switch r := rec.(type) {
	case *domain.Expense:
		return bigquery.NullString{StringVal: r.Category, Valid: true}
	case *domain.Income:
		return bigquery.NullString{StringVal: r.Category, Valid: true}
	case *domain.Asset:
		return bigquery.NullString{StringVal: r.Type, Valid: true}
	default:
		return bigquery.NullString{}
	}
}
