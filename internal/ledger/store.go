// Package ledger defines the persistence contracts for the financial ledger.
// Implementations live in the postgres and memory subpackages.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/bizledger/internal/domain"
)

var (
	// ErrUnavailable marks connection-level store failures, as opposed to
	// the store rejecting a particular row. The orchestrator escalates to a
	// system error only when every insert in a batch fails this way.
	ErrUnavailable = errors.New("ledger store unavailable")

	// ErrNotFound is returned by lookups with no matching row.
	ErrNotFound = errors.New("not found")

	// ErrBusinessExists rejects a second business for the same user.
	ErrBusinessExists = errors.New("business already exists for this user")
)

// LedgerStore persists and lists the three ledger record variants.
// Inserts assign the record ID and timestamps and return the persisted
// record; persisted records are never mutated afterwards. A limit of 0
// means no limit.
type LedgerStore interface {
	InsertExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error)
	InsertIncome(ctx context.Context, i *domain.Income) (*domain.Income, error)
	InsertAsset(ctx context.Context, a *domain.Asset) (*domain.Asset, error)

	ListExpenses(ctx context.Context, businessID string, limit int) ([]*domain.Expense, error)
	ListIncomes(ctx context.Context, businessID string, limit int) ([]*domain.Income, error)
	ListAssets(ctx context.Context, businessID string, limit int) ([]*domain.Asset, error)
}

// BusinessStore persists the tenant scope records.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error)
	FindBusinessByUser(ctx context.Context, userID string) (*domain.Business, error)
}

// Insert dispatches a record to the variant-specific insert.
func Insert(ctx context.Context, store LedgerStore, rec domain.Record) (domain.Record, error) {
	switch r := rec.(type) {
	case *domain.Expense:
		return store.InsertExpense(ctx, r)
	case *domain.Income:
		return store.InsertIncome(ctx, r)
	case *domain.Asset:
		return store.InsertAsset(ctx, r)
	default:
		return nil, fmt.Errorf("insert: unsupported record type %T", rec)
	}
}
