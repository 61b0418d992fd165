// Package memory is an in-memory implementation of the ledger stores.
// It is safe for concurrent use and suitable for tests and local
// development without a database. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/ledger"
)

// Store keeps all records in process memory, partitioned by business.
type Store struct {
	mu         sync.RWMutex
	expenses   map[string][]*domain.Expense
	incomes    map[string][]*domain.Income
	assets     map[string][]*domain.Asset
	businesses map[string]*domain.Business // keyed by business ID

	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		expenses:   make(map[string][]*domain.Expense),
		incomes:    make(map[string][]*domain.Income),
		assets:     make(map[string][]*domain.Asset),
		businesses: make(map[string]*domain.Business),
		now:        time.Now,
	}
}

func (s *Store) InsertExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *e
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt
	s.expenses[saved.BusinessID] = append(s.expenses[saved.BusinessID], &saved)

	out := saved
	return &out, nil
}

func (s *Store) InsertIncome(ctx context.Context, i *domain.Income) (*domain.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *i
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt
	s.incomes[saved.BusinessID] = append(s.incomes[saved.BusinessID], &saved)

	out := saved
	return &out, nil
}

func (s *Store) InsertAsset(ctx context.Context, a *domain.Asset) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *a
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt
	if saved.Documents == nil {
		saved.Documents = []string{}
	}
	s.assets[saved.BusinessID] = append(s.assets[saved.BusinessID], &saved)

	out := saved
	return &out, nil
}

func (s *Store) ListExpenses(ctx context.Context, businessID string, limit int) ([]*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Expense, 0, len(s.expenses[businessID]))
	for _, e := range s.expenses[businessID] {
		copied := *e
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return clip(result, limit), nil
}

func (s *Store) ListIncomes(ctx context.Context, businessID string, limit int) ([]*domain.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Income, 0, len(s.incomes[businessID]))
	for _, i := range s.incomes[businessID] {
		copied := *i
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return clip(result, limit), nil
}

func (s *Store) ListAssets(ctx context.Context, businessID string, limit int) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Asset, 0, len(s.assets[businessID]))
	for _, a := range s.assets[businessID] {
		copied := *a
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PurchaseDate.After(result[j].PurchaseDate)
	})
	return clip(result, limit), nil
}

func (s *Store) CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.businesses {
		if existing.UserID == b.UserID {
			return nil, ledger.ErrBusinessExists
		}
	}

	saved := *b
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt
	s.businesses[saved.ID] = &saved

	out := saved
	return &out, nil
}

func (s *Store) FindBusinessByUser(ctx context.Context, userID string) (*domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.businesses {
		if b.UserID == userID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func clip[T any](items []T, limit int) []T {
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}

var _ ledger.LedgerStore = (*Store)(nil)
var _ ledger.BusinessStore = (*Store)(nil)
