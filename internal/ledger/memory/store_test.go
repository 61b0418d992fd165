package memory

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/ledger"
)

func TestInsertExpense_AssignsIdentity(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	in := &domain.Expense{
		BusinessID:  "biz-1",
		Amount:      decimal.RequireFromString("50"),
		Date:        civil.Date{Year: 2025, Month: 6, Day: 15},
		Category:    "Office Supplies",
		Description: "office supplies",
		Vendor:      "Staples",
	}

	saved, err := store.InsertExpense(ctx, in)
	if err != nil {
		t.Fatalf("InsertExpense failed: %v", err)
	}

	if saved.ID == "" {
		t.Error("Expected assigned ID")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("Expected assigned timestamps")
	}
	if in.ID != "" {
		t.Error("Input record must not be mutated")
	}
}

func TestListExpenses_SortedAndLimited(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	dates := []civil.Date{
		{Year: 2025, Month: 6, Day: 1},
		{Year: 2025, Month: 6, Day: 20},
		{Year: 2025, Month: 6, Day: 10},
	}
	for i, d := range dates {
		_, err := store.InsertExpense(ctx, &domain.Expense{
			BusinessID:  "biz-1",
			Amount:      decimal.NewFromInt(int64(i + 1)),
			Date:        d,
			Category:    "Misc",
			Description: "item",
		})
		if err != nil {
			t.Fatalf("InsertExpense failed: %v", err)
		}
	}

	all, err := store.ListExpenses(ctx, "biz-1", 0)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Date.After(all[i-1].Date) {
			t.Errorf("Expenses not sorted newest first: %v before %v", all[i-1].Date, all[i].Date)
		}
	}

	limited, err := store.ListExpenses(ctx, "biz-1", 2)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2", len(limited))
	}
	if limited[0].Date != (civil.Date{Year: 2025, Month: 6, Day: 20}) {
		t.Errorf("First record date = %v, want newest", limited[0].Date)
	}
}

func TestList_IsolatedByBusiness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, biz := range []string{"biz-1", "biz-2"} {
		_, err := store.InsertIncome(ctx, &domain.Income{
			BusinessID:  biz,
			Amount:      decimal.NewFromInt(100),
			Date:        civil.Date{Year: 2025, Month: 6, Day: 15},
			Category:    "Sales",
			Description: "sale",
		})
		if err != nil {
			t.Fatalf("InsertIncome failed: %v", err)
		}
	}

	incomes, err := store.ListIncomes(ctx, "biz-1", 0)
	if err != nil {
		t.Fatalf("ListIncomes failed: %v", err)
	}
	if len(incomes) != 1 {
		t.Errorf("len = %d, want 1", len(incomes))
	}
	if incomes[0].BusinessID != "biz-1" {
		t.Errorf("BusinessID = %q, want biz-1", incomes[0].BusinessID)
	}
}

func TestInsertAsset_NormalizesDocuments(t *testing.T) {
	store := NewStore()

	saved, err := store.InsertAsset(context.Background(), &domain.Asset{
		BusinessID:   "biz-1",
		Name:         "MacBook Pro",
		Type:         "Equipment",
		CurrentValue: decimal.NewFromInt(2500),
		PurchaseDate: civil.Date{Year: 2025, Month: 6, Day: 15},
	})
	if err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}

	if saved.Documents == nil {
		t.Error("Documents must be an empty slice, not nil")
	}
}

func TestBusinessLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.FindBusinessByUser(ctx, "user-1")
	if err != ledger.ErrNotFound {
		t.Errorf("FindBusinessByUser = %v, want ErrNotFound", err)
	}

	created, err := store.CreateBusiness(ctx, &domain.Business{
		UserID:   "user-1",
		Name:     "Acme Design",
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected assigned business ID")
	}

	found, err := store.FindBusinessByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("FindBusinessByUser failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("Found ID %q, want %q", found.ID, created.ID)
	}

	_, err = store.CreateBusiness(ctx, &domain.Business{UserID: "user-1", Name: "Second"})
	if err != ledger.ErrBusinessExists {
		t.Errorf("Second CreateBusiness = %v, want ErrBusinessExists", err)
	}
}
