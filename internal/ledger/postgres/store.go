// Package postgres implements the ledger stores on PostgreSQL.
//
// Expected tables mirror the business, expense, income and asset schemas:
// uuid primary keys, numeric(12,2) money columns, timestamp dates and
// created_at/updated_at timestamps. Schema management is handled outside
// this service.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/ledger"
)

// Store implements ledger.LedgerStore and ledger.BusinessStore over a
// shared *sql.DB.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return NewStore(db), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	saved := *e
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt

	const query = `
		INSERT INTO expense (
			id, business_id, amount, date, category, description,
			vendor, payment_method, notes, receipt_url,
			is_recurring, is_tax_deductible, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := s.db.ExecContext(ctx, query,
		saved.ID, saved.BusinessID, saved.Amount, dateToTime(saved.Date),
		saved.Category, saved.Description, saved.Vendor,
		nullString(saved.PaymentMethod), nullString(saved.Notes), nullString(saved.ReceiptURL),
		string(saved.Recurrence), string(saved.TaxDeductible),
		saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("insert expense", err)
	}
	return &saved, nil
}

func (s *Store) InsertIncome(ctx context.Context, i *domain.Income) (*domain.Income, error) {
	saved := *i
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt

	const query = `
		INSERT INTO income (
			id, business_id, amount, date, category, description,
			client, invoice_number, payment_method, notes,
			is_recurring, tax_withheld, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := s.db.ExecContext(ctx, query,
		saved.ID, saved.BusinessID, saved.Amount, dateToTime(saved.Date),
		saved.Category, saved.Description, saved.Client,
		nullString(saved.InvoiceNumber), nullString(saved.PaymentMethod), nullString(saved.Notes),
		string(saved.Recurrence), saved.TaxWithheld,
		saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("insert income", err)
	}
	return &saved, nil
}

func (s *Store) InsertAsset(ctx context.Context, a *domain.Asset) (*domain.Asset, error) {
	saved := *a
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt
	if saved.Documents == nil {
		saved.Documents = []string{}
	}

	const query = `
		INSERT INTO asset (
			id, business_id, name, type, current_value, purchase_value,
			purchase_date, depreciation_rate, location, description,
			documents, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := s.db.ExecContext(ctx, query,
		saved.ID, saved.BusinessID, saved.Name, saved.Type,
		saved.CurrentValue, saved.PurchaseValue, dateToTime(saved.PurchaseDate),
		saved.DepreciationRate, nullString(saved.Location), nullString(saved.Description),
		pq.Array(saved.Documents), saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("insert asset", err)
	}
	return &saved, nil
}

func (s *Store) ListExpenses(ctx context.Context, businessID string, limit int) ([]*domain.Expense, error) {
	const query = `
		SELECT id, business_id, amount, date, category, description,
		       vendor, payment_method, notes, receipt_url,
		       is_recurring, is_tax_deductible, created_at, updated_at
		FROM expense
		WHERE business_id = $1
		ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query+limitClause(limit), businessID)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var result []*domain.Expense
	for rows.Next() {
		var (
			e          domain.Expense
			date       time.Time
			payment    sql.NullString
			notes      sql.NullString
			receipt    sql.NullString
			recurring  string
			deductible string
		)
		err := rows.Scan(
			&e.ID, &e.BusinessID, &e.Amount, &date, &e.Category, &e.Description,
			&e.Vendor, &payment, &notes, &receipt,
			&recurring, &deductible, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, storeErr("scan expense", err)
		}
		e.Date = civil.DateOf(date)
		e.PaymentMethod = payment.String
		e.Notes = notes.String
		e.ReceiptURL = receipt.String
		e.Recurrence = domain.Recurrence(recurring)
		e.TaxDeductible = domain.TaxDeductible(deductible)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list expenses", err)
	}
	return result, nil
}

func (s *Store) ListIncomes(ctx context.Context, businessID string, limit int) ([]*domain.Income, error) {
	const query = `
		SELECT id, business_id, amount, date, category, description,
		       client, invoice_number, payment_method, notes,
		       is_recurring, tax_withheld, created_at, updated_at
		FROM income
		WHERE business_id = $1
		ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query+limitClause(limit), businessID)
	if err != nil {
		return nil, storeErr("list incomes", err)
	}
	defer rows.Close()

	var result []*domain.Income
	for rows.Next() {
		var (
			i         domain.Income
			date      time.Time
			invoice   sql.NullString
			payment   sql.NullString
			notes     sql.NullString
			recurring string
		)
		err := rows.Scan(
			&i.ID, &i.BusinessID, &i.Amount, &date, &i.Category, &i.Description,
			&i.Client, &invoice, &payment, &notes,
			&recurring, &i.TaxWithheld, &i.CreatedAt, &i.UpdatedAt,
		)
		if err != nil {
			return nil, storeErr("scan income", err)
		}
		i.Date = civil.DateOf(date)
		i.InvoiceNumber = invoice.String
		i.PaymentMethod = payment.String
		i.Notes = notes.String
		i.Recurrence = domain.Recurrence(recurring)
		result = append(result, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list incomes", err)
	}
	return result, nil
}

func (s *Store) ListAssets(ctx context.Context, businessID string, limit int) ([]*domain.Asset, error) {
	const query = `
		SELECT id, business_id, name, type, current_value, purchase_value,
		       purchase_date, depreciation_rate, location, description,
		       documents, created_at, updated_at
		FROM asset
		WHERE business_id = $1
		ORDER BY purchase_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query+limitClause(limit), businessID)
	if err != nil {
		return nil, storeErr("list assets", err)
	}
	defer rows.Close()

	var result []*domain.Asset
	for rows.Next() {
		var (
			a        domain.Asset
			purchase time.Time
			location sql.NullString
			desc     sql.NullString
		)
		err := rows.Scan(
			&a.ID, &a.BusinessID, &a.Name, &a.Type,
			&a.CurrentValue, &a.PurchaseValue, &purchase,
			&a.DepreciationRate, &location, &desc,
			pq.Array(&a.Documents), &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, storeErr("scan asset", err)
		}
		a.PurchaseDate = civil.DateOf(purchase)
		a.Location = location.String
		a.Description = desc.String
		if a.Documents == nil {
			a.Documents = []string{}
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list assets", err)
	}
	return result, nil
}

func (s *Store) CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	if _, err := s.FindBusinessByUser(ctx, b.UserID); err == nil {
		return nil, ledger.ErrBusinessExists
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	saved := *b
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.UpdatedAt = saved.CreatedAt

	const query = `
		INSERT INTO business (id, user_id, name, currency, fiscal_start_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := s.db.ExecContext(ctx, query,
		saved.ID, saved.UserID, saved.Name, saved.Currency,
		dateToTime(saved.FiscalStartDate), saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("create business", err)
	}
	return &saved, nil
}

func (s *Store) FindBusinessByUser(ctx context.Context, userID string) (*domain.Business, error) {
	const query = `
		SELECT id, user_id, name, currency, fiscal_start_date, created_at, updated_at
		FROM business
		WHERE user_id = $1
		LIMIT 1`

	var (
		b      domain.Business
		fiscal time.Time
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&b.ID, &b.UserID, &b.Name, &b.Currency, &fiscal, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("find business", err)
	}
	b.FiscalStartDate = civil.DateOf(fiscal)
	return &b, nil
}

// storeErr classifies database failures. A *pq.Error means the server
// received and rejected the statement (constraint violation and the like),
// which stays a per-row failure; anything else is connection-level and is
// tagged ErrUnavailable so callers can distinguish a down store.
func storeErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres: %s: %w", op, err)
	}
	return fmt.Errorf("postgres: %s: %w: %v", op, ledger.ErrUnavailable, err)
}

func dateToTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

var _ ledger.LedgerStore = (*Store)(nil)
var _ ledger.BusinessStore = (*Store)(nil)
