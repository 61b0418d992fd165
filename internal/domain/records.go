package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind discriminates the three ledger record variants.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
	KindAsset   Kind = "asset"
)

// ParseKind maps free-text classifier output to a known Kind.
// Returns false for anything outside the three variants.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindExpense:
		return KindExpense, true
	case KindIncome:
		return KindIncome, true
	case KindAsset:
		return KindAsset, true
	default:
		return "", false
	}
}

// Recurrence describes how often a transaction repeats.
type Recurrence string

const (
	RecurrenceOnce      Recurrence = "once"
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
	RecurrenceYearly    Recurrence = "yearly"
)

// ParseRecurrence returns RecurrenceOnce for empty or unrecognized input.
func ParseRecurrence(s string) Recurrence {
	switch Recurrence(strings.ToLower(strings.TrimSpace(s))) {
	case RecurrenceMonthly:
		return RecurrenceMonthly
	case RecurrenceQuarterly:
		return RecurrenceQuarterly
	case RecurrenceYearly:
		return RecurrenceYearly
	default:
		return RecurrenceOnce
	}
}

// TaxDeductible is the expense tax-deductibility flag.
type TaxDeductible string

const (
	TaxDeductibleYes     TaxDeductible = "yes"
	TaxDeductibleNo      TaxDeductible = "no"
	TaxDeductiblePartial TaxDeductible = "partial"
)

// ParseTaxDeductible returns TaxDeductibleYes for empty or unrecognized input.
func ParseTaxDeductible(s string) TaxDeductible {
	switch TaxDeductible(strings.ToLower(strings.TrimSpace(s))) {
	case TaxDeductibleNo:
		return TaxDeductibleNo
	case TaxDeductiblePartial:
		return TaxDeductiblePartial
	default:
		return TaxDeductibleYes
	}
}

// Record is the common view over the three persisted ledger variants.
// Every record belongs to exactly one business; ownership never changes
// after creation.
type Record interface {
	Kind() Kind
	RecordID() string
	Business() string
	// Money is the primary monetary value: amount for expenses and incomes,
	// current value for assets. Always non-negative with two-decimal
	// precision at the persistence boundary.
	Money() decimal.Decimal
	// Label is the human-readable line used in summaries: the description
	// for expenses and incomes, the name for assets.
	Label() string
	OccurredOn() civil.Date
}

// Expense is money spent by the business.
type Expense struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"business_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          civil.Date      `json:"date"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Vendor        string          `json:"vendor"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
	Recurrence    Recurrence      `json:"is_recurring"`
	TaxDeductible TaxDeductible   `json:"tax_deductible"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (e *Expense) Kind() Kind             { return KindExpense }
func (e *Expense) RecordID() string       { return e.ID }
func (e *Expense) Business() string       { return e.BusinessID }
func (e *Expense) Money() decimal.Decimal { return e.Amount }
func (e *Expense) Label() string          { return e.Description }
func (e *Expense) OccurredOn() civil.Date { return e.Date }

// Income is money received by the business.
type Income struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"business_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          civil.Date      `json:"date"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Client        string          `json:"client"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Recurrence    Recurrence      `json:"is_recurring"`
	TaxWithheld   decimal.Decimal `json:"tax_withheld"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (i *Income) Kind() Kind             { return KindIncome }
func (i *Income) RecordID() string       { return i.ID }
func (i *Income) Business() string       { return i.BusinessID }
func (i *Income) Money() decimal.Decimal { return i.Amount }
func (i *Income) Label() string          { return i.Description }
func (i *Income) OccurredOn() civil.Date { return i.Date }

// Asset is an item or investment owned by the business.
type Asset struct {
	ID               string          `json:"id"`
	BusinessID       string          `json:"business_id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	PurchaseValue    decimal.Decimal `json:"purchase_value"`
	PurchaseDate     civil.Date      `json:"purchase_date"`
	DepreciationRate decimal.Decimal `json:"depreciation_rate"`
	Location         string          `json:"location,omitempty"`
	Description      string          `json:"description,omitempty"`
	Documents        []string        `json:"documents"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (a *Asset) Kind() Kind             { return KindAsset }
func (a *Asset) RecordID() string       { return a.ID }
func (a *Asset) Business() string       { return a.BusinessID }
func (a *Asset) Money() decimal.Decimal { return a.CurrentValue }
func (a *Asset) Label() string          { return a.Name }
func (a *Asset) OccurredOn() civil.Date { return a.PurchaseDate }
