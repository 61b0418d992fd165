// Package normalizer turns untrusted classifier candidates into well-formed
// ledger records. It is a pure transform: no I/O, no clock reads, and every
// rejection is a discriminated per-candidate error, never a system failure.
package normalizer

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/bizledger/internal/domain"
)

var (
	// ErrUnknownKind rejects candidates whose type is not expense/income/asset.
	ErrUnknownKind = errors.New("unknown transaction kind")
	// ErrBadAmount rejects non-numeric and negative amounts.
	ErrBadAmount = errors.New("invalid amount")
	// ErrMissingField rejects candidates lacking a required free-text field.
	ErrMissingField = errors.New("missing required field")
)

// DefaultCounterpart is recorded when the classifier names no vendor or client.
const DefaultCounterpart = "Unknown"

// DefaultPaymentMethod is recorded when the classifier names no payment method.
const DefaultPaymentMethod = "unspecified"

// Normalize validates one candidate and produces the ledger record of the
// matching variant, ready for insertion. ID and timestamps are assigned by
// the store at persistence time. today supplies the fallback date so the
// transform stays deterministic.
func Normalize(c map[string]any, businessID string, today civil.Date) (domain.Record, error) {
	kindRaw := stringField(c, "type")
	kind, ok := domain.ParseKind(kindRaw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kindRaw)
	}

	amount, err := amountField(c, "amount")
	if err != nil {
		return nil, err
	}

	category := stringField(c, "category")
	if category == "" {
		return nil, fmt.Errorf("%w: category", ErrMissingField)
	}
	description := stringField(c, "description")
	if description == "" {
		return nil, fmt.Errorf("%w: description", ErrMissingField)
	}

	date := dateField(c, "date", today)
	notes := stringField(c, "notes")

	paymentMethod := stringField(c, "paymentMethod")
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	switch kind {
	case domain.KindExpense:
		return &domain.Expense{
			BusinessID:    businessID,
			Amount:        amount,
			Date:          date,
			Category:      category,
			Description:   description,
			Vendor:        counterpart(c),
			PaymentMethod: paymentMethod,
			Notes:         notes,
			Recurrence:    domain.ParseRecurrence(stringField(c, "isRecurring")),
			TaxDeductible: domain.ParseTaxDeductible(stringField(c, "taxDeductible")),
		}, nil

	case domain.KindIncome:
		return &domain.Income{
			BusinessID:    businessID,
			Amount:        amount,
			Date:          date,
			Category:      category,
			Description:   description,
			Client:        counterpart(c),
			PaymentMethod: paymentMethod,
			Notes:         notes,
			Recurrence:    domain.ParseRecurrence(stringField(c, "isRecurring")),
			TaxWithheld:   decimal.Zero,
		}, nil

	default: // domain.KindAsset
		// Assets have no counterpart: the description becomes the asset
		// name, the category becomes its type, and a single extracted
		// amount serves as both purchase and current value.
		return &domain.Asset{
			BusinessID:    businessID,
			Name:          description,
			Type:          category,
			CurrentValue:  amount,
			PurchaseValue: amount,
			PurchaseDate:  date,
			Description:   notes,
			Documents:     []string{},
		}, nil
	}
}

// counterpart resolves the vendor/client name, checking both keys since the
// model is inconsistent about which one it emits.
func counterpart(c map[string]any) string {
	if v := stringField(c, "vendor"); v != "" {
		return v
	}
	if v := stringField(c, "client"); v != "" {
		return v
	}
	return DefaultCounterpart
}
