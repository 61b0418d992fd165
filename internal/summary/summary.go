// Package summary aggregates a business's ledger into headline totals.
package summary

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/bizledger/internal/ledger"
)

// DefaultPeriod is assumed when the caller names no period.
const DefaultPeriod = "current_month"

// Report holds the headline figures for one business.
//
// The period is echoed but not used to filter records: period-based
// date-range aggregation is handled outside this subsystem.
type Report struct {
	Period        string          `json:"period"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetCashFlow   decimal.Decimal `json:"net_cash_flow"`
	TotalAssets   decimal.Decimal `json:"total_assets"`
	NetWorth      decimal.Decimal `json:"net_worth"`
}

// Build computes the totals across all of a business's records.
func Build(ctx context.Context, store ledger.LedgerStore, businessID, period string) (*Report, error) {
	if period == "" {
		period = DefaultPeriod
	}

	expenses, err := store.ListExpenses(ctx, businessID, 0)
	if err != nil {
		return nil, fmt.Errorf("summary: listing expenses: %w", err)
	}
	incomes, err := store.ListIncomes(ctx, businessID, 0)
	if err != nil {
		return nil, fmt.Errorf("summary: listing incomes: %w", err)
	}
	assets, err := store.ListAssets(ctx, businessID, 0)
	if err != nil {
		return nil, fmt.Errorf("summary: listing assets: %w", err)
	}

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
	}
	totalIncome := decimal.Zero
	for _, i := range incomes {
		totalIncome = totalIncome.Add(i.Amount)
	}
	totalAssets := decimal.Zero
	for _, a := range assets {
		totalAssets = totalAssets.Add(a.CurrentValue)
	}

	netCashFlow := totalIncome.Sub(totalExpenses)

	return &Report{
		Period:        period,
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		NetCashFlow:   netCashFlow,
		TotalAssets:   totalAssets,
		NetWorth:      totalAssets.Add(netCashFlow),
	}, nil
}

// Text renders the report as the chat-style summary line.
func (r *Report) Text() string {
	return fmt.Sprintf(
		"Financial Summary (%s)\n\nIncome: $%s\nExpenses: $%s\nNet Cash Flow: $%s\nTotal Assets: $%s\nNet Worth: $%s",
		r.Period,
		r.TotalIncome.StringFixed(2),
		r.TotalExpenses.StringFixed(2),
		r.NetCashFlow.StringFixed(2),
		r.TotalAssets.StringFixed(2),
		r.NetWorth.StringFixed(2),
	)
}
