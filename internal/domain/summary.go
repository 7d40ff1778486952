package domain

import "github.com/shopspring/decimal"

// CategoryTotal is one entry of a summary breakdown
type CategoryTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   Kind            `json:"kind"`
	Color  string          `json:"color"`
}

// Summary aggregates an owner's transactions over a date window
type Summary struct {
	TotalIncome       decimal.Decimal           `json:"totalIncome"`
	TotalExpenses     decimal.Decimal           `json:"totalExpenses"`
	Balance           decimal.Decimal           `json:"balance"`
	CategoryBreakdown map[string]*CategoryTotal `json:"categoryBreakdown"`
	TransactionCount  int                       `json:"transactionCount"`
}

// NewSummary returns an all-zero summary with an empty breakdown
func NewSummary() *Summary {
	return &Summary{
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		Balance:           decimal.Zero,
		CategoryBreakdown: make(map[string]*CategoryTotal),
	}
}
