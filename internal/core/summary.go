package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthSummary is one calendar month bucket of a record collection.
type MonthSummary struct {
	MonthKey       string          `json:"month"`
	Year           int             `json:"year"`
	Month          int             `json:"month_number"` // 1-12
	Total          decimal.Decimal `json:"total"`
	Count          int             `json:"count"`
	Records        []Record        `json:"records"`
	IsCurrentMonth bool            `json:"is_current_month"`
}

// Dashboard is the month overview of a couple.
type Dashboard struct {
	MonthKey        string           `json:"month"`
	TotalExpenses   decimal.Decimal  `json:"total_expenses"`
	TotalIncomes    decimal.Decimal  `json:"total_incomes"`
	Balance         decimal.Decimal  `json:"balance"`
	PendingBills    decimal.Decimal  `json:"pending_bills"`
	ByCategory      []CategoryAmount `json:"by_category"`
	GoalTargets     decimal.Decimal  `json:"goal_targets"`
	PendingShopping int              `json:"pending_shopping"`
}
