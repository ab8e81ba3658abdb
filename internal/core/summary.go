package core

import "github.com/shopspring/decimal"

// CategoryTotal is the summed amount of one expense category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// NetSummary compares income against expenses over a date range.
type NetSummary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetBalance   decimal.Decimal
}

func NewNetSummary(income, expense decimal.Decimal) NetSummary {
	return NetSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetBalance:   income.Sub(expense),
	}
}
