package tools

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

const (
	statusOK    = "ok"
	statusError = "error"

	noFieldsMessage = "No fields provided to update"
)

type AddResult struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type UpdateResult struct {
	Status    string `json:"status"`
	UpdatedID int64  `json:"updated_id"`
}

type DeleteResult struct {
	Status    string `json:"status"`
	DeletedID int64  `json:"deleted_id"`
}

// StatusResult is a non-exceptional error outcome, such as an edit that
// supplied no fields.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ExpenseRow struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Note        string  `json:"note"`
}

type IncomeRow struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Source string  `json:"source"`
	Note   string  `json:"note"`
}

type CategoryTotalRow struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
}

type NetSummaryResult struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetBalance   float64 `json:"net_balance"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func expenseRows(expenses []core.Expense) []ExpenseRow {
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, ExpenseRow{
			ID:          e.ID,
			Date:        e.Date.String(),
			Amount:      toFloat(e.Amount),
			Category:    e.Category,
			Subcategory: e.Subcategory,
			Note:        e.Note,
		})
	}
	return rows
}

func incomeRows(incomes []core.Income) []IncomeRow {
	rows := make([]IncomeRow, 0, len(incomes))
	for _, in := range incomes {
		rows = append(rows, IncomeRow{
			ID:     in.ID,
			Date:   in.Date.String(),
			Amount: toFloat(in.Amount),
			Source: in.Source,
			Note:   in.Note,
		})
	}
	return rows
}

func categoryRows(totals []core.CategoryTotal) []CategoryTotalRow {
	rows := make([]CategoryTotalRow, 0, len(totals))
	for _, ct := range totals {
		rows = append(rows, CategoryTotalRow{
			Category:    ct.Category,
			TotalAmount: toFloat(ct.Total),
		})
	}
	return rows
}

func netSummaryResult(s core.NetSummary) NetSummaryResult {
	return NetSummaryResult{
		TotalIncome:  toFloat(s.TotalIncome),
		TotalExpense: toFloat(s.TotalExpense),
		NetBalance:   toFloat(s.NetBalance),
	}
}
