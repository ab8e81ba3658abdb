package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// Repository runs the ledger's SQL against a pooled *sql.DB. Each method
// issues one statement; the pool hands out and takes back the connection.
type Repository struct {
	db     *sql.DB
	driver Driver
}

func NewRepository(db *sql.DB, driver Driver) *Repository {
	return &Repository{db: db, driver: driver}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AddExpense inserts the expense and returns its generated id.
func (r *Repository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(insertExpenseSQL),
		e.Date, e.Amount, e.Category, e.Subcategory, e.Note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date.String(),
		"amount", e.Amount.String(),
		"category", e.Category)

	return id, nil
}

// UpdateExpense writes the patch's supplied fields and returns the number of
// rows touched. A missing id touches zero rows and is not an error.
func (r *Repository) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (int64, error) {
	set, args := expenseAssignments(p)
	if set == "" {
		return 0, core.ErrNoFieldsToUpdate
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.rebind("UPDATE expenses SET "+set+" WHERE id = ?"), args...)
	if err != nil {
		return 0, fmt.Errorf("update expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update expense %d: rows affected: %w", id, err)
	}
	return n, nil
}

// DeleteExpense removes the row and returns the number of rows removed.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(deleteExpenseSQL), id)
	if err != nil {
		return 0, fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expense %d: rows affected: %w", id, err)
	}
	return n, nil
}

// ListExpenses returns expenses dated inside the range, oldest first.
func (r *Repository) ListExpenses(ctx context.Context, dr core.DateRange) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(listExpensesSQL), dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// SummarizeExpenses totals expenses per category, largest first.
func (r *Repository) SummarizeExpenses(ctx context.Context, dr core.DateRange) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(summarizeExpensesSQL), dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return totals, nil
}

// TotalExpense sums expense amounts in the range; an empty range sums to zero.
func (r *Repository) TotalExpense(ctx context.Context, dr core.DateRange) (decimal.Decimal, error) {
	return r.total(ctx, "expenses", dr)
}

// AddIncome inserts the income and returns its generated id.
func (r *Repository) AddIncome(ctx context.Context, in core.Income) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(insertIncomeSQL),
		in.Date, in.Amount, in.Source, in.Note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}

	slog.DebugContext(ctx, "Income saved",
		"id", id,
		"date", in.Date.String(),
		"amount", in.Amount.String(),
		"source", in.Source)

	return id, nil
}

// ListIncome returns income dated inside the range, oldest first.
func (r *Repository) ListIncome(ctx context.Context, dr core.DateRange) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(listIncomeSQL), dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	incomes := []core.Income{}
	for rows.Next() {
		var in core.Income
		if err := rows.Scan(&in.ID, &in.Date, &in.Amount, &in.Source, &in.Note); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		incomes = append(incomes, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return incomes, nil
}

// TotalIncome sums income amounts in the range; an empty range sums to zero.
func (r *Repository) TotalIncome(ctx context.Context, dr core.DateRange) (decimal.Decimal, error) {
	return r.total(ctx, "income", dr)
}

func (r *Repository) total(ctx context.Context, table string, dr core.DateRange) (decimal.Decimal, error) {
	var sum decimal.Decimal
	q := "SELECT COALESCE(SUM(amount), 0) FROM " + table + " WHERE date BETWEEN ? AND ?"
	if err := r.db.QueryRowContext(ctx, r.rebind(q), dr.Start, dr.End).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("total %s: %w", table, err)
	}
	return sum, nil
}

// rebind rewrites ? placeholders into the driver's native form.
func (r *Repository) rebind(q string) string {
	if r.driver != PostgresDriver {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// expenseAssignments maps the supplied patch fields onto SET assignments in
// a fixed column order.
func expenseAssignments(p core.ExpensePatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *p.Date)
	}
	if p.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *p.Amount)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Subcategory != nil {
		sets = append(sets, "subcategory = ?")
		args = append(args, *p.Subcategory)
	}
	if p.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *p.Note)
	}
	return strings.Join(sets, ", "), args
}
