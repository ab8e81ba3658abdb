package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

type fakeLedger struct {
	expenses []core.Expense
	income   []core.Income
	totals   []core.CategoryTotal
	summary  core.NetSummary

	lastPatch   *core.ExpensePatch
	lastID      int64
	lastRange   core.DateRange
	editMatched bool
	err         error
}

func (f *fakeLedger) AddExpense(_ context.Context, e core.Expense) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}
	f.expenses = append(f.expenses, e)
	return int64(len(f.expenses)), nil
}

func (f *fakeLedger) EditExpense(_ context.Context, id int64, p core.ExpensePatch) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	if f.err != nil {
		return false, f.err
	}
	f.lastID = id
	f.lastPatch = &p
	return f.editMatched, nil
}

func (f *fakeLedger) DeleteExpense(_ context.Context, id int64) (bool, error) {
	f.lastID = id
	return false, f.err
}

func (f *fakeLedger) ListExpenses(_ context.Context, dr core.DateRange) ([]core.Expense, error) {
	f.lastRange = dr
	return f.expenses, f.err
}

func (f *fakeLedger) SummarizeExpenses(_ context.Context, dr core.DateRange) ([]core.CategoryTotal, error) {
	f.lastRange = dr
	return f.totals, f.err
}

func (f *fakeLedger) AddIncome(_ context.Context, in core.Income) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	f.income = append(f.income, in)
	return int64(len(f.income)), nil
}

func (f *fakeLedger) ListIncome(_ context.Context, dr core.DateRange) ([]core.Income, error) {
	f.lastRange = dr
	return f.income, f.err
}

func (f *fakeLedger) NetSummary(_ context.Context, dr core.DateRange) (core.NetSummary, error) {
	f.lastRange = dr
	return f.summary, f.err
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveToolCall(tool, status string, _ time.Duration) {
	o.calls = append(o.calls, tool+":"+status)
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDescriptors(t *testing.T) {
	r := NewRegistry(&fakeLedger{}, nil)

	var names []string
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		assert.NotEmpty(t, d.Params, d.Name)
	}
	assert.Equal(t, []string{
		AddExpense, EditExpense, DeleteExpense, ListExpenses,
		SummarizeExpenses, AddIncome, ListIncome, NetSummary,
	}, names)
}

func TestExpenseIDIsAdvertisedAsInteger(t *testing.T) {
	for _, d := range NewRegistry(&fakeLedger{}, nil).Descriptors() {
		for _, p := range d.Params {
			if p.Name == "expense_id" {
				assert.Equal(t, TypeInteger, p.Type, d.Name)
			}
		}
	}
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, log.ErrorTypeValidation, errorType(&ArgumentError{Tool: AddExpense, Reason: "date is required"}))
	assert.Equal(t, log.ErrorTypeValidation, errorType(fmt.Errorf("wrapped: %w", &ArgumentError{Tool: AddExpense})))
	assert.Equal(t, log.ErrorTypeDatabase, errorType(errors.New("connection refused")))
}

func TestCallUnknownTool(t *testing.T) {
	obs := &recordingObserver{}
	r := NewRegistry(&fakeLedger{}, obs)

	_, err := r.Call(context.Background(), "drop_tables", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Empty(t, obs.calls)
}

func TestAddExpense(t *testing.T) {
	ledger := &fakeLedger{}
	obs := &recordingObserver{}
	r := NewRegistry(ledger, obs)

	got, err := r.Call(context.Background(), AddExpense, map[string]any{
		"date":     "2024-01-15",
		"amount":   12.5,
		"category": "Food",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","id":1}`, toJSON(t, got))

	require.Len(t, ledger.expenses, 1)
	e := ledger.expenses[0]
	assert.Equal(t, "2024-01-15", e.Date.String())
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "", e.Subcategory)
	assert.Equal(t, "", e.Note)
	assert.Equal(t, []string{AddExpense + ":" + metrics.StatusOK}, obs.calls)
}

func TestAddExpenseArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing everything", nil, "date is required"},
		{"bad date", map[string]any{"date": "15/01/2024", "amount": 1, "category": "Food"}, "date must be a date in YYYY-MM-DD format"},
		{"missing amount", map[string]any{"date": "2024-01-15", "category": "Food"}, "amount is required"},
		{"amount as text", map[string]any{"date": "2024-01-15", "amount": "ten", "category": "Food"}, "amount must be of type number"},
		{"missing category", map[string]any{"date": "2024-01-15", "amount": 1}, "category is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			r := NewRegistry(&fakeLedger{}, obs)

			_, err := r.Call(context.Background(), AddExpense, tt.args)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, AddExpense, argErr.Tool)
			assert.Contains(t, argErr.Error(), tt.want)
			assert.Equal(t, []string{AddExpense + ":" + metrics.StatusError}, obs.calls)
		})
	}
}

func TestEditExpense(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		ledger := &fakeLedger{}
		r := NewRegistry(ledger, nil)

		got, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 3})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"error","message":"No fields provided to update"}`, toJSON(t, got))
		assert.Nil(t, ledger.lastPatch)
	})

	t.Run("null fields count as absent", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{}, nil)

		got, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 3, "note": nil, "amount": nil})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"error","message":"No fields provided to update"}`, toJSON(t, got))
	})

	t.Run("zero amount and empty note are applied", func(t *testing.T) {
		ledger := &fakeLedger{editMatched: true}
		r := NewRegistry(ledger, nil)

		got, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": float64(3), "amount": 0, "note": ""})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok","updated_id":3}`, toJSON(t, got))

		require.NotNil(t, ledger.lastPatch)
		require.NotNil(t, ledger.lastPatch.Amount)
		assert.True(t, ledger.lastPatch.Amount.IsZero())
		require.NotNil(t, ledger.lastPatch.Note)
		assert.Equal(t, "", *ledger.lastPatch.Note)
		assert.Nil(t, ledger.lastPatch.Category)
		assert.Nil(t, ledger.lastPatch.Date)
	})

	t.Run("missing id still reports ok", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{editMatched: false}, nil)

		got, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 999, "category": "Rent"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok","updated_id":999}`, toJSON(t, got))
	})

	t.Run("empty date is invalid", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{}, nil)

		_, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 1, "date": ""})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.ErrorIs(t, err, core.ErrInvalidDate)
	})

	t.Run("empty category is invalid", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{}, nil)

		_, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 1, "category": ""})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.ErrorIs(t, err, core.ErrEmptyCategory)
	})

	t.Run("missing expense_id", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{}, nil)

		_, err := r.Call(context.Background(), EditExpense, map[string]any{"note": "x"})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Contains(t, err.Error(), "expense_id is required")
	})

	t.Run("fractional expense_id", func(t *testing.T) {
		r := NewRegistry(&fakeLedger{}, nil)

		_, err := r.Call(context.Background(), EditExpense, map[string]any{"expense_id": 1.5, "note": "x"})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Contains(t, err.Error(), "expense_id must be of type integer")
	})
}

func TestDeleteExpense(t *testing.T) {
	ledger := &fakeLedger{}
	r := NewRegistry(ledger, nil)

	got, err := r.Call(context.Background(), DeleteExpense, map[string]any{"expense_id": 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","deleted_id":42}`, toJSON(t, got))
	assert.EqualValues(t, 42, ledger.lastID)
}

func TestListExpenses(t *testing.T) {
	ledger := &fakeLedger{expenses: []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 2), Amount: decimal.RequireFromString("4.5"), Category: "Food", Subcategory: "Coffee"},
	}}
	r := NewRegistry(ledger, nil)

	got, err := r.Call(context.Background(), ListExpenses, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-31"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"date":"2024-01-02","amount":4.5,"category":"Food","subcategory":"Coffee","note":""}]`, toJSON(t, got))
	assert.Equal(t, "2024-01-01", ledger.lastRange.Start.String())
	assert.Equal(t, "2024-01-31", ledger.lastRange.End.String())
}

func TestListEmptyRangeEncodesAsArray(t *testing.T) {
	r := NewRegistry(&fakeLedger{}, nil)

	for _, name := range []string{ListExpenses, SummarizeExpenses, ListIncome} {
		got, err := r.Call(context.Background(), name, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-31"})
		require.NoError(t, err, name)
		assert.Equal(t, "[]", toJSON(t, got), name)
	}
}

func TestRangeArgumentErrors(t *testing.T) {
	r := NewRegistry(&fakeLedger{}, nil)

	_, err := r.Call(context.Background(), NetSummary, map[string]any{"start_date": "2024-01-01"})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), "end_date is required")

	_, err = r.Call(context.Background(), ListIncome, map[string]any{"start_date": "2024-02-30", "end_date": "2024-03-01"})
	require.ErrorAs(t, err, &argErr)
}

func TestSummarizeExpenses(t *testing.T) {
	ledger := &fakeLedger{totals: []core.CategoryTotal{
		{Category: "Rent", Total: decimal.NewFromInt(800)},
		{Category: "Food", Total: decimal.RequireFromString("15.25")},
	}}
	r := NewRegistry(ledger, nil)

	got, err := r.Call(context.Background(), SummarizeExpenses, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-31"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"category":"Rent","total_amount":800},{"category":"Food","total_amount":15.25}]`, toJSON(t, got))
}

func TestAddAndListIncome(t *testing.T) {
	ledger := &fakeLedger{}
	r := NewRegistry(ledger, nil)

	got, err := r.Call(context.Background(), AddIncome, map[string]any{"date": "2024-01-01", "amount": 2500, "source": "Salary"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","id":1}`, toJSON(t, got))

	_, err = r.Call(context.Background(), AddIncome, map[string]any{"date": "2024-01-01", "amount": 1})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), "source is required")

	list, err := r.Call(context.Background(), ListIncome, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-31"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":0,"date":"2024-01-01","amount":2500,"source":"Salary","note":""}]`, toJSON(t, list))
}

func TestNetSummary(t *testing.T) {
	ledger := &fakeLedger{summary: core.NewNetSummary(decimal.NewFromInt(100), decimal.NewFromInt(40))}
	r := NewRegistry(ledger, nil)

	got, err := r.Call(context.Background(), NetSummary, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-02"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_income":100,"total_expense":40,"net_balance":60}`, toJSON(t, got))
}

func TestStoreErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection refused")
	obs := &recordingObserver{}
	r := NewRegistry(&fakeLedger{err: boom}, obs)

	_, err := r.Call(context.Background(), NetSummary, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-02"})
	assert.ErrorIs(t, err, boom)
	var argErr *ArgumentError
	assert.False(t, errors.As(err, &argErr))
	assert.Equal(t, []string{NetSummary + ":" + metrics.StatusError}, obs.calls)
}
