// Package tools exposes the ledger operations as named tools taking loosely
// typed arguments, shared by the MCP and HTTP adapters.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

// ErrUnknownTool is returned by Call for a name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Ledger is the service surface the tools call into.
type Ledger interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	EditExpense(ctx context.Context, id int64, p core.ExpensePatch) (bool, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	ListExpenses(ctx context.Context, dr core.DateRange) ([]core.Expense, error)
	SummarizeExpenses(ctx context.Context, dr core.DateRange) ([]core.CategoryTotal, error)
	AddIncome(ctx context.Context, in core.Income) (int64, error)
	ListIncome(ctx context.Context, dr core.DateRange) ([]core.Income, error)
	NetSummary(ctx context.Context, dr core.DateRange) (core.NetSummary, error)
}

// Observer receives one record per tool call.
type Observer interface {
	ObserveToolCall(tool, status string, d time.Duration)
}

type handlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Registry dispatches tool calls by name. It is safe for concurrent use once
// built.
type Registry struct {
	ledger   Ledger
	observer Observer
	validate *validator.Validate
	handlers map[string]handlerFunc
}

// NewRegistry wires every tool to ledger. observer may be nil.
func NewRegistry(ledger Ledger, observer Observer) *Registry {
	r := &Registry{
		ledger:   ledger,
		observer: observer,
		validate: newValidator(),
	}
	r.handlers = map[string]handlerFunc{
		AddExpense:        r.addExpense,
		EditExpense:       r.editExpense,
		DeleteExpense:     r.deleteExpense,
		ListExpenses:      r.listExpenses,
		SummarizeExpenses: r.summarizeExpenses,
		AddIncome:         r.addIncome,
		ListIncome:        r.listIncome,
		NetSummary:        r.netSummary,
	}
	return r
}

// Descriptors returns the tool descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Call runs the named tool. Unknown names return ErrUnknownTool, bad
// arguments an *ArgumentError; store failures are returned as-is.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	result, err := h(ctx, args)
	elapsed := time.Since(start)

	if r.observer != nil {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		r.observer.ObserveToolCall(name, status, elapsed)
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogToolCall(ctx, name, elapsed.Milliseconds(), err, errorType(err))

	return result, err
}

// errorType classifies a failed call for logging.
func errorType(err error) string {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return log.ErrorTypeValidation
	}
	return log.ErrorTypeDatabase
}

// argumentError converts domain validation failures into an ArgumentError
// and passes everything else through.
func argumentError(tool string, err error) error {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidRange,
		core.ErrEmptyCategory,
		core.ErrEmptySource,
	} {
		if errors.Is(err, target) {
			return &ArgumentError{Tool: tool, Reason: err.Error(), Err: err}
		}
	}
	return err
}

func (r *Registry) addExpense(ctx context.Context, args map[string]any) (any, error) {
	var req addExpenseRequest
	if err := r.decode(AddExpense, args, &req); err != nil {
		return nil, err
	}
	e, err := req.expense()
	if err != nil {
		return nil, argumentError(AddExpense, err)
	}

	id, err := r.ledger.AddExpense(ctx, e)
	if err != nil {
		return nil, argumentError(AddExpense, err)
	}
	return AddResult{Status: statusOK, ID: id}, nil
}

func (r *Registry) editExpense(ctx context.Context, args map[string]any) (any, error) {
	var req editExpenseRequest
	if err := r.decode(EditExpense, args, &req); err != nil {
		return nil, err
	}
	p, err := req.patch()
	if err != nil {
		return nil, argumentError(EditExpense, err)
	}

	id := *req.ExpenseID
	if _, err := r.ledger.EditExpense(ctx, id, p); err != nil {
		if errors.Is(err, core.ErrNoFieldsToUpdate) {
			return StatusResult{Status: statusError, Message: noFieldsMessage}, nil
		}
		return nil, argumentError(EditExpense, err)
	}
	return UpdateResult{Status: statusOK, UpdatedID: id}, nil
}

func (r *Registry) deleteExpense(ctx context.Context, args map[string]any) (any, error) {
	var req deleteExpenseRequest
	if err := r.decode(DeleteExpense, args, &req); err != nil {
		return nil, err
	}

	id := *req.ExpenseID
	if _, err := r.ledger.DeleteExpense(ctx, id); err != nil {
		return nil, err
	}
	return DeleteResult{Status: statusOK, DeletedID: id}, nil
}

func (r *Registry) listExpenses(ctx context.Context, args map[string]any) (any, error) {
	dr, err := r.decodeRange(ListExpenses, args)
	if err != nil {
		return nil, err
	}

	expenses, err := r.ledger.ListExpenses(ctx, dr)
	if err != nil {
		return nil, err
	}
	return expenseRows(expenses), nil
}

func (r *Registry) summarizeExpenses(ctx context.Context, args map[string]any) (any, error) {
	dr, err := r.decodeRange(SummarizeExpenses, args)
	if err != nil {
		return nil, err
	}

	totals, err := r.ledger.SummarizeExpenses(ctx, dr)
	if err != nil {
		return nil, err
	}
	return categoryRows(totals), nil
}

func (r *Registry) addIncome(ctx context.Context, args map[string]any) (any, error) {
	var req addIncomeRequest
	if err := r.decode(AddIncome, args, &req); err != nil {
		return nil, err
	}
	in, err := req.income()
	if err != nil {
		return nil, argumentError(AddIncome, err)
	}

	id, err := r.ledger.AddIncome(ctx, in)
	if err != nil {
		return nil, argumentError(AddIncome, err)
	}
	return AddResult{Status: statusOK, ID: id}, nil
}

func (r *Registry) listIncome(ctx context.Context, args map[string]any) (any, error) {
	dr, err := r.decodeRange(ListIncome, args)
	if err != nil {
		return nil, err
	}

	incomes, err := r.ledger.ListIncome(ctx, dr)
	if err != nil {
		return nil, err
	}
	return incomeRows(incomes), nil
}

func (r *Registry) netSummary(ctx context.Context, args map[string]any) (any, error) {
	dr, err := r.decodeRange(NetSummary, args)
	if err != nil {
		return nil, err
	}

	summary, err := r.ledger.NetSummary(ctx, dr)
	if err != nil {
		return nil, err
	}
	return netSummaryResult(summary), nil
}

func (r *Registry) decodeRange(tool string, args map[string]any) (core.DateRange, error) {
	var req rangeRequest
	if err := r.decode(tool, args, &req); err != nil {
		return core.DateRange{}, err
	}
	dr, err := req.dateRange()
	if err != nil {
		return core.DateRange{}, argumentError(tool, err)
	}
	return dr, nil
}
