package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (int64, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	ListExpenses(ctx context.Context, dr core.DateRange) ([]core.Expense, error)
	SummarizeExpenses(ctx context.Context, dr core.DateRange) ([]core.CategoryTotal, error)
	TotalExpense(ctx context.Context, dr core.DateRange) (decimal.Decimal, error)
	AddIncome(ctx context.Context, in core.Income) (int64, error)
	ListIncome(ctx context.Context, dr core.DateRange) ([]core.Income, error)
	TotalIncome(ctx context.Context, dr core.DateRange) (decimal.Decimal, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces committed writes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, eventType string, entityID int64) error
	Close() error
}

// LedgerService orchestrates expense and income operations over the store
// and, when configured, the event broker. The store write is authoritative;
// a failed publish is logged and never fails the call.
type LedgerService struct {
	store     Store
	publisher EventPublisher
}

// NewLedgerService accepts a nil publisher when no broker is configured.
func NewLedgerService(store Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// AddExpense validates and records an expense, returning its id.
func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		logger(ctx).DebugContext(ctx, "Expense rejected",
			log.FieldOperation, log.OpValidate, log.FieldError, err.Error())
		return 0, err
	}

	id, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	logger(ctx).InfoContext(ctx, "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldEntityID, id,
		"category", e.Category,
		"date", e.Date.String())

	s.publish(ctx, amqp.EventExpenseCreated, id)
	return id, nil
}

// EditExpense applies the supplied fields of the patch. An empty patch
// returns core.ErrNoFieldsToUpdate without touching the store. A missing id
// matches nothing and still succeeds; updated reports whether a row changed.
func (s *LedgerService) EditExpense(ctx context.Context, id int64, p core.ExpensePatch) (updated bool, err error) {
	if err := p.Validate(); err != nil {
		logger(ctx).DebugContext(ctx, "Expense patch rejected",
			log.FieldOperation, log.OpValidate, log.FieldEntityID, id, log.FieldError, err.Error())
		return false, err
	}

	n, err := s.store.UpdateExpense(ctx, id, p)
	if err != nil {
		return false, fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		logger(ctx).DebugContext(ctx, "Expense update matched no rows",
			log.FieldOperation, log.OpUpdate, log.FieldEntityID, id)
		return false, nil
	}

	logger(ctx).InfoContext(ctx, "Expense updated", log.FieldOperation, log.OpUpdate, log.FieldEntityID, id)
	s.publish(ctx, amqp.EventExpenseUpdated, id)
	return true, nil
}

// DeleteExpense removes an expense. Deleting a missing id succeeds.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) (deleted bool, err error) {
	n, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		logger(ctx).DebugContext(ctx, "Expense delete matched no rows",
			log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
		return false, nil
	}

	logger(ctx).InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
	s.publish(ctx, amqp.EventExpenseDeleted, id)
	return true, nil
}

func (s *LedgerService) ListExpenses(ctx context.Context, dr core.DateRange) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	logRead(ctx, "Expenses listed", log.OpList, dr, len(expenses))
	return expenses, nil
}

func (s *LedgerService) SummarizeExpenses(ctx context.Context, dr core.DateRange) ([]core.CategoryTotal, error) {
	totals, err := s.store.SummarizeExpenses(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	logRead(ctx, "Expenses summarized", log.OpSummary, dr, len(totals))
	return totals, nil
}

// AddIncome validates and records an income entry, returning its id.
func (s *LedgerService) AddIncome(ctx context.Context, in core.Income) (int64, error) {
	if err := in.Validate(); err != nil {
		logger(ctx).DebugContext(ctx, "Income rejected",
			log.FieldOperation, log.OpValidate, log.FieldError, err.Error())
		return 0, err
	}

	id, err := s.store.AddIncome(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("save income: %w", err)
	}
	logger(ctx).InfoContext(ctx, "Income created",
		log.FieldOperation, log.OpCreate,
		log.FieldEntityID, id,
		"source", in.Source,
		"date", in.Date.String())

	s.publish(ctx, amqp.EventIncomeCreated, id)
	return id, nil
}

func (s *LedgerService) ListIncome(ctx context.Context, dr core.DateRange) ([]core.Income, error) {
	incomes, err := s.store.ListIncome(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	logRead(ctx, "Income listed", log.OpList, dr, len(incomes))
	return incomes, nil
}

// NetSummary totals income and expenses over the range. The two sums run
// concurrently on separate pooled connections and are not a snapshot: a
// write landing between them can show up in one total only.
func (s *LedgerService) NetSummary(ctx context.Context, dr core.DateRange) (core.NetSummary, error) {
	var income, expense decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.TotalIncome(gctx, dr)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.store.TotalExpense(gctx, dr)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.NetSummary{}, fmt.Errorf("net summary: %w", err)
	}
	logger(ctx).DebugContext(ctx, "Net summary computed",
		log.FieldOperation, log.OpSummary,
		log.FieldStartDate, dr.Start.String(),
		log.FieldEndDate, dr.End.String())

	return core.NewNetSummary(income, expense), nil
}

// Ping reports store reachability for readiness checks.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *LedgerService) publish(ctx context.Context, eventType string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, eventType, id); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to publish ledger event",
			"type", eventType, log.FieldEntityID, id, log.FieldError, err.Error())
	}
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentLedger)
}

func logRead(ctx context.Context, msg, op string, dr core.DateRange, n int) {
	logger(ctx).DebugContext(ctx, msg,
		log.FieldOperation, op,
		log.FieldStartDate, dr.Start.String(),
		log.FieldEndDate, dr.End.String(),
		log.FieldResultCount, n)
}

// Close closes both the store and the publisher
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
