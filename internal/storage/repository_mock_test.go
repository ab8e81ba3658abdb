package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func newMockRepository(t *testing.T, driver Driver) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewRepository(db, driver), mock
}

func TestPostgresAddExpenseUsesNumberedPlaceholders(t *testing.T) {
	repo, mock := newMockRepository(t, PostgresDriver)

	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5)")).
		WithArgs("2024-01-15", "12.5", "Food", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.AddExpense(context.Background(), core.Expense{
		Date:     core.NewDate(2024, 1, 15),
		Amount:   decimal.RequireFromString("12.5"),
		Category: "Food",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
}

func TestPostgresUpdateExpense(t *testing.T) {
	repo, mock := newMockRepository(t, PostgresDriver)

	cat := "Rent"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE expenses SET category = $1 WHERE id = $2")).
		WithArgs("Rent", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.UpdateExpense(context.Background(), 3, core.ExpensePatch{Category: &cat})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	dr := core.DateRange{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}

	t.Run("delete", func(t *testing.T) {
		repo, mock := newMockRepository(t, SQLiteDriver)
		mock.ExpectExec("DELETE FROM expenses").WithArgs(int64(1)).WillReturnError(boom)

		_, err := repo.DeleteExpense(context.Background(), 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("list", func(t *testing.T) {
		repo, mock := newMockRepository(t, SQLiteDriver)
		mock.ExpectQuery("FROM expenses").WillReturnError(boom)

		_, err := repo.ListExpenses(context.Background(), dr)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("total income", func(t *testing.T) {
		repo, mock := newMockRepository(t, SQLiteDriver)
		mock.ExpectQuery("FROM income").WillReturnError(boom)

		_, err := repo.TotalIncome(context.Background(), dr)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newMockRepository(t, SQLiteDriver)
		rows := sqlmock.NewRows([]string{"category", "total_amount"}).
			AddRow("Food", 10.0).
			RowError(0, boom)
		mock.ExpectQuery("GROUP BY category").WillReturnRows(rows).RowsWillBeClosed()

		_, err := repo.SummarizeExpenses(context.Background(), dr)
		assert.ErrorIs(t, err, boom)
	})
}
