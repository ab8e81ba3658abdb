package storage

const (
	insertExpenseSQL = `INSERT INTO expenses (date, amount, category, subcategory, note)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ?`

	listExpensesSQL = `SELECT id, date, amount, category, COALESCE(subcategory, ''), COALESCE(note, '')
FROM expenses
WHERE date BETWEEN ? AND ?
ORDER BY date ASC, id ASC`

	summarizeExpensesSQL = `SELECT category, SUM(amount) AS total_amount
FROM expenses
WHERE date BETWEEN ? AND ?
GROUP BY category
ORDER BY total_amount DESC, category ASC`

	insertIncomeSQL = `INSERT INTO income (date, amount, source, note)
VALUES (?, ?, ?, ?)
RETURNING id`

	listIncomeSQL = `SELECT id, date, amount, source, COALESCE(note, '')
FROM income
WHERE date BETWEEN ? AND ?
ORDER BY date ASC, id ASC`
)
