package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fkhayef/settleup/internal/database"
	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/ledger"
	"github.com/fkhayef/settleup/internal/money"
)

const expenseColumns = `e.id, e.group_id, e.paid_by, e.description, e.amount, e.split_type, e.notes, e.expense_date, e.created_at, e.updated_at, COALESCE(u.name, '')`

// Repository handles expense and split data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*Expense, error) {
	e := &Expense{}
	if err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.PaidBy,
		&e.Description,
		&e.Amount,
		&e.SplitType,
		&e.Notes,
		&e.ExpenseDate,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.PayerName,
	); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts the expense row and its splits in one transaction and
// fills in the generated fields of e.
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO expenses (group_id, paid_by, description, amount, split_type, notes, expense_date)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
			RETURNING id, expense_date, created_at, updated_at
		`

		var expenseDate interface{}
		if !e.ExpenseDate.IsZero() {
			expenseDate = e.ExpenseDate
		}

		err := tx.QueryRowContext(ctx, query,
			e.GroupID,
			e.PaidBy,
			e.Description,
			e.Amount,
			string(e.SplitType),
			e.Notes,
			expenseDate,
		).Scan(&e.ID, &e.ExpenseDate, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		return insertSplits(ctx, tx, e.ID, e.Splits)
	})
}

// Update rewrites the expense row and replaces its splits atomically
func (r *Repository) Update(ctx context.Context, e *Expense) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE expenses
			SET description = $2, amount = $3, split_type = $4, notes = $5, expense_date = $6, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`

		err := tx.QueryRowContext(ctx, query,
			e.ID,
			e.Description,
			e.Amount,
			string(e.SplitType),
			e.Notes,
			e.ExpenseDate,
		).Scan(&e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, e.ID); err != nil {
			return fmt.Errorf("failed to clear splits: %w", err)
		}

		return insertSplits(ctx, tx, e.ID, e.Splits)
	})
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID int64, shares []split.Share) error {
	for i, s := range shares {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expense_splits (expense_id, user_id, amount, position)
			VALUES ($1, $2, $3, $4)
		`, expenseID, s.UserID, s.Amount, i)
		if err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an expense with its splits. A missing expense yields
// nil, nil.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN users u ON e.paid_by = u.id
		WHERE e.id = $1
	`

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := r.attachSplits(ctx, []*Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByGroupID retrieves a page of a group's expenses, newest first
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN users u ON e.paid_by = u.id
		WHERE e.group_id = $1
		ORDER BY e.expense_date DESC, e.id DESC
		LIMIT $2 OFFSET $3
	`

	expenses, err := r.list(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// ListForUser retrieves a page of the expenses a user paid for or shares in
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Expense, int, error) {
	const involves = `(e.paid_by = $1 OR EXISTS (SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.user_id = $1))`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses e WHERE `+involves, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN users u ON e.paid_by = u.id
		WHERE ` + involves + `
		ORDER BY e.expense_date DESC, e.id DESC
		LIMIT $2 OFFSET $3
	`

	expenses, err := r.list(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := r.attachSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// attachSplits loads the splits of every expense in one query
func (r *Repository) attachSplits(ctx context.Context, expenses []*Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[int64]*Expense, len(expenses))
	ids := make([]int64, len(expenses))
	for i, e := range expenses {
		e.Splits = make([]split.Share, 0)
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT expense_id, user_id, amount
		FROM expense_splits
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID int64
		var s split.Share
		if err := rows.Scan(&expenseID, &s.UserID, &s.Amount); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}

// Delete removes an expense; its splits cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// GroupRecords loads the ledger view of every expense in a group
func (r *Repository) GroupRecords(ctx context.Context, groupID int64) ([]ledger.ExpenseRecord, error) {
	return r.records(ctx, `e.group_id = $1`, groupID)
}

// UserRecords loads the ledger view of every expense a user paid for or
// shares in, across all groups
func (r *Repository) UserRecords(ctx context.Context, userID int64) ([]ledger.ExpenseRecord, error) {
	return r.records(ctx, `(e.paid_by = $1 OR EXISTS (SELECT 1 FROM expense_splits x WHERE x.expense_id = e.id AND x.user_id = $1))`, userID)
}

// records reads matching expenses with their splits in a single ordered
// scan. The LEFT JOIN keeps expenses without split rows.
func (r *Repository) records(ctx context.Context, where string, arg int64) ([]ledger.ExpenseRecord, error) {
	query := `
		SELECT e.id, e.paid_by, e.amount, s.user_id, s.amount
		FROM expenses e
		LEFT JOIN expense_splits s ON s.expense_id = e.id
		WHERE ` + where + `
		ORDER BY e.id, s.position
	`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense records: %w", err)
	}
	defer rows.Close()

	records := make([]ledger.ExpenseRecord, 0)
	lastID := int64(-1)
	for rows.Next() {
		var (
			id, paidBy  int64
			amount      money.Amount
			shareUser   sql.NullInt64
			shareAmount money.Amount
		)
		if err := rows.Scan(&id, &paidBy, &amount, &shareUser, &shareAmount); err != nil {
			return nil, fmt.Errorf("failed to scan expense record: %w", err)
		}
		if id != lastID {
			records = append(records, ledger.ExpenseRecord{PaidBy: paidBy, Amount: amount})
			lastID = id
		}
		if shareUser.Valid {
			rec := &records[len(records)-1]
			rec.SplitDetails = append(rec.SplitDetails, split.Share{UserID: shareUser.Int64, Amount: shareAmount})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense records: %w", err)
	}
	return records, nil
}
