package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fkhayef/settleup/internal/ledger"
)

const settlementColumns = `id, group_id, from_user, to_user, amount, note, created_by, created_at`

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSettlement(row rowScanner) (*Settlement, error) {
	s := &Settlement{}
	if err := row.Scan(
		&s.ID,
		&s.GroupID,
		&s.FromUser,
		&s.ToUser,
		&s.Amount,
		&s.Note,
		&s.CreatedBy,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a settlement in a single statement and returns the stored row
func (r *Repository) Create(ctx context.Context, s *Settlement) (*Settlement, error) {
	query := `
		INSERT INTO settlements (group_id, from_user, to_user, amount, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + settlementColumns

	created, err := scanSettlement(r.db.QueryRowContext(ctx, query,
		s.GroupID,
		s.FromUser,
		s.ToUser,
		s.Amount,
		s.Note,
		s.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return created, nil
}

// ListByUserID retrieves a page of settlements the user paid or received
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM settlements WHERE from_user = $1 OR to_user = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE from_user = $1 OR to_user = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	settlements, err := r.list(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ListByGroupID retrieves every settlement recorded in a group, newest first
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64) ([]*Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE group_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, groupID)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]*Settlement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := make([]*Settlement, 0)
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// GroupRecords loads the ledger view of a group's settlements
func (r *Repository) GroupRecords(ctx context.Context, groupID int64) ([]ledger.SettlementRecord, error) {
	return r.records(ctx, `SELECT from_user, to_user, amount FROM settlements WHERE group_id = $1 ORDER BY id`, groupID)
}

// UserRecords loads the ledger view of every settlement the user took part in
func (r *Repository) UserRecords(ctx context.Context, userID int64) ([]ledger.SettlementRecord, error) {
	return r.records(ctx, `SELECT from_user, to_user, amount FROM settlements WHERE from_user = $1 OR to_user = $1 ORDER BY id`, userID)
}

func (r *Repository) records(ctx context.Context, query string, arg int64) ([]ledger.SettlementRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement records: %w", err)
	}
	defer rows.Close()

	records := make([]ledger.SettlementRecord, 0)
	for rows.Next() {
		var rec ledger.SettlementRecord
		if err := rows.Scan(&rec.FromUser, &rec.ToUser, &rec.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan settlement record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement records: %w", err)
	}

	return records, nil
}
