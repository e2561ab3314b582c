package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fkhayef/settleup/internal/database"
)

const groupColumns = `id, name, description, created_by, created_at`

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGroup(row rowScanner) (*Group, error) {
	g := &Group{}
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a group and its initial members in one transaction. The
// creator is always a member.
func (r *Repository) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	var g *Group
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO groups (name, description, created_by)
			VALUES ($1, $2, $3)
			RETURNING ` + groupColumns

		var err error
		g, err = scanGroup(tx.QueryRowContext(ctx, query, req.Name, req.Description, creatorID))
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		memberIDs := append([]int64{creatorID}, req.MemberIDs...)
		for _, userID := range memberIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO group_members (group_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, g.ID, userID)
			if err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListByUserID retrieves all groups for a user
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM group_members WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, total, nil
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id, req.Name, req.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return g, nil
}

// Delete removes a group. Its expenses and settlements cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember adds a user to a group. It reports false when the user was
// already a member.
func (r *Repository) AddMember(ctx context.Context, groupID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetMembers retrieves all members of a group in join order
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.joined_at, u.name, u.email
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, gm.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := make([]*Member, 0)
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.JoinedAt, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// IsMember reports whether userID belongs to groupID
func (r *Repository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// RemoveMember removes a user from a group. It reports whether a row was
// deleted.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
