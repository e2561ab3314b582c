package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fkhayef/settleup/internal/database"
)

const notificationColumns = `id, recipient_id, message, is_read, related_entity_type, related_entity_id, created_at`

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	n := &Notification{}
	if err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Message,
		&n.IsRead,
		&n.RelatedEntityType,
		&n.RelatedEntityID,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateMany stores a batch of notifications in one transaction
func (r *Repository) CreateMany(ctx context.Context, drafts []draft) error {
	if len(drafts) == 0 {
		return nil
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, d := range drafts {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO notifications (recipient_id, message, related_entity_type, related_entity_id)
				VALUES ($1, $2, $3, $4)
			`, d.RecipientID, d.Message, string(d.EntityType), d.EntityID)
			if err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a notification by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListByRecipientID retrieves a page of a user's notifications, newest first
func (r *Repository) ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	filter := `WHERE recipient_id = $1`
	if unreadOnly {
		filter += ` AND is_read = false`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications `+filter, recipientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications ` + filter + ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications as read for a user and reports how
// many changed
func (r *Repository) MarkAllAsRead(ctx context.Context, recipientID int64) (int64, error) {
	query := `UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`
	res, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return res.RowsAffected()
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *Repository) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
