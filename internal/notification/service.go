package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fkhayef/settleup/internal/expense"
	"github.com/fkhayef/settleup/internal/settlement"
	"github.com/fkhayef/settleup/internal/user"
	"github.com/fkhayef/settleup/pkg/apperror"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Directory resolves user IDs to users for message text
type Directory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]*user.User, error)
}

// Service handles notification business logic
type Service struct {
	repo  *Repository
	users Directory
}

// NewService creates a new notification service
func NewService(repo *Repository, users Directory) *Service {
	return &Service{repo: repo, users: users}
}

// ListByRecipientID retrieves a page of notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	return s.repo.ListByRecipientID(ctx, recipientID, limit, offset, unreadOnly)
}

// MarkAsRead marks one of the user's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperror.NotFound(ErrNotificationNotFound)
	}
	if n.RecipientID != userID {
		return apperror.Forbidden(ErrNotRecipient)
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// NotifyExpenseAdded tells every participant other than the payer what
// they owe for a new expense
func (s *Service) NotifyExpenseAdded(ctx context.Context, e *expense.Expense) error {
	payer := s.name(ctx, e.PaidBy)

	drafts := make([]draft, 0, len(e.Splits))
	for _, sh := range e.Splits {
		if sh.UserID == e.PaidBy {
			continue
		}
		drafts = append(drafts, draft{
			RecipientID: sh.UserID,
			Message:     fmt.Sprintf("%s added %q (%s); your share is %s", payer, e.Description, e.Amount, sh.Amount),
			EntityType:  EntityExpense,
			EntityID:    e.ID,
		})
	}

	return s.repo.CreateMany(ctx, drafts)
}

// NotifySettlementRecorded tells the payee about a recorded payment
func (s *Service) NotifySettlementRecorded(ctx context.Context, st *settlement.Settlement) error {
	return s.repo.CreateMany(ctx, []draft{{
		RecipientID: st.ToUser,
		Message:     fmt.Sprintf("%s paid you %s", s.name(ctx, st.FromUser), st.Amount),
		EntityType:  EntitySettlement,
		EntityID:    st.ID,
	}})
}

func (s *Service) name(ctx context.Context, userID int64) string {
	if s.users != nil {
		users, err := s.users.Lookup(ctx, []int64{userID})
		if err != nil {
			slog.Warn("failed to look up user for notification", "user_id", userID, "error", err)
		} else if u, ok := users[userID]; ok {
			return u.Name
		}
	}
	return fmt.Sprintf("User %d", userID)
}
