package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lib/pq"

	"github.com/fkhayef/settleup/pkg/apperror"
)

// Common errors
var (
	ErrNotParty        = errors.New("you can only record settlements you paid or received")
	ErrPartyNotInGroup = errors.New("both users must be members of the group")
	ErrUnknownUser     = errors.New("user not found")
)

// GroupAccess checks group membership
type GroupAccess interface {
	RequireMember(ctx context.Context, groupID, userID int64) error
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Notifier is told about recorded settlements
type Notifier interface {
	NotifySettlementRecorded(ctx context.Context, s *Settlement) error
}

// Service handles settlement business logic
type Service struct {
	repo     *Repository
	groups   GroupAccess
	notifier Notifier
}

// NewService creates a new settlement service. notifier may be nil.
func NewService(repo *Repository, groups GroupAccess, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		groups:   groups,
		notifier: notifier,
	}
}

// CreateSettlement records that req.FromUser paid req.ToUser. A group
// settlement can be recorded by any member on behalf of two members; a
// personal one only by either party.
func (s *Service) CreateSettlement(ctx context.Context, callerID int64, req *CreateSettlementRequest) (*Settlement, error) {
	st := &Settlement{
		GroupID:   req.GroupID,
		FromUser:  req.FromUser,
		ToUser:    req.ToUser,
		Amount:    req.Amount,
		Note:      req.Note,
		CreatedBy: callerID,
	}

	if err := st.Record().Validate(); err != nil {
		return nil, err
	}

	if st.GroupID != nil {
		if err := s.checkGroup(ctx, *st.GroupID, callerID, st.FromUser, st.ToUser); err != nil {
			return nil, err
		}
	} else if callerID != st.FromUser && callerID != st.ToUser {
		return nil, apperror.Forbidden(ErrNotParty)
	}

	created, err := s.repo.Create(ctx, st)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, apperror.NotFound(ErrUnknownUser)
		}
		return nil, err
	}

	slog.Info("settlement recorded",
		"settlement_id", created.ID,
		"from", created.FromUser,
		"to", created.ToUser,
		"amount", created.Amount.String(),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySettlementRecorded(ctx, created); err != nil {
			slog.Warn("failed to notify payee", "settlement_id", created.ID, "error", err)
		}
	}

	return created, nil
}

// ListForUser retrieves the settlements a user paid or received
func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error) {
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// ListByGroupID retrieves a group's settlements for one of its members
func (s *Service) ListByGroupID(ctx context.Context, groupID, callerID int64) ([]*Settlement, error) {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroupID(ctx, groupID)
}

func (s *Service) checkGroup(ctx context.Context, groupID, callerID int64, users ...int64) error {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return err
	}
	for _, id := range users {
		if id == callerID {
			continue
		}
		ok, err := s.groups.IsMember(ctx, groupID, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Validation(ErrPartyNotInGroup)
		}
	}
	return nil
}
