package group

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/fkhayef/settleup/pkg/apperror"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrNotMember           = errors.New("you are not a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrRemoveCreator       = errors.New("the group creator cannot be removed")
	ErrUnknownUser         = errors.New("user does not exist")
)

// Service handles group business logic
type Service struct {
	repo *Repository
}

// NewService creates a new group service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new group with the creator and any listed users as members
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	g, err := s.repo.Create(ctx, creatorID, req)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.Validation(ErrUnknownUser)
		}
		return nil, err
	}
	return g, nil
}

// GetByID retrieves a group the caller belongs to
func (s *Service) GetByID(ctx context.Context, id, callerID int64) (*Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperror.NotFound(ErrGroupNotFound)
	}
	if err := s.requireMember(ctx, id, callerID); err != nil {
		return nil, err
	}
	return g, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, id, callerID int64) (*Group, []*Member, error) {
	g, err := s.GetByID(ctx, id, callerID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return g, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// Update modifies a group the caller belongs to
func (s *Service) Update(ctx context.Context, id, callerID int64, req *UpdateGroupRequest) (*Group, error) {
	if _, err := s.GetByID(ctx, id, callerID); err != nil {
		return nil, err
	}

	g, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperror.NotFound(ErrGroupNotFound)
	}
	return g, nil
}

// Delete removes a group. Only its creator may delete it.
func (s *Service) Delete(ctx context.Context, id, callerID int64) error {
	g, err := s.GetByID(ctx, id, callerID)
	if err != nil {
		return err
	}
	if g.CreatedBy != callerID {
		return apperror.Forbidden(ErrNotAuthorized)
	}
	return s.repo.Delete(ctx, id)
}

// AddMember adds a user to a group. The caller must already be a member.
func (s *Service) AddMember(ctx context.Context, groupID, callerID int64, req *AddMemberRequest) error {
	if _, err := s.GetByID(ctx, groupID, callerID); err != nil {
		return err
	}

	added, err := s.repo.AddMember(ctx, groupID, req.UserID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound(ErrUnknownUser)
		}
		return err
	}
	if !added {
		return apperror.Conflict(ErrMemberAlreadyExists)
	}
	return nil
}

// GetMembers retrieves all members of a group
func (s *Service) GetMembers(ctx context.Context, groupID, callerID int64) ([]*Member, error) {
	if _, err := s.GetByID(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, groupID)
}

// RemoveMember removes a user from a group. Members may leave on their
// own; removing someone else requires being the creator.
func (s *Service) RemoveMember(ctx context.Context, groupID, callerID, userID int64) error {
	g, err := s.GetByID(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if userID == g.CreatedBy {
		return apperror.Conflict(ErrRemoveCreator)
	}
	if callerID != userID && callerID != g.CreatedBy {
		return apperror.Forbidden(ErrNotAuthorized)
	}

	removed, err := s.repo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound(ErrMemberNotFound)
	}
	return nil
}

// RequireMember checks that the group exists and userID belongs to it
func (s *Service) RequireMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.GetByID(ctx, groupID, userID)
	return err
}

// IsMember reports whether userID belongs to groupID
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.repo.IsMember(ctx, groupID, userID)
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden(ErrNotMember)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
