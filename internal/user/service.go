package user

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/fkhayef/settleup/pkg/apperror"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrUserHasRecords    = errors.New("user is referenced by expenses or settlements")
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// Service handles user business logic
type Service struct {
	repo *Repository
}

// NewService creates a new user service with repository dependency injected
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict(ErrEmailAlreadyInUse)
	}

	return s.repo.Create(ctx, req)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound(ErrUserNotFound)
	}
	return u, nil
}

// Exists reports whether a user with the given ID exists
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Lookup returns the users among ids that exist, keyed by ID
func (s *Service) Lookup(ctx context.Context, ids []int64) (map[int64]*User, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update modifies an existing user
func (s *Service) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	u, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound(ErrUserNotFound)
	}
	return u, nil
}

// Delete removes a user that has no ledger records
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return apperror.Conflict(ErrUserHasRecords)
		}
		return err
	}
	if !deleted {
		return apperror.NotFound(ErrUserNotFound)
	}
	return nil
}
