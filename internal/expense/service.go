package expense

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/pkg/apperror"
)

// Common errors
var (
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrNotPayer           = errors.New("only the payer can modify this expense")
	ErrNotInvolved        = errors.New("you are not part of this expense")
	ErrParticipantOutside = errors.New("every participant must be a member of the group")
	ErrUnknownUser        = errors.New("user not found")
)

// GroupAccess checks group membership
type GroupAccess interface {
	RequireMember(ctx context.Context, groupID, userID int64) error
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Notifier is told about new expenses. Failures are logged, not returned.
type Notifier interface {
	NotifyExpenseAdded(ctx context.Context, e *Expense) error
}

// Service handles expense business logic
type Service struct {
	repo         *Repository
	splitFactory *split.Factory
	groups       GroupAccess
	notifier     Notifier
}

// NewService creates a new expense service with dependencies injected.
// notifier may be nil.
func NewService(repo *Repository, splitFactory *split.Factory, groups GroupAccess, notifier Notifier) *Service {
	return &Service{
		repo:         repo,
		splitFactory: splitFactory,
		groups:       groups,
		notifier:     notifier,
	}
}

// CreateExpense computes the splits with the requested strategy and stores
// the expense. The payer defaults to the caller.
func (s *Service) CreateExpense(ctx context.Context, callerID int64, req *CreateExpenseRequest) (*Expense, error) {
	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	paidBy := callerID
	if req.PaidBy != nil {
		paidBy = *req.PaidBy
	}

	if req.GroupID != nil {
		if err := s.checkGroup(ctx, *req.GroupID, callerID, paidBy, req.Participants); err != nil {
			return nil, err
		}
	}

	shares, err := strategy.Compute(req.Amount, req.Participants, req.SplitDetails)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		GroupID:     req.GroupID,
		PaidBy:      paidBy,
		Description: req.Description,
		Amount:      req.Amount,
		SplitType:   strategy.Policy(),
		Notes:       req.Notes,
		Splits:      shares,
	}
	if req.ExpenseDate != nil {
		e.ExpenseDate = *req.ExpenseDate
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, translate(err)
	}

	slog.Info("expense created",
		"expense_id", e.ID,
		"paid_by", e.PaidBy,
		"amount", e.Amount.String(),
		"split_type", e.SplitType,
		"participants", len(e.Splits),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyExpenseAdded(ctx, e); err != nil {
			slog.Warn("failed to notify participants", "expense_id", e.ID, "error", err)
		}
	}

	return e, nil
}

// GetExpenseByID retrieves an expense visible to the caller: group
// expenses to group members, personal expenses to the people involved.
func (s *Service) GetExpenseByID(ctx context.Context, id, callerID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.NotFound(ErrExpenseNotFound)
	}

	if e.Involves(callerID) {
		return e, nil
	}
	if e.GroupID != nil {
		if err := s.groups.RequireMember(ctx, *e.GroupID, callerID); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, apperror.Forbidden(ErrNotInvolved)
}

// ListForUser retrieves the expenses the user paid for or shares in
func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Expense, int, error) {
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// ListByGroupID retrieves expenses for a group the caller belongs to
func (s *Service) ListByGroupID(ctx context.Context, groupID, callerID int64, limit, offset int) ([]*Expense, int, error) {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByGroupID(ctx, groupID, limit, offset)
}

// UpdateExpense edits an expense. Only the payer may edit; changes to the
// amount, split type, participants or split details recompute every share.
func (s *Service) UpdateExpense(ctx context.Context, id, callerID int64, req *UpdateExpenseRequest) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.NotFound(ErrExpenseNotFound)
	}
	if e.PaidBy != callerID {
		return nil, apperror.Forbidden(ErrNotPayer)
	}

	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Notes != nil {
		e.Notes = req.Notes
	}
	if req.ExpenseDate != nil {
		e.ExpenseDate = *req.ExpenseDate
	}

	if req.resplits() {
		if err := s.resplit(ctx, e, req); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, translate(err)
	}

	slog.Info("expense updated", "expense_id", e.ID, "amount", e.Amount.String(), "split_type", e.SplitType)
	return e, nil
}

// resplit recomputes e.Splits from the merged old and new inputs. New
// participants without split details only work for the equal policy.
func (s *Service) resplit(ctx context.Context, e *Expense, req *UpdateExpenseRequest) error {
	policy := string(e.SplitType)
	if req.SplitType != nil {
		policy = *req.SplitType
	}
	strategy, err := s.splitFactory.CreateFromString(policy)
	if err != nil {
		return err
	}

	amount := e.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}

	participants := e.Participants()
	if req.Participants != nil {
		participants = req.Participants
	}

	inputs := req.SplitDetails
	if inputs == nil && strategy.Policy() == e.SplitType && req.Participants == nil {
		inputs = previousInputs(e)
	}

	if e.GroupID != nil && req.Participants != nil {
		if err := s.checkGroup(ctx, *e.GroupID, e.PaidBy, e.PaidBy, participants); err != nil {
			return err
		}
	}

	shares, err := strategy.Compute(amount, participants, inputs)
	if err != nil {
		return err
	}

	e.Amount = amount
	e.SplitType = strategy.Policy()
	e.Splits = shares
	return nil
}

// previousInputs rebuilds split inputs from the stored shares. Percentage
// expenses keep each user's proportion of the old total; unequal expenses
// keep their literal amounts, so changing only the amount of an unequal
// expense fails validation.
func previousInputs(e *Expense) []split.ShareInput {
	inputs := make([]split.ShareInput, len(e.Splits))
	for i, sh := range e.Splits {
		value := sh.Amount.Decimal()
		if e.SplitType == split.PolicyPercentage && e.Amount.IsPositive() {
			value = value.Mul(decimal.NewFromInt(100)).Div(e.Amount.Decimal())
		}
		inputs[i] = split.ShareInput{UserID: sh.UserID, Value: value}
	}
	return inputs
}

// DeleteExpense deletes an expense. Only the payer can delete.
func (s *Service) DeleteExpense(ctx context.Context, id, userID int64) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return apperror.NotFound(ErrExpenseNotFound)
	}
	if e.PaidBy != userID {
		return apperror.Forbidden(ErrNotPayer)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("expense deleted", "expense_id", id, "by", userID)
	return nil
}

// checkGroup requires the caller to be a member and every user on the
// expense to belong to the group
func (s *Service) checkGroup(ctx context.Context, groupID, callerID, paidBy int64, participants []int64) error {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return err
	}

	users := append([]int64{paidBy}, participants...)
	seen := make(map[int64]struct{}, len(users))
	for _, id := range users {
		if _, ok := seen[id]; ok || id == callerID {
			seen[id] = struct{}{}
			continue
		}
		seen[id] = struct{}{}

		ok, err := s.groups.IsMember(ctx, groupID, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Validation(ErrParticipantOutside)
		}
	}
	return nil
}

// translate maps a foreign key violation on the payer or a participant
// to ErrUnknownUser
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperror.NotFound(ErrUnknownUser)
	}
	return err
}
