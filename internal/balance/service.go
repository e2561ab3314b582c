// Package balance answers balance and settle-up questions by loading stored
// expenses and settlements and running them through the ledger.
package balance

import (
	"context"
	"log/slog"

	"github.com/fkhayef/settleup/internal/ledger"
	"github.com/fkhayef/settleup/internal/user"
)

// ExpenseSource loads the ledger view of stored expenses
type ExpenseSource interface {
	GroupRecords(ctx context.Context, groupID int64) ([]ledger.ExpenseRecord, error)
	UserRecords(ctx context.Context, userID int64) ([]ledger.ExpenseRecord, error)
}

// SettlementSource loads the ledger view of recorded settlements
type SettlementSource interface {
	GroupRecords(ctx context.Context, groupID int64) ([]ledger.SettlementRecord, error)
	UserRecords(ctx context.Context, userID int64) ([]ledger.SettlementRecord, error)
}

// GroupAccess checks group membership
type GroupAccess interface {
	RequireMember(ctx context.Context, groupID, userID int64) error
}

// Directory resolves user IDs to users
type Directory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]*user.User, error)
}

// Service computes balances. Every call re-reads storage, so results
// always reflect the latest recorded expenses and settlements.
type Service struct {
	expenses    ExpenseSource
	settlements SettlementSource
	groups      GroupAccess
	users       Directory
}

// NewService creates a new balance service
func NewService(expenses ExpenseSource, settlements SettlementSource, groups GroupAccess, users Directory) *Service {
	return &Service{
		expenses:    expenses,
		settlements: settlements,
		groups:      groups,
		users:       users,
	}
}

// Overall returns the balances of everyone who shares an expense or a
// settlement with userID, across all groups
func (s *Service) Overall(ctx context.Context, userID int64) (*BalancesResponse, error) {
	expenses, err := s.expenses.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.settlements.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	net := s.compute(expenses, settlements, "user_id", userID)
	return s.balances(ctx, net)
}

// Group returns the balances within a group, with recorded settlements
// applied
func (s *Service) Group(ctx context.Context, groupID, callerID int64) (*BalancesResponse, error) {
	net, err := s.groupNet(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	return s.balances(ctx, net)
}

// Suggest returns the transfers that would settle every balance in a group
func (s *Service) Suggest(ctx context.Context, groupID, callerID int64) (*SuggestionsResponse, error) {
	net, err := s.groupNet(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}

	transfers := ledger.Optimize(net)

	users, err := s.lookup(ctx, net.UserIDs())
	if err != nil {
		return nil, err
	}

	party := func(id int64) Party {
		if u, ok := users[id]; ok {
			return Party{ID: id, Name: u.Name}
		}
		return Party{ID: id, Name: UnknownName}
	}

	out := make([]Transaction, len(transfers))
	for i, t := range transfers {
		out[i] = Transaction{From: party(t.From), To: party(t.To), Amount: t.Amount}
	}

	return &SuggestionsResponse{Transactions: out}, nil
}

func (s *Service) groupNet(ctx context.Context, groupID, callerID int64) (ledger.NetBalanceMap, error) {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	expenses, err := s.expenses.GroupRecords(ctx, groupID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.settlements.GroupRecords(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return s.compute(expenses, settlements, "group_id", groupID), nil
}

// compute folds the records and logs, without failing, a map that does
// not sum to zero
func (s *Service) compute(expenses []ledger.ExpenseRecord, settlements []ledger.SettlementRecord, scope string, id int64) ledger.NetBalanceMap {
	net := ledger.ComputeNet(expenses, settlements)
	if err := ledger.CheckBalanced(net); err != nil {
		slog.Warn("ledger out of balance", scope, id, "error", err)
	}
	return net
}

func (s *Service) balances(ctx context.Context, net ledger.NetBalanceMap) (*BalancesResponse, error) {
	nonZero := net.NonZero()

	ids := make([]int64, len(nonZero))
	for i, b := range nonZero {
		ids[i] = b.UserID
	}
	users, err := s.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(nonZero))
	for i, b := range nonZero {
		summary := user.Summary{ID: b.UserID}
		if u, ok := users[b.UserID]; ok {
			summary = u.Summary()
		}
		entries[i] = Entry{User: summary, Amount: b.Amount}
	}

	return &BalancesResponse{Balances: entries}, nil
}

func (s *Service) lookup(ctx context.Context, ids []int64) (map[int64]*user.User, error) {
	if len(ids) == 0 {
		return map[int64]*user.User{}, nil
	}
	return s.users.Lookup(ctx, ids)
}
