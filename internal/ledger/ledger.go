// Package ledger folds expense and settlement records into per-user net
// balances and reduces those balances to a short list of transfers.
//
// Everything here is pure: inputs are never mutated and results are freshly
// allocated, so callers may run queries concurrently against snapshots.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

var (
	ErrSelfSettlement        = errors.New("cannot settle with yourself")
	ErrNonPositiveSettlement = errors.New("settlement amount must be positive")
	ErrUnbalanced            = errors.New("net balances do not sum to zero")
)

// ExpenseRecord is the ledger's view of an expense: who paid, how much, and
// each participant's share.
type ExpenseRecord struct {
	PaidBy       int64
	Amount       money.Amount
	SplitDetails []split.Share
}

// SettlementRecord is a recorded payment from FromUser to ToUser.
type SettlementRecord struct {
	FromUser int64
	ToUser   int64
	Amount   money.Amount
}

// Validate rejects self-settlements and non-positive amounts.
func (s SettlementRecord) Validate() error {
	if s.FromUser == s.ToUser {
		return apperror.Validation(ErrSelfSettlement)
	}
	if !s.Amount.IsPositive() {
		return apperror.Validation(ErrNonPositiveSettlement)
	}
	return nil
}

// Transfer is a suggested payment: From pays To the given amount.
type Transfer struct {
	From   int64        `json:"from"`
	To     int64        `json:"to"`
	Amount money.Amount `json:"amount"`
}

// NetBalanceMap maps a user to their net position. Positive means the user
// is owed money, negative means the user owes.
type NetBalanceMap map[int64]money.Amount

// Balance is one entry of a NetBalanceMap.
type Balance struct {
	UserID int64
	Amount money.Amount
}

// ComputeNet folds expenses and settlements into net balances.
//
// Each expense credits its payer with the full amount and debits every
// split participant by their share. A payer who is also a participant ends
// up with amount minus own share. An expense without split details credits
// the payer only.
//
// A settlement credits the payer and debits the recipient: the debtor's
// balance moves toward zero from below and the creditor's from above.
//
// Users whose balance nets to zero keep an explicit zero entry.
func ComputeNet(expenses []ExpenseRecord, settlements []SettlementRecord) NetBalanceMap {
	net := make(NetBalanceMap)

	for _, e := range expenses {
		net[e.PaidBy] += e.Amount
		for _, s := range e.SplitDetails {
			net[s.UserID] -= s.Amount
		}
	}

	for _, s := range settlements {
		net[s.FromUser] += s.Amount
		net[s.ToUser] -= s.Amount
	}

	return net
}

// Total returns the sum of all balances. It is zero for a closed set of
// records.
func (m NetBalanceMap) Total() money.Amount {
	var total money.Amount
	for _, a := range m {
		total += a
	}
	return total
}

// Clone returns an independent copy of m.
func (m NetBalanceMap) Clone() NetBalanceMap {
	out := make(NetBalanceMap, len(m))
	for id, a := range m {
		out[id] = a
	}
	return out
}

// NonZero returns the non-zero entries ordered by user id.
func (m NetBalanceMap) NonZero() []Balance {
	out := make([]Balance, 0, len(m))
	for id, a := range m {
		if a.IsZero() {
			continue
		}
		out = append(out, Balance{UserID: id, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// UserIDs returns every user in m ordered by id.
func (m NetBalanceMap) UserIDs() []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply returns a copy of m with transfers applied as if each had been
// recorded as a settlement.
func (m NetBalanceMap) Apply(transfers []Transfer) NetBalanceMap {
	out := m.Clone()
	for _, t := range transfers {
		out[t.From] += t.Amount
		out[t.To] -= t.Amount
	}
	return out
}

// CheckBalanced returns a consistency warning when m does not sum to zero.
// Callers log the warning and carry on.
func CheckBalanced(m NetBalanceMap) error {
	if total := m.Total(); !total.IsZero() {
		return apperror.Consistency(fmt.Errorf("%w: residue %s", ErrUnbalanced, total))
	}
	return nil
}
