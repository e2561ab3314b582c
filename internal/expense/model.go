package expense

import (
	"time"

	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/ledger"
	"github.com/fkhayef/settleup/internal/money"
)

// Expense represents an expense paid by one user and shared among
// participants. Splits are kept in participant order; the last one holds
// any rounding remainder.
type Expense struct {
	ID          int64        `json:"id"`
	GroupID     *int64       `json:"group_id,omitempty"`
	PaidBy      int64        `json:"paid_by"`
	Description string       `json:"description"`
	Amount      money.Amount `json:"amount"`
	SplitType   split.Policy `json:"split_type"`
	Notes       *string      `json:"notes,omitempty"`
	ExpenseDate time.Time    `json:"expense_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Splits []split.Share `json:"splits"`

	// Populated via JOIN
	PayerName string `json:"payer_name,omitempty"`
}

// Participants returns the user IDs of the splits in order
func (e *Expense) Participants() []int64 {
	ids := make([]int64, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}

// Involves reports whether userID paid for or shares in the expense
func (e *Expense) Involves(userID int64) bool {
	if e.PaidBy == userID {
		return true
	}
	for _, s := range e.Splits {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// Record returns the ledger view of the expense
func (e *Expense) Record() ledger.ExpenseRecord {
	return ledger.ExpenseRecord{
		PaidBy:       e.PaidBy,
		Amount:       e.Amount,
		SplitDetails: append([]split.Share(nil), e.Splits...),
	}
}
