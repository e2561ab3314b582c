package settlement

import (
	"time"

	"github.com/fkhayef/settleup/internal/ledger"
	"github.com/fkhayef/settleup/internal/money"
)

// Settlement represents a recorded payment: FromUser paid ToUser.
// Settlements are immutable once written.
type Settlement struct {
	ID        int64        `json:"id"`
	GroupID   *int64       `json:"group_id"`
	FromUser  int64        `json:"from_user"`
	ToUser    int64        `json:"to_user"`
	Amount    money.Amount `json:"amount"`
	Note      *string      `json:"note,omitempty"`
	CreatedBy int64        `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
}

// Record returns the ledger view of the settlement
func (s *Settlement) Record() ledger.SettlementRecord {
	return ledger.SettlementRecord{
		FromUser: s.FromUser,
		ToUser:   s.ToUser,
		Amount:   s.Amount,
	}
}
