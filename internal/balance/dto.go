package balance

import (
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/internal/user"
)

// UnknownName is shown for suggestion parties that no longer exist
const UnknownName = "Unknown"

// Entry is one user's net position. Positive amounts are owed to the
// user, negative amounts are owed by the user.
type Entry struct {
	User   user.Summary `json:"user"`
	Amount money.Amount `json:"amount" swaggertype:"number"`
}

// BalancesResponse lists the non-zero balances ordered by user ID
type BalancesResponse struct {
	Balances []Entry `json:"balances"`
}

// Party identifies one side of a suggested transfer
type Party struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Transaction is a suggested payment: From pays To
type Transaction struct {
	From   Party        `json:"from"`
	To     Party        `json:"to"`
	Amount money.Amount `json:"amount" swaggertype:"number"`
}

// SuggestionsResponse lists the transfers that would settle a group
type SuggestionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}
