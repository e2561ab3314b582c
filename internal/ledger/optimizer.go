package ledger

import (
	"sort"

	"github.com/fkhayef/settleup/internal/money"
)

type position struct {
	userID int64
	amount money.Amount
}

// Optimize reduces net balances to a list of transfers that settles them.
//
// Creditors and debtors are each sorted by amount descending, ties broken by
// ascending user id, and matched greedily with two pointers. Each step moves
// min(creditor, debtor) from the debtor to the creditor, so every step
// retires at least one side and the result has at most
// creditors+debtors-1 transfers. Greedy matching is a heuristic: it does not
// search for the minimum number of transfers.
//
// On a map that does not sum to zero the loop still terminates; the residue
// is left unsettled. Use CheckBalanced to detect that case.
func Optimize(net NetBalanceMap) []Transfer {
	var creditors, debtors []position
	for id, a := range net {
		switch {
		case a.IsPositive():
			creditors = append(creditors, position{userID: id, amount: a})
		case a.IsNegative():
			debtors = append(debtors, position{userID: id, amount: a.Abs()})
		}
	}

	sortPositions(creditors)
	sortPositions(debtors)

	transfers := make([]Transfer, 0)
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		amount := money.Min(creditors[i].amount, debtors[j].amount)
		if !amount.IsPositive() {
			break
		}

		transfers = append(transfers, Transfer{
			From:   debtors[j].userID,
			To:     creditors[i].userID,
			Amount: amount,
		})

		creditors[i].amount -= amount
		debtors[j].amount -= amount

		if creditors[i].amount.IsZero() {
			i++
		}
		if debtors[j].amount.IsZero() {
			j++
		}
	}

	return transfers
}

func sortPositions(p []position) {
	sort.Slice(p, func(a, b int) bool {
		if p[a].amount != p[b].amount {
			return p[a].amount > p[b].amount
		}
		return p[a].userID < p[b].userID
	})
}
