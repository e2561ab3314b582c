package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

const (
	userA int64 = 1
	userB int64 = 2
	userC int64 = 3
	userD int64 = 4
)

func amt(s string) money.Amount { return money.MustParse(s) }

func dinner(t *testing.T) ExpenseRecord {
	t.Helper()
	total := amt("90")
	shares, err := split.ComputeShares(total, []int64{userA, userB, userC}, split.PolicyEqual, nil)
	require.NoError(t, err)
	return ExpenseRecord{PaidBy: userA, Amount: total, SplitDetails: shares}
}

func TestComputeNet_WorkedExample(t *testing.T) {
	net := ComputeNet([]ExpenseRecord{dinner(t)}, nil)

	assert.Equal(t, NetBalanceMap{userA: amt("60"), userB: amt("-30"), userC: amt("-30")}, net)
	assert.True(t, net.Total().IsZero())
}

func TestComputeNet_AppliesSettlements(t *testing.T) {
	net := ComputeNet(
		[]ExpenseRecord{dinner(t)},
		[]SettlementRecord{{FromUser: userB, ToUser: userA, Amount: amt("30")}},
	)

	assert.Equal(t, NetBalanceMap{userA: amt("30"), userB: money.Zero, userC: amt("-30")}, net)

	// zero entries are kept, NonZero drops them
	_, ok := net[userB]
	assert.True(t, ok)
	assert.Equal(t, []Balance{{UserID: userA, Amount: amt("30")}, {UserID: userC, Amount: amt("-30")}}, net.NonZero())
}

func TestComputeNet_EmptySplitDetailsCreditsPayerOnly(t *testing.T) {
	net := ComputeNet([]ExpenseRecord{{PaidBy: userA, Amount: amt("12.50")}}, nil)

	assert.Equal(t, NetBalanceMap{userA: amt("12.50")}, net)
	assert.Error(t, CheckBalanced(net))
}

func TestComputeNet_Empty(t *testing.T) {
	net := ComputeNet(nil, nil)
	assert.Empty(t, net)
	assert.NoError(t, CheckBalanced(net))
	assert.Empty(t, Optimize(net))
}

func TestComputeNet_ZeroSum(t *testing.T) {
	participants := []int64{userA, userB, userC, userD}
	var expenses []ExpenseRecord
	for i, total := range []string{"100", "17.03", "0.07", "250.99", "3.33"} {
		amount := amt(total)
		shares, err := split.ComputeShares(amount, participants, split.PolicyEqual, nil)
		require.NoError(t, err)
		expenses = append(expenses, ExpenseRecord{PaidBy: participants[i%len(participants)], Amount: amount, SplitDetails: shares})
	}
	settlements := []SettlementRecord{
		{FromUser: userB, ToUser: userA, Amount: amt("10")},
		{FromUser: userD, ToUser: userC, Amount: amt("0.01")},
	}

	net := ComputeNet(expenses, settlements)
	assert.True(t, net.Total().IsZero())
	assert.NoError(t, CheckBalanced(net))
}

func TestComputeNet_DoesNotMutateInput(t *testing.T) {
	e := dinner(t)
	before := append([]split.Share(nil), e.SplitDetails...)

	ComputeNet([]ExpenseRecord{e}, nil)

	assert.Equal(t, before, e.SplitDetails)
}

func TestSettlementRecord_Validate(t *testing.T) {
	assert.NoError(t, SettlementRecord{FromUser: userA, ToUser: userB, Amount: amt("1")}.Validate())

	err := SettlementRecord{FromUser: userA, ToUser: userA, Amount: amt("1")}.Validate()
	assert.ErrorIs(t, err, ErrSelfSettlement)
	assert.True(t, apperror.IsValidation(err))

	err = SettlementRecord{FromUser: userA, ToUser: userB}.Validate()
	assert.ErrorIs(t, err, ErrNonPositiveSettlement)

	err = SettlementRecord{FromUser: userA, ToUser: userB, Amount: amt("-5")}.Validate()
	assert.ErrorIs(t, err, ErrNonPositiveSettlement)
}

func TestCheckBalanced(t *testing.T) {
	err := CheckBalanced(NetBalanceMap{userA: amt("10"), userB: amt("-9.99")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.True(t, apperror.Is(err, apperror.KindConsistency))
	assert.Contains(t, err.Error(), "0.01")
}

func TestNetBalanceMap_Apply(t *testing.T) {
	net := NetBalanceMap{userA: amt("60"), userB: amt("-30"), userC: amt("-30")}

	after := net.Apply([]Transfer{{From: userB, To: userA, Amount: amt("30")}})

	assert.Equal(t, NetBalanceMap{userA: amt("30"), userB: money.Zero, userC: amt("-30")}, after)
	assert.Equal(t, amt("60"), net[userA], "Apply must not modify the receiver")
}

func TestNetBalanceMap_UserIDs(t *testing.T) {
	net := NetBalanceMap{userC: amt("1"), userA: money.Zero, userB: amt("-1")}
	assert.Equal(t, []int64{userA, userB, userC}, net.UserIDs())
}
