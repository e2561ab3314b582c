package split

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
)

func in(userID int64, value string) ShareInput {
	return ShareInput{UserID: userID, Value: decimal.RequireFromString(value)}
}

func amounts(shares []Share) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.Amount.String()
	}
	return out
}

func TestComputeShares(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []int64
		policy       Policy
		inputs       []ShareInput
		want         []string
		wantErr      error
	}{
		{
			name:         "equal split gives the remainder to the last participant",
			total:        "100",
			participants: []int64{alice, bob, carol},
			policy:       PolicyEqual,
			want:         []string{"33.33", "33.33", "33.34"},
		},
		{
			name:         "equal split rounding up takes from the last participant",
			total:        "200",
			participants: []int64{alice, bob, carol},
			policy:       PolicyEqual,
			want:         []string{"66.67", "66.67", "66.66"},
		},
		{
			name:         "equal split with a single participant",
			total:        "12.34",
			participants: []int64{alice},
			policy:       PolicyEqual,
			want:         []string{"12.34"},
		},
		{
			name:         "equal split ignores inputs",
			total:        "90",
			participants: []int64{alice, bob, carol},
			policy:       PolicyEqual,
			inputs:       []ShareInput{in(alice, "80")},
			want:         []string{"30.00", "30.00", "30.00"},
		},
		{
			name:         "unequal split with exact amounts",
			total:        "100",
			participants: []int64{alice, bob},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "70"), in(bob, "30")},
			want:         []string{"70.00", "30.00"},
		},
		{
			name:         "unequal split within tolerance adjusts the last share",
			total:        "100",
			participants: []int64{alice, bob, carol},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "33.33"), in(bob, "33.33"), in(carol, "33.30")},
			want:         []string{"33.33", "33.33", "33.34"},
		},
		{
			name:         "unequal split over by tolerance adjusts down",
			total:        "50",
			participants: []int64{alice, bob},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "25.02"), in(bob, "25.03")},
			want:         []string{"25.02", "24.98"},
		},
		{
			name:         "unequal split outside tolerance",
			total:        "100",
			participants: []int64{alice, bob},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "70"), in(bob, "29.94")},
			wantErr:      ErrSharesMismatch,
		},
		{
			name:         "unequal split rounds literal amounts",
			total:        "10",
			participants: []int64{alice, bob},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "3.335"), in(bob, "6.665")},
			want:         []string{"3.34", "6.66"},
		},
		{
			name:         "percentage split",
			total:        "100",
			participants: []int64{alice, bob},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "60"), in(bob, "40")},
			want:         []string{"60.00", "40.00"},
		},
		{
			name:         "percentage split with rounding remainder",
			total:        "10",
			participants: []int64{alice, bob, carol},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "33.33"), in(bob, "33.33"), in(carol, "33.34")},
			want:         []string{"3.33", "3.33", "3.34"},
		},
		{
			name:         "percentage split within tolerance",
			total:        "100",
			participants: []int64{alice, bob, carol},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "33.33"), in(bob, "33.33"), in(carol, "33.33")},
			want:         []string{"33.33", "33.33", "33.34"},
		},
		{
			name:         "percentages summing to 99 are rejected",
			total:        "100",
			participants: []int64{alice, bob},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "60"), in(bob, "39")},
			wantErr:      ErrPercentagesMismatch,
		},
		{
			name:         "negative percentage is rejected",
			total:        "100",
			participants: []int64{alice, bob},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "120"), in(bob, "-20")},
			wantErr:      ErrNegativeValue,
		},
		{
			name:         "single percentage above 100",
			total:        "100",
			participants: []int64{alice},
			policy:       PolicyPercentage,
			inputs:       []ShareInput{in(alice, "100.5")},
			wantErr:      ErrPercentageOutOfRange,
		},
		{
			name:         "empty participants",
			total:        "100",
			participants: nil,
			policy:       PolicyEqual,
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "zero total",
			total:        "0",
			participants: []int64{alice},
			policy:       PolicyEqual,
			wantErr:      ErrNonPositiveTotal,
		},
		{
			name:         "unknown policy",
			total:        "100",
			participants: []int64{alice},
			policy:       Policy("shares"),
			wantErr:      ErrInvalidSplitType,
		},
		{
			name:         "unequal without inputs",
			total:        "100",
			participants: []int64{alice},
			policy:       PolicyUnequal,
			wantErr:      ErrMissingShareInputs,
		},
		{
			name:         "input for a non participant",
			total:        "100",
			participants: []int64{alice},
			policy:       PolicyUnequal,
			inputs:       []ShareInput{in(alice, "50"), in(carol, "50")},
			wantErr:      ErrUnknownParticipant,
		},
		{
			name:         "duplicate participant",
			total:        "100",
			participants: []int64{alice, alice},
			policy:       PolicyEqual,
			wantErr:      ErrDuplicateParticipant,
		},
		{
			name:         "remainder would go negative",
			total:        "0.04",
			participants: []int64{1, 2, 3, 4, 5, 6},
			policy:       PolicyEqual,
			wantErr:      ErrAmountTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := money.MustParse(tt.total)
			shares, err := ComputeShares(total, tt.participants, tt.policy, tt.inputs)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, apperror.IsValidation(err), "expected a validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(shares))
			assert.Equal(t, total, Total(shares))
		})
	}
}

func TestComputeShares_PreservesInputOrder(t *testing.T) {
	shares, err := ComputeShares(money.MustParse("100"), []int64{carol, alice, bob}, PolicyEqual, nil)
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.Equal(t, carol, shares[0].UserID)
	assert.Equal(t, bob, shares[2].UserID)
	assert.Equal(t, money.MustParse("33.34"), shares[2].Amount)
}

func TestComputeShares_SumsToTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(8)
		total := money.Cents(int64(100*n) + rng.Int63n(1_000_000))
		participants := make([]int64, n)
		for j := range participants {
			participants[j] = int64(j + 1)
		}

		equal, err := ComputeShares(total, participants, PolicyEqual, nil)
		require.NoError(t, err)
		assert.Equal(t, total, Total(equal))

		// at least 1% each, in hundredths of a percent, summing to exactly 100
		remaining := int64(10000 - 100*n)
		pcts := make([]ShareInput, n)
		for j := range pcts {
			v := remaining
			if j < n-1 {
				v = rng.Int63n(remaining + 1)
			}
			remaining -= v
			pcts[j] = ShareInput{UserID: participants[j], Value: decimal.New(100+v, -2)}
		}
		byPct, err := ComputeShares(total, participants, PolicyPercentage, pcts)
		require.NoError(t, err)
		assert.Equal(t, total, Total(byPct))
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"equal":        PolicyEqual,
		"EVEN":         PolicyEqual,
		"Unequal":      PolicyUnequal,
		"EXACT":        PolicyUnequal,
		"percentage":   PolicyPercentage,
		" PERCENTAGE ": PolicyPercentage,
	}
	for name, want := range cases {
		got, err := ParsePolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParsePolicy("weighted")
	assert.ErrorIs(t, err, ErrInvalidSplitType)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	for _, p := range []Policy{PolicyEqual, PolicyUnequal, PolicyPercentage} {
		s, err := f.Create(p)
		require.NoError(t, err)
		assert.Equal(t, p, s.Policy())
	}

	s, err := f.CreateFromString("even")
	require.NoError(t, err)
	assert.IsType(t, &EqualStrategy{}, s)
}
