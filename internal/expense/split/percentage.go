package split

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Policy returns the split policy identifier
func (s *PercentageStrategy) Policy() Policy {
	return PolicyPercentage
}

// Validate checks that every percentage is in range and that they total 100
func (s *PercentageStrategy) Validate(total money.Amount, participants []int64, inputs []ShareInput) error {
	if err := validateBase(total, participants); err != nil {
		return err
	}
	if err := validateInputs(participants, inputs); err != nil {
		return err
	}

	sum := decimal.Zero
	for _, in := range inputs {
		if in.Value.GreaterThan(hundred) {
			return apperror.Validation(ErrPercentageOutOfRange)
		}
		sum = sum.Add(in.Value)
	}
	if sum.Sub(hundred).Abs().GreaterThan(PercentageTolerance) {
		return apperror.Validation(ErrPercentagesMismatch)
	}
	return nil
}

// Compute takes each percentage of total rounded to the cent; the last
// input absorbs the rounding remainder.
func (s *PercentageStrategy) Compute(total money.Amount, participants []int64, inputs []ShareInput) ([]Share, error) {
	if err := s.Validate(total, participants, inputs); err != nil {
		return nil, err
	}

	shares := make([]Share, len(inputs))
	for i, in := range inputs {
		shares[i] = Share{UserID: in.UserID, Amount: total.Percent(in.Value)}
	}

	if err := absorbRemainder(shares, total); err != nil {
		return nil, err
	}
	return shares, nil
}
