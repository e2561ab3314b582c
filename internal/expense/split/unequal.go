package split

import (
	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

// =============================================================================
// UNEQUAL SPLIT STRATEGY
// Each participant owes a literal amount; the amounts must add up to the total
// =============================================================================

// UnequalStrategy implements the Strategy interface for literal amount splits
type UnequalStrategy struct{}

// Policy returns the split policy identifier
func (s *UnequalStrategy) Policy() Policy {
	return PolicyUnequal
}

// Validate checks that the literal amounts are within UnequalTolerance of total
func (s *UnequalStrategy) Validate(total money.Amount, participants []int64, inputs []ShareInput) error {
	if err := validateBase(total, participants); err != nil {
		return err
	}
	if err := validateInputs(participants, inputs); err != nil {
		return err
	}

	var sum money.Amount
	for _, in := range inputs {
		sum += money.FromDecimal(in.Value)
	}
	if (total - sum).Abs() > UnequalTolerance {
		return apperror.Validation(ErrSharesMismatch)
	}
	return nil
}

// Compute rounds each literal amount to the cent and lets the last input
// absorb the small difference that remains.
func (s *UnequalStrategy) Compute(total money.Amount, participants []int64, inputs []ShareInput) ([]Share, error) {
	if err := s.Validate(total, participants, inputs); err != nil {
		return nil, err
	}

	shares := make([]Share, len(inputs))
	for i, in := range inputs {
		shares[i] = Share{UserID: in.UserID, Amount: money.FromDecimal(in.Value)}
	}

	if err := absorbRemainder(shares, total); err != nil {
		return nil, err
	}
	return shares, nil
}
