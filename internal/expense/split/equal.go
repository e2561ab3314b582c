package split

import "github.com/fkhayef/settleup/internal/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Policy returns the split policy identifier
func (s *EqualStrategy) Policy() Policy {
	return PolicyEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total money.Amount, participants []int64, _ []ShareInput) error {
	return validateBase(total, participants)
}

// Compute gives every participant total/n rounded to the cent. The last
// participant in the given order absorbs the rounding remainder, so
// 100.00 over three users yields 33.33, 33.33, 33.34. The order dependence
// is deliberate: callers that want a different remainder owner reorder
// the participant list.
func (s *EqualStrategy) Compute(total money.Amount, participants []int64, inputs []ShareInput) ([]Share, error) {
	if err := s.Validate(total, participants, inputs); err != nil {
		return nil, err
	}

	share := total.DivRound(len(participants))

	shares := make([]Share, len(participants))
	for i, userID := range participants {
		shares[i] = Share{UserID: userID, Amount: share}
	}

	if err := absorbRemainder(shares, total); err != nil {
		return nil, err
	}
	return shares, nil
}
