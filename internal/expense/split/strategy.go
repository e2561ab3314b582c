package split

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/settleup/internal/money"
	"github.com/fkhayef/settleup/pkg/apperror"
)

// Policy names the rule used to divide an expense among participants
type Policy string

const (
	PolicyEqual      Policy = "equal"
	PolicyUnequal    Policy = "unequal"
	PolicyPercentage Policy = "percentage"
)

// Tolerances applied before the remainder correction.
var (
	UnequalTolerance    = money.Cents(5)
	PercentageTolerance = decimal.New(1, -2)
)

var hundred = decimal.NewFromInt(100)

var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNonPositiveTotal     = errors.New("total amount must be positive")
	ErrInvalidSplitType     = errors.New("invalid split type")
	ErrSharesMismatch       = errors.New("shares do not sum to total")
	ErrPercentagesMismatch  = errors.New("percentages must total 100%")
	ErrMissingShareInputs   = errors.New("share inputs are required for this split type")
	ErrNegativeValue        = errors.New("share values cannot be negative")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrUnknownParticipant   = errors.New("share input references a user who is not a participant")
	ErrDuplicateParticipant = errors.New("user listed more than once")
	ErrAmountTooSmall       = errors.New("amount too small to split")
)

// ShareInput carries the policy-specific value for one user: a literal
// amount for the unequal policy, a percentage (0-100) for the percentage policy.
type ShareInput struct {
	UserID int64           `json:"user_id"`
	Value  decimal.Decimal `json:"value"`
}

// Share is the computed portion of an expense owed by one user
type Share struct {
	UserID int64        `json:"user_id"`
	Amount money.Amount `json:"amount"`
}

// Strategy is implemented by every split policy
type Strategy interface {
	// Compute returns shares that sum exactly to total
	Compute(total money.Amount, participants []int64, inputs []ShareInput) ([]Share, error)

	// Policy returns the policy this strategy implements
	Policy() Policy

	// Validate checks the inputs without computing shares
	Validate(total money.Amount, participants []int64, inputs []ShareInput) error
}

// Factory creates split strategies based on the requested policy
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementing policy
func (f *Factory) Create(policy Policy) (Strategy, error) {
	switch policy {
	case PolicyEqual:
		return &EqualStrategy{}, nil
	case PolicyUnequal:
		return &UnequalStrategy{}, nil
	case PolicyPercentage:
		return &PercentageStrategy{}, nil
	default:
		return nil, apperror.Validation(ErrInvalidSplitType)
	}
}

// CreateFromString resolves a policy name from an API request
func (f *Factory) CreateFromString(name string) (Strategy, error) {
	policy, err := ParsePolicy(name)
	if err != nil {
		return nil, err
	}
	return f.Create(policy)
}

// ParsePolicy normalizes a policy name. The EVEN and EXACT names of the
// earlier API are accepted as aliases.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "equal", "even":
		return PolicyEqual, nil
	case "unequal", "exact":
		return PolicyUnequal, nil
	case "percentage":
		return PolicyPercentage, nil
	default:
		return "", apperror.Validation(ErrInvalidSplitType)
	}
}

var defaultFactory = NewFactory()

// ComputeShares divides total among participants under policy. For the
// unequal and percentage policies inputs supply the per-user values and
// define the share order; for the equal policy inputs are ignored.
// Every failure is a validation error.
func ComputeShares(total money.Amount, participants []int64, policy Policy, inputs []ShareInput) ([]Share, error) {
	strategy, err := defaultFactory.Create(policy)
	if err != nil {
		return nil, err
	}
	return strategy.Compute(total, participants, inputs)
}

// Total sums the amounts of shares.
func Total(shares []Share) money.Amount {
	var total money.Amount
	for _, s := range shares {
		total += s.Amount
	}
	return total
}

func validateBase(total money.Amount, participants []int64) error {
	if len(participants) == 0 {
		return apperror.Validation(ErrNoParticipants)
	}
	if !total.IsPositive() {
		return apperror.Validation(ErrNonPositiveTotal)
	}
	seen := make(map[int64]struct{}, len(participants))
	for _, id := range participants {
		if _, dup := seen[id]; dup {
			return apperror.Validation(ErrDuplicateParticipant)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// validateInputs checks that every input names a distinct participant and
// carries a non-negative value.
func validateInputs(participants []int64, inputs []ShareInput) error {
	if len(inputs) == 0 {
		return apperror.Validation(ErrMissingShareInputs)
	}
	allowed := make(map[int64]struct{}, len(participants))
	for _, id := range participants {
		allowed[id] = struct{}{}
	}
	seen := make(map[int64]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := allowed[in.UserID]; !ok {
			return apperror.Validation(ErrUnknownParticipant)
		}
		if _, dup := seen[in.UserID]; dup {
			return apperror.Validation(ErrDuplicateParticipant)
		}
		seen[in.UserID] = struct{}{}
		if in.Value.IsNegative() {
			return apperror.Validation(ErrNegativeValue)
		}
	}
	return nil
}

// absorbRemainder moves the difference between total and the sum of shares
// onto the last share, so the result sums exactly to total.
func absorbRemainder(shares []Share, total money.Amount) error {
	last := len(shares) - 1
	shares[last].Amount += total - Total(shares)
	if shares[last].Amount.IsNegative() {
		return apperror.Validation(ErrAmountTooSmall)
	}
	return nil
}
