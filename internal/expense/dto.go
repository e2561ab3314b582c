package expense

import (
	"time"

	"github.com/fkhayef/settleup/internal/expense/split"
	"github.com/fkhayef/settleup/internal/money"
)

// CreateExpenseRequest represents the request to create an expense.
// Participants define the split order. SplitDetails carry the amount
// (unequal) or percentage (percentage) per user and are ignored for
// equal splits.
type CreateExpenseRequest struct {
	GroupID      *int64             `json:"group_id,omitempty" validate:"omitempty,gt=0"`
	PaidBy       *int64             `json:"paid_by,omitempty" validate:"omitempty,gt=0"`
	Description  string             `json:"description" validate:"required,min=1,max=255"`
	Amount       money.Amount       `json:"amount" validate:"gt=0"`
	SplitType    string             `json:"split_type" validate:"required"`
	Participants []int64            `json:"participants" validate:"required,min=1,dive,gt=0"`
	SplitDetails []split.ShareInput `json:"split_details,omitempty"`
	Notes        *string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ExpenseDate  *time.Time         `json:"expense_date,omitempty"`
}

// UpdateExpenseRequest represents the request to edit an expense. Omitted
// fields keep their value; when any of amount, split type, participants or
// split details changes, the splits are recomputed.
type UpdateExpenseRequest struct {
	Description  *string            `json:"description,omitempty" validate:"omitempty,min=1,max=255"`
	Amount       *money.Amount      `json:"amount,omitempty"`
	SplitType    *string            `json:"split_type,omitempty"`
	Participants []int64            `json:"participants,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	SplitDetails []split.ShareInput `json:"split_details,omitempty"`
	Notes        *string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ExpenseDate  *time.Time         `json:"expense_date,omitempty"`
}

// resplits reports whether the update touches the split computation
func (r *UpdateExpenseRequest) resplits() bool {
	return r.Amount != nil || r.SplitType != nil || r.Participants != nil || r.SplitDetails != nil
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID          int64            `json:"id"`
	GroupID     *int64           `json:"group_id"`
	PaidBy      int64            `json:"paid_by"`
	PayerName   string           `json:"payer_name,omitempty"`
	Description string           `json:"description"`
	Amount      money.Amount     `json:"amount" swaggertype:"number"`
	SplitType   split.Policy     `json:"split_type" swaggertype:"string"`
	Notes       *string          `json:"notes,omitempty"`
	ExpenseDate string           `json:"expense_date"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	Splits      []*SplitResponse `json:"split_details"`
}

// SplitResponse represents one participant's share
type SplitResponse struct {
	UserID int64        `json:"user_id"`
	Amount money.Amount `json:"amount" swaggertype:"number"`
}

const timeLayout = "2006-01-02T15:04:05Z"

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	splits := make([]*SplitResponse, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &SplitResponse{UserID: s.UserID, Amount: s.Amount}
	}

	return &ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PaidBy:      e.PaidBy,
		PayerName:   e.PayerName,
		Description: e.Description,
		Amount:      e.Amount,
		SplitType:   e.SplitType,
		Notes:       e.Notes,
		ExpenseDate: e.ExpenseDate.UTC().Format(timeLayout),
		CreatedAt:   e.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:   e.UpdatedAt.UTC().Format(timeLayout),
		Splits:      splits,
	}
}

func toResponses(expenses []*Expense) []*ExpenseResponse {
	out := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = e.ToResponse()
	}
	return out
}
