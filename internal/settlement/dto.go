package settlement

import (
	"github.com/fkhayef/settleup/internal/money"
)

// CreateSettlementRequest represents the request to record a settlement.
// FromUser is the user who paid; ToUser received the money.
type CreateSettlementRequest struct {
	GroupID  *int64       `json:"group_id,omitempty" validate:"omitempty,gt=0"`
	FromUser int64        `json:"from_user" validate:"required,gt=0"`
	ToUser   int64        `json:"to_user" validate:"required,gt=0"`
	Amount   money.Amount `json:"amount" swaggertype:"number"`
	Note     *string      `json:"note,omitempty" validate:"omitempty,max=500"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID        int64        `json:"id"`
	GroupID   *int64       `json:"group_id"`
	FromUser  int64        `json:"from_user"`
	ToUser    int64        `json:"to_user"`
	Amount    money.Amount `json:"amount" swaggertype:"number"`
	Note      *string      `json:"note"`
	CreatedBy int64        `json:"created_by"`
	CreatedAt string       `json:"created_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:        s.ID,
		GroupID:   s.GroupID,
		FromUser:  s.FromUser,
		ToUser:    s.ToUser,
		Amount:    s.Amount,
		Note:      s.Note,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toResponses(settlements []*Settlement) []*SettlementResponse {
	out := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = s.ToResponse()
	}
	return out
}
