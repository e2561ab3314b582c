package notification

import "time"

// Notification represents a notification in the system
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// EntityType names the record a notification points at
type EntityType string

const (
	EntityExpense    EntityType = "EXPENSE"
	EntitySettlement EntityType = "SETTLEMENT"
)

// draft is a notification not yet stored
type draft struct {
	RecipientID int64
	Message     string
	EntityType  EntityType
	EntityID    int64
}
