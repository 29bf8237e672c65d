package entity

import "time"

type EventType string

const (
	EventView      EventType = "view"
	EventAddToCart EventType = "add_to_cart"
	EventPurchase  EventType = "purchase"

	// SourceProfile labels recommendations drawn from the user's blended profile vector.
	SourceProfile = "profile"
)

// EventTypes lists the behavioural events in the order the pipeline visits them.
var EventTypes = []EventType{EventView, EventAddToCart, EventPurchase}

// Weight is the relative strength of the event as a preference signal.
func (e EventType) Weight() float64 {
	switch e {
	case EventPurchase:
		return 5
	case EventAddToCart:
		return 3
	default:
		return 1
	}
}

func (e EventType) Valid() bool {
	switch e {
	case EventView, EventAddToCart, EventPurchase:
		return true
	}
	return false
}

type Interaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index;not null" json:"user_id"`
	ProductID string    `gorm:"column:product_id;not null" json:"product_id"`
	EventType EventType `gorm:"column:event_type;not null" json:"event_type"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (Interaction) TableName() string { return "interactions" }
