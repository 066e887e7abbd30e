package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is message from restaurant to user. Nil recipient means broadcast.
type Notification struct {
	ID          uuid.UUID
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
	Title       string
	Body        string
	TTLMinutes  int
	CreatedAt   time.Time
	// SenderName is restaurant name, filled in user inbox listings
	SenderName string
}
