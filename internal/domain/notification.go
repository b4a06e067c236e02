package domain

import "time"

type NotificationType string

const (
	NotificationDonationReceived NotificationType = "DONATION_RECEIVED"
)

// Notification is a message queued for a platform user. Delivery is
// fire-and-forget from the ledger's perspective.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
