package models

import "time"

// Notification types.
const (
	NotificationTypeApproval     = "approval"
	NotificationTypeRejection    = "rejection"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeReminder     = "reminder"
)

// Notification is a persisted message targeted at a single recipient.
// Rows are created by the fanout service and only ever mutated to flip Read.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Title       string    `gorm:"size:255" json:"title"`
	Message     string    `gorm:"type:text" json:"message"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
