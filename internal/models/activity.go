package models

import "time"

// Activity statuses.
const (
	ActivityStatusUpcoming  = "upcoming"
	ActivityStatusOngoing   = "ongoing"
	ActivityStatusCompleted = "completed"
)

// ActivityCategories is the fixed set of categories accepted on creation.
var ActivityCategories = []string{"academic", "sports", "arts", "volunteer", "social"}

// Activity represents a capacity-limited activity students apply to.
// Enrolled is mutated only through the application lifecycle; see
// ActivityRepository.IncrementEnrolled / DecrementEnrolled.
type Activity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:64;not null" json:"category"`
	Location    string    `gorm:"size:255" json:"location"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Enrolled    int       `gorm:"not null;default:0" json:"enrolled"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Status      string    `gorm:"size:16;not null;default:upcoming" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsFull reports whether no seats remain.
func (a Activity) IsFull() bool {
	return a.Enrolled >= a.Capacity
}

// ValidActivityCategory reports whether category belongs to the fixed enumeration.
func ValidActivityCategory(category string) bool {
	for _, c := range ActivityCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidActivityStatus reports whether status is a known activity status.
func ValidActivityStatus(status string) bool {
	switch status {
	case ActivityStatusUpcoming, ActivityStatusOngoing, ActivityStatusCompleted:
		return true
	}
	return false
}
