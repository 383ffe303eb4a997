package models

import "time"

type NotificationType string

const (
	NotificationTypeWelcome       NotificationType = "welcome"
	NotificationTypeFeatureUpdate NotificationType = "feature_update"
	NotificationTypeCreditLow     NotificationType = "credit_low"
	NotificationTypeSystem        NotificationType = "system"
)

// Notification is a per-user account event record. Rows are append-only;
// the only mutation the API exposes is flipping Read to true.
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"-"`
	Type      NotificationType `gorm:"not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"not null" json:"message"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
