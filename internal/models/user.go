package models

import "time"

type User struct {
	ID            uint `gorm:"primarykey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Username      string         `gorm:"uniqueIndex;not null"`
	Password      string         `gorm:"not null"`
	Role          string         `gorm:"not null;default:'user'"`
	Credits       int64          `gorm:"not null;default:0"`
	Notifications []Notification `gorm:"constraint:OnDelete:CASCADE"`
}
