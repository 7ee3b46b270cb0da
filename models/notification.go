package models

import "time"

// Notification is a user-facing message produced by the workflow emitter.
type Notification struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"index;not null"`
	Title     string `gorm:"size:255;not null"`
	Body      string `gorm:"size:512"`
	ReadAt    *time.Time
}
