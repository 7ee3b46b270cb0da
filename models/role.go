package models

import "time"

// Role is a master row for the clinic roles (admin, bendahara, petugas,
// dokter, paramedis, manajer).
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}
