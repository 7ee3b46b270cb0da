package models

import "time"

// AuditEntry is one row of the append-only transition log. Rows are only ever
// inserted; there is no update or delete path anywhere in the codebase.
type AuditEntry struct {
	ID          uint   `gorm:"primaryKey"`
	CreatedAt   time.Time
	EventID     string    `gorm:"size:36;not null;uniqueIndex"` // uuid
	TransaksiID uint      `gorm:"index;not null"`
	ActorID     uint      `gorm:"index;not null"`
	FromStatus  string    `gorm:"size:16"` // empty on creation events
	ToStatus    string    `gorm:"size:16;not null"`
	At          time.Time `gorm:"index;not null"`
}
