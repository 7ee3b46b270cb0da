package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaksi is a financial record (pendapatan/pengeluaran/tindakan) moving
// through the validation workflow. Amount is an exact decimal column; status
// and validator fields are only ever written by the workflow.
type Transaksi struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Kind           string          `gorm:"size:32;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Category       string          `gorm:"size:128;not null"`
	Description    string          `gorm:"size:512"`
	CreatedByID    uint            `gorm:"index;not null"`
	CreatedBy      User            `gorm:"foreignKey:CreatedByID;references:ID"`
	OccurredAt     time.Time       `gorm:"index;not null"`
	Status         string          `gorm:"size:16;not null;default:'pending';index"`
	ValidatedByID  *uint           `gorm:"index"`
	ValidatedAt    *time.Time
	ValidationNote string `gorm:"size:512"`
}
