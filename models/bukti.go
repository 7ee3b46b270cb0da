package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bukti is an uploaded proof-of-expense file (receipt, invoice photo). OCR
// may attach a suggested amount; the suggestion never overwrites the draft,
// the treasurer compares it against the typed amount during validation.
type Bukti struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string  `gorm:"size:255;not null"`
	StorePath   string  `gorm:"column:store_path;size:512"` // public relative path (e.g. public/bukti/xxx.jpg)
	ProfileID   uint    `gorm:"index;not null"`
	Profile     Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ContentType string  `gorm:"size:128"`
	TransaksiID *uint   `gorm:"index"` // expense record this proof belongs to (nullable)

	SuggestedAmount decimal.NullDecimal `gorm:"type:decimal(16,2)"`
	OCRConfidence   float64             `gorm:"default:0"`

	// Mark the file as failed for OCR so the treasurer can still review it by eye.
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
