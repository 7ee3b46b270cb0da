package main

import (
	"dokterku/models"
	"dokterku/pkg/validasi"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormEmitter writes audit entries and notifications. The workflow treats
// both as best-effort, so failures here only end up in the log.
type gormEmitter struct {
	db *gorm.DB
}

func newGormEmitter(db *gorm.DB) *gormEmitter {
	return &gormEmitter{db: db}
}

func (e *gormEmitter) Audit(entry validasi.AuditEntry) error {
	row := models.AuditEntry{
		EventID:     uuid.NewString(),
		TransaksiID: entry.RecordID,
		ActorID:     entry.ActorID,
		FromStatus:  string(entry.FromStatus),
		ToStatus:    string(entry.ToStatus),
		At:          entry.At,
	}
	return e.db.Create(&row).Error
}

func (e *gormEmitter) Notify(userID uint, title, body string) error {
	row := models.Notification{UserID: userID, Title: title, Body: body}
	return e.db.Create(&row).Error
}
