package models

import "time"

// Profile holds employee (pegawai) data, one-to-one with User.
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	// Active marks whether the pegawai is still employed. Soft state instead
	// of deleting the row. Defaults to true.
	Active  bool   `gorm:"default:true;not null"`
	UserID  uint   `gorm:"uniqueIndex;not null"` // one-to-one relation
	User    User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name    string `gorm:"size:255;not null"` // mandatory
	NIP     string `gorm:"size:64"`           // employee number
	Address string `gorm:"size:512"`
	Email   string `gorm:"size:255"`
	Phone   string `gorm:"size:64"`
	Jabatan string `gorm:"size:255"` // position, e.g. "Perawat Pelaksana"
	// Bukti is a one-to-many relation from Profile to uploaded proofs
	Bukti []Bukti `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
