package main

import (
	"errors"
	"time"

	"dokterku/models"
	"dokterku/pkg/validasi"

	"gorm.io/gorm"
)

// gormStore implements validasi.Store on Postgres. Every status-sensitive
// write is a guarded UPDATE/DELETE with `status = 'pending'` in the WHERE
// clause, so the precondition check and the mutation are one atomic
// statement and a lost race surfaces as zero affected rows.
type gormStore struct {
	db *gorm.DB
}

func newGormStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func toRecord(m *models.Transaksi) *validasi.Record {
	return &validasi.Record{
		ID:             m.ID,
		Kind:           validasi.Kind(m.Kind),
		Amount:         m.Amount,
		Category:       m.Category,
		Description:    m.Description,
		CreatedBy:      m.CreatedByID,
		OccurredAt:     m.OccurredAt,
		Status:         validasi.Status(m.Status),
		ValidatedBy:    m.ValidatedByID,
		ValidatedAt:    m.ValidatedAt,
		ValidationNote: m.ValidationNote,
	}
}

func storeErr(op string, err error) error {
	return &validasi.StoreError{Op: op, Err: err}
}

func (s *gormStore) Create(rec *validasi.Record) error {
	m := models.Transaksi{
		Kind:        string(rec.Kind),
		Amount:      rec.Amount,
		Category:    rec.Category,
		Description: rec.Description,
		CreatedByID: rec.CreatedBy,
		OccurredAt:  rec.OccurredAt,
		Status:      string(rec.Status),
	}
	if err := s.db.Create(&m).Error; err != nil {
		return storeErr("create", err)
	}
	rec.ID = m.ID
	return nil
}

func (s *gormStore) Get(id uint) (*validasi.Record, error) {
	var m models.Transaksi
	if err := s.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validasi.ErrNotFound
		}
		return nil, storeErr("get", err)
	}
	return toRecord(&m), nil
}

func (s *gormStore) Update(rec *validasi.Record) error {
	res := s.db.Model(&models.Transaksi{}).
		Where("id = ? AND status = ?", rec.ID, string(validasi.StatusPending)).
		Updates(map[string]any{
			"amount":      rec.Amount,
			"category":    rec.Category,
			"description": rec.Description,
			"occurred_at": rec.OccurredAt,
		})
	if res.Error != nil {
		return storeErr("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missOrLocked(rec.ID)
	}
	return nil
}

func (s *gormStore) Delete(id uint) error {
	res := s.db.Where("id = ? AND status = ?", id, string(validasi.StatusPending)).
		Delete(&models.Transaksi{})
	if res.Error != nil {
		return storeErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missOrLocked(id)
	}
	return nil
}

func (s *gormStore) Transition(id uint, decision validasi.Status, validatorID uint, note string, at time.Time) (*validasi.Record, bool, error) {
	res := s.db.Model(&models.Transaksi{}).
		Where("id = ? AND status = ?", id, string(validasi.StatusPending)).
		Updates(map[string]any{
			"status":          string(decision),
			"validated_by_id": validatorID,
			"validated_at":    at,
			"validation_note": note,
		})
	if res.Error != nil {
		return nil, false, storeErr("transition", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either gone or already decided; distinguish for the caller.
		if _, err := s.Get(id); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	rec, err := s.Get(id)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *gormStore) List(f validasi.ListFilter) ([]validasi.Record, error) {
	q := s.db.Model(&models.Transaksi{})
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", string(*f.Kind))
	}
	if f.CreatedBy != nil {
		q = q.Where("created_by_id = ?", *f.CreatedBy)
	}
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at < ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	var items []models.Transaksi
	if err := q.Order("occurred_at DESC, id ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, storeErr("list", err)
	}
	out := make([]validasi.Record, 0, len(items))
	for i := range items {
		out = append(out, *toRecord(&items[i]))
	}
	return out, nil
}

// missOrLocked explains a zero-rows guarded write: the record is either gone
// or no longer pending.
func (s *gormStore) missOrLocked(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return validasi.ErrRecordLocked
}
