package validasi

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// memStore is a mutex-guarded in-memory Store used by the unit tests. Its
// Transition holds the lock across check and write, giving the same
// compare-and-set guarantee as the SQL implementation.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	recs   map[uint]Record
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, recs: make(map[uint]Record)}
}

func (s *memStore) Create(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	s.recs[rec.ID] = *rec
	return nil
}

func (s *memStore) Get(id uint) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := rec
	return &cp, nil
}

func (s *memStore) Update(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recs[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != StatusPending {
		return ErrRecordLocked
	}
	cp := *rec
	cp.Status = cur.Status
	cp.ValidatedBy = cur.ValidatedBy
	cp.ValidatedAt = cur.ValidatedAt
	s.recs[rec.ID] = cp
	return nil
}

func (s *memStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recs[id]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != StatusPending {
		return ErrRecordLocked
	}
	delete(s.recs, id)
	return nil
}

func (s *memStore) Transition(id uint, decision Status, validatorID uint, note string, at time.Time) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recs[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if cur.Status != StatusPending {
		return nil, false, nil
	}
	cur.Status = decision
	v := validatorID
	t := at
	cur.ValidatedBy = &v
	cur.ValidatedAt = &t
	cur.ValidationNote = note
	s.recs[id] = cur
	cp := cur
	return &cp, true, nil
}

func (s *memStore) List(f ListFilter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.recs {
		if f.Status != nil && rec.Status != *f.Status {
			continue
		}
		if f.Kind != nil && rec.Kind != *f.Kind {
			continue
		}
		if f.CreatedBy != nil && rec.CreatedBy != *f.CreatedBy {
			continue
		}
		if f.From != nil && rec.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !rec.OccurredAt.Before(*f.To) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// recordingEmitter captures emissions; failNotify makes Notify fail so tests
// can assert emitter errors never reach the caller.
type recordingEmitter struct {
	mu         sync.Mutex
	audits     []AuditEntry
	notified   map[uint][]string
	failNotify bool
	failAudit  bool
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{notified: make(map[uint][]string)}
}

func (e *recordingEmitter) Audit(entry AuditEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAudit {
		return errors.New("audit sink down")
	}
	e.audits = append(e.audits, entry)
	return nil
}

func (e *recordingEmitter) Notify(userID uint, title, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failNotify {
		return errors.New("notification sink down")
	}
	e.notified[userID] = append(e.notified[userID], title)
	return nil
}
