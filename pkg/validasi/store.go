package validasi

import "time"

// Store is the persistence port for the workflow. The workflow is the only
// writer; everything else (emitter, reporting) reads.
//
// Implementations must keep each mutation atomic: a caller either observes
// the full transition (status + validator stamp) or none of it.
type Store interface {
	// Create persists a new record and assigns its id.
	Create(rec *Record) error

	// Get returns the record or ErrNotFound.
	Get(id uint) (*Record, error)

	// Update rewrites the mutable fields of a pending record. It must guard
	// on status: if the record is no longer pending the update is rejected
	// with ErrRecordLocked and nothing changes.
	Update(rec *Record) error

	// Delete removes a pending record. Returns ErrRecordLocked if the record
	// already left pending, ErrNotFound if it does not exist.
	Delete(id uint) error

	// Transition atomically flips a pending record to the decided status,
	// stamping validator id, note, and time. It must be a compare-and-set on
	// status = pending: when the record was concurrently decided, applied is
	// false and the stored record is untouched.
	Transition(id uint, decision Status, validatorID uint, note string, at time.Time) (rec *Record, applied bool, err error)

	// List returns records matching f, ordered by occurred_at descending and
	// id ascending on ties.
	List(f ListFilter) ([]Record, error)
}
