package validasi

import "time"

// AuditEntry is one immutable line of the append-only transition log.
type AuditEntry struct {
	EventID    string // globally unique, assigned by the emitter backend
	RecordID   uint
	ActorID    uint
	FromStatus Status // empty on creation
	ToStatus   Status
	At         time.Time
}

// Emitter receives audit entries and user notifications after a successful
// transition. Both calls are best-effort side channels: the workflow logs and
// swallows their errors, so an implementation may fail without affecting the
// transition that triggered it.
type Emitter interface {
	Audit(e AuditEntry) error
	Notify(userID uint, title, body string) error
}

// NopEmitter discards everything. Useful for CLIs that only read.
type NopEmitter struct{}

func (NopEmitter) Audit(AuditEntry) error            { return nil }
func (NopEmitter) Notify(uint, string, string) error { return nil }
