package validasi

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Workflow runs every record mutation through the same pipeline: validate
// input, authorize, mutate atomically, emit audit/notification. It owns the
// store exclusively.
type Workflow struct {
	store   Store
	emitter Emitter
	now     func() time.Time
}

// New builds a workflow. A nil emitter falls back to NopEmitter.
func New(store Store, emitter Emitter) *Workflow {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Workflow{store: store, emitter: emitter, now: time.Now}
}

// kindLabel returns the user-facing Indonesian label for a kind.
func kindLabel(k Kind) string {
	switch k {
	case KindPendapatan:
		return "Pendapatan"
	case KindPengeluaran:
		return "Pengeluaran"
	case KindTindakan:
		return "Tindakan"
	}
	return string(k)
}

// Create enters a new draft. The record always starts pending with empty
// validator fields; category defaults to "lainnya" and a blank description is
// derived from kind and category. The typed amount is kept as-is (legacy
// entry screens sometimes zeroed it; that was a bug, not a rule).
func (w *Workflow) Create(actor Actor, draft Draft) (*Record, error) {
	if !draft.Kind.Valid() {
		return nil, &MissingFieldError{Field: "kind"}
	}
	if actor.ID == 0 {
		return nil, &MissingFieldError{Field: "created_by"}
	}
	if draft.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if g := Authorize(actor, OpCreate, nil, draft.Kind); !g.Allowed {
		return nil, &ForbiddenError{Reason: g.Reason}
	}

	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = DefaultCategory
	}
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		description = fmt.Sprintf("%s %s", kindLabel(draft.Kind), category)
	}
	occurredAt := draft.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = w.now()
	}

	rec := &Record{
		Kind:        draft.Kind,
		Amount:      draft.Amount,
		Category:    category,
		Description: description,
		CreatedBy:   actor.ID,
		OccurredAt:  occurredAt,
		Status:      StatusPending,
	}
	if err := w.store.Create(rec); err != nil {
		return nil, err
	}

	w.emit(AuditEntry{RecordID: rec.ID, ActorID: actor.ID, ToStatus: StatusPending, At: w.now()})
	w.notify(actor.ID, fmt.Sprintf("%s tercatat", kindLabel(rec.Kind)),
		fmt.Sprintf("%s sebesar Rp%s menunggu validasi bendahara.", kindLabel(rec.Kind), rec.Amount.StringFixed(2)))
	return rec, nil
}

// Edit applies a partial update to a pending draft. Status and validator
// fields are never touched here.
func (w *Workflow) Edit(actor Actor, id uint, patch Patch) (*Record, error) {
	rec, err := w.store.Get(id)
	if err != nil {
		return nil, err
	}
	if g := Authorize(actor, OpEdit, rec, rec.Kind); !g.Allowed {
		return nil, denialError(g.Reason)
	}
	if patch.Amount != nil {
		if patch.Amount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		rec.Amount = *patch.Amount
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) != "" {
		rec.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		rec.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.OccurredAt != nil && !patch.OccurredAt.IsZero() {
		rec.OccurredAt = *patch.OccurredAt
	}
	if err := w.store.Update(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a pending draft. Validated records cannot be deleted through
// the workflow at all.
func (w *Workflow) Delete(actor Actor, id uint) error {
	rec, err := w.store.Get(id)
	if err != nil {
		return err
	}
	if g := Authorize(actor, OpDelete, rec, rec.Kind); !g.Allowed {
		return denialError(g.Reason)
	}
	return w.store.Delete(id)
}

// Validate decides a pending record exactly once. The precondition check and
// the status flip happen in one compare-and-set inside the store, so of two
// concurrent validators exactly one wins and the other gets
// ErrAlreadyValidated.
func (w *Workflow) Validate(actor Actor, id uint, decision Status, note string) (*Record, error) {
	if decision != StatusDisetujui && decision != StatusDitolak {
		return nil, ErrInvalidDecision
	}
	rec, err := w.store.Get(id)
	if err != nil {
		return nil, err
	}
	if g := Authorize(actor, OpValidate, rec, rec.Kind); !g.Allowed {
		if g.Reason == ReasonRecordLocked {
			return nil, ErrAlreadyValidated
		}
		return nil, &ForbiddenError{Reason: g.Reason}
	}

	at := w.now()
	updated, applied, err := w.store.Transition(id, decision, actor.ID, note, at)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrAlreadyValidated
	}

	w.emit(AuditEntry{RecordID: id, ActorID: actor.ID, FromStatus: StatusPending, ToStatus: decision, At: at})
	verdict := "disetujui"
	if decision == StatusDitolak {
		verdict = "ditolak"
	}
	title := fmt.Sprintf("%s %s", kindLabel(updated.Kind), verdict)
	body := fmt.Sprintf("%s %q sebesar Rp%s %s oleh bendahara.",
		kindLabel(updated.Kind), updated.Category, updated.Amount.StringFixed(2), verdict)
	w.notify(actor.ID, title, body)
	if updated.CreatedBy != actor.ID {
		w.notify(updated.CreatedBy, title, body)
	}
	return updated, nil
}

// Get returns a single record or ErrNotFound.
func (w *Workflow) Get(id uint) (*Record, error) {
	return w.store.Get(id)
}

// List returns records matching f in occurred_at desc, id asc order.
func (w *Workflow) List(f ListFilter) ([]Record, error) {
	return w.store.List(f)
}

// denialError maps a gate denial to the workflow error surface. Lock denials
// surface as ErrRecordLocked so callers see one error for "too late" whether
// it came from the gate or the store.
func denialError(reason DenyReason) error {
	if reason == ReasonRecordLocked {
		return ErrRecordLocked
	}
	return &ForbiddenError{Reason: reason}
}

// emit and notify are best-effort: failures are logged, never propagated.
func (w *Workflow) emit(e AuditEntry) {
	if err := w.emitter.Audit(e); err != nil {
		log.Printf("validasi: audit emit failed for record %d: %v", e.RecordID, err)
	}
}

func (w *Workflow) notify(userID uint, title, body string) {
	if err := w.emitter.Notify(userID, title, body); err != nil {
		log.Printf("validasi: notify user %d failed: %v", userID, err)
	}
}
