package validasi

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned when a draft or patch carries a negative amount.
var ErrInvalidAmount = errors.New("amount must be non-negative")

// ErrRecordLocked is returned on any mutation of a record that already left
// the pending state. Validated records are immutable.
var ErrRecordLocked = errors.New("record is no longer pending")

// ErrAlreadyValidated is returned when a validate call loses the race: the
// record was pending when read but decided by someone else before the write.
// A second validation is an error, never a silent no-op.
var ErrAlreadyValidated = errors.New("record already validated")

// ErrInvalidDecision is returned when a validate call carries a decision other
// than disetujui or ditolak.
var ErrInvalidDecision = errors.New("decision must be disetujui or ditolak")

// ErrNotFound is returned by stores when no record has the given id.
var ErrNotFound = errors.New("record not found")

// MissingFieldError reports a required draft field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// DenyReason is the machine-readable reason attached to every gate denial so
// the UI can show a specific message instead of a generic failure.
type DenyReason string

const (
	ReasonNotOwner       DenyReason = "not_owner"
	ReasonNotStaffRole   DenyReason = "not_staff_role"
	ReasonNotValidator   DenyReason = "not_validator_role"
	ReasonRecordLocked   DenyReason = "record_locked"
	ReasonSelfValidation DenyReason = "self_validation"
)

// ForbiddenError is an authorization denial from the gate.
type ForbiddenError struct {
	Reason DenyReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// StoreError wraps a transient record-store failure. Callers may retry with
// backoff; the workflow itself never retries (a hidden retry could apply a
// transition twice).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
