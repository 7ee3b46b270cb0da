package validasi

// Operation is an intent checked by the gate before the workflow mutates
// anything.
type Operation string

const (
	OpCreate   Operation = "create"
	OpEdit     Operation = "edit"
	OpDelete   Operation = "delete"
	OpValidate Operation = "validate"
)

// GateResult is the outcome of an authorization check. A denial always
// carries a reason.
type GateResult struct {
	Allowed bool
	Reason  DenyReason
}

func allow() GateResult                 { return GateResult{Allowed: true} }
func deny(reason DenyReason) GateResult { return GateResult{Reason: reason} }

// canCreateKind reports whether the actor's roles permit entering a draft of
// the given kind. Dokter and paramedis may only record their own tindakan.
func canCreateKind(actor Actor, kind Kind) bool {
	if actor.HasRole(RolePetugas) || actor.HasRole(RoleAdmin) {
		return true
	}
	if kind == KindTindakan && (actor.HasRole(RoleDokter) || actor.HasRole(RoleParamedis)) {
		return true
	}
	return false
}

// Authorize decides whether actor may perform op. It is a pure function of
// its inputs: no store access, no session state. rec may be nil for OpCreate;
// every other operation requires the record being acted on.
//
// Validation checks identity before role, so a bendahara validating their own
// draft is denied as self-validation rather than passed on role.
func Authorize(actor Actor, op Operation, rec *Record, kind Kind) GateResult {
	switch op {
	case OpCreate:
		if !canCreateKind(actor, kind) {
			return deny(ReasonNotStaffRole)
		}
		return allow()

	case OpEdit, OpDelete:
		if rec.Status != StatusPending {
			return deny(ReasonRecordLocked)
		}
		if rec.CreatedBy != actor.ID && !actor.HasRole(RoleAdmin) {
			return deny(ReasonNotOwner)
		}
		return allow()

	case OpValidate:
		if rec.Status != StatusPending {
			return deny(ReasonRecordLocked)
		}
		if rec.CreatedBy == actor.ID {
			return deny(ReasonSelfValidation)
		}
		if !actor.HasRole(RoleBendahara) && !actor.HasRole(RoleAdmin) {
			return deny(ReasonNotValidator)
		}
		return allow()
	}
	return deny(ReasonNotStaffRole)
}
