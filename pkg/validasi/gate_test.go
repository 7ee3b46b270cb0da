package validasi

import "testing"

func TestAuthorizeTable(t *testing.T) {
	pendingOf := func(creator uint) *Record {
		return &Record{ID: 10, CreatedBy: creator, Status: StatusPending, Kind: KindPengeluaran}
	}
	decided := &Record{ID: 11, CreatedBy: 1, Status: StatusDisetujui, Kind: KindPengeluaran}

	cases := []struct {
		name    string
		actor   Actor
		op      Operation
		rec     *Record
		kind    Kind
		allowed bool
		reason  DenyReason
	}{
		{"petugas creates any kind", petugasA, OpCreate, nil, KindPendapatan, true, ""},
		{"paramedis creates tindakan", Actor{ID: 9, Roles: []string{RoleParamedis}}, OpCreate, nil, KindTindakan, true, ""},
		{"paramedis cannot create pengeluaran", Actor{ID: 9, Roles: []string{RoleParamedis}}, OpCreate, nil, KindPengeluaran, false, ReasonNotStaffRole},
		{"bendahara cannot create", bendaharaT, OpCreate, nil, KindPendapatan, false, ReasonNotStaffRole},

		{"creator edits own pending", petugasA, OpEdit, pendingOf(1), KindPengeluaran, true, ""},
		{"other staff cannot edit", petugasB, OpEdit, pendingOf(1), KindPengeluaran, false, ReasonNotOwner},
		{"admin may edit any pending", Actor{ID: 99, Roles: []string{RoleAdmin}}, OpEdit, pendingOf(1), KindPengeluaran, true, ""},
		{"nobody edits decided", petugasA, OpEdit, decided, KindPengeluaran, false, ReasonRecordLocked},
		{"creator deletes own pending", petugasA, OpDelete, pendingOf(1), KindPengeluaran, true, ""},
		{"nobody deletes decided", petugasA, OpDelete, decided, KindPengeluaran, false, ReasonRecordLocked},

		{"bendahara validates pending", bendaharaT, OpValidate, pendingOf(1), KindPengeluaran, true, ""},
		{"petugas cannot validate", petugasB, OpValidate, pendingOf(1), KindPengeluaran, false, ReasonNotValidator},
		{"creator cannot self-validate even with role", rangkap, OpValidate, pendingOf(rangkap.ID), KindPengeluaran, false, ReasonSelfValidation},
		{"validate decided is locked", bendaharaT, OpValidate, decided, KindPengeluaran, false, ReasonRecordLocked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Authorize(tc.actor, tc.op, tc.rec, tc.kind)
			if got.Allowed != tc.allowed {
				t.Fatalf("allowed = %v want %v (reason %s)", got.Allowed, tc.allowed, got.Reason)
			}
			if !tc.allowed && got.Reason != tc.reason {
				t.Fatalf("reason = %s want %s", got.Reason, tc.reason)
			}
		})
	}
}
