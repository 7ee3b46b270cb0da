package validasi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a financial record.
type Kind string

const (
	KindPendapatan  Kind = "pendapatan"  // income
	KindPengeluaran Kind = "pengeluaran" // expense
	KindTindakan    Kind = "tindakan"    // billable medical procedure
)

func (k Kind) Valid() bool {
	switch k {
	case KindPendapatan, KindPengeluaran, KindTindakan:
		return true
	}
	return false
}

// Status is the validation state of a record. Pending is the only initial
// state; disetujui and ditolak are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDisetujui Status = "disetujui" // approved
	StatusDitolak   Status = "ditolak"   // rejected
)

// Role names as seeded in the roles table.
const (
	RoleAdmin     = "admin"
	RoleBendahara = "bendahara"
	RolePetugas   = "petugas"
	RoleDokter    = "dokter"
	RoleParamedis = "paramedis"
	RoleManajer   = "manajer"
)

// DefaultCategory is applied when a draft is created without a category.
const DefaultCategory = "lainnya"

// Actor is the authenticated identity performing an operation. It is always
// passed in explicitly; the workflow never reads ambient session state.
type Actor struct {
	ID       uint
	Username string
	Roles    []string
}

func (a Actor) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Record is a financial record moving through the validation workflow.
// Amount is exact decimal; never a float.
type Record struct {
	ID             uint
	Kind           Kind
	Amount         decimal.Decimal
	Category       string
	Description    string
	CreatedBy      uint
	OccurredAt     time.Time
	Status         Status
	ValidatedBy    *uint
	ValidatedAt    *time.Time
	ValidationNote string
}

// Draft is the input for creating a record. Category and Description are
// optional and defaulted by the workflow.
type Draft struct {
	Kind        Kind
	Amount      decimal.Decimal
	Category    string
	Description string
	OccurredAt  time.Time
}

// Patch is a partial edit of a pending record. Nil fields are left unchanged.
type Patch struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	OccurredAt  *time.Time
}

// ListFilter narrows List results. Nil fields mean "any".
type ListFilter struct {
	Status    *Status
	Kind      *Kind
	CreatedBy *uint
	From      *time.Time
	To        *time.Time
	Limit     int
}
