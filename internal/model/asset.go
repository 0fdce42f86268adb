package model

import (
	"fmt"
	"time"
)

// Asset statuses
const (
	AssetStatusActive   = "Active"
	AssetStatusRetired  = "Retired"
	AssetStatusInRepair = "InRepair"
)

// DeadlineKind selects which deadline field of an asset drives a reminder.
type DeadlineKind string

const (
	DeadlineInspection  DeadlineKind = "inspection"
	DeadlineMaintenance DeadlineKind = "maintenance"
)

func (k DeadlineKind) String() string {
	return string(k)
}

// Column returns the extinguishers column holding this deadline.
func (k DeadlineKind) Column() (string, error) {
	switch k {
	case DeadlineInspection:
		return "next_inspection", nil
	case DeadlineMaintenance:
		return "next_maintenance", nil
	default:
		return "", fmt.Errorf("unknown deadline kind %q", string(k))
	}
}

// Extinguisher is the tracked fire-safety asset. Read-only here; the two
// nullable deadline fields are the only reminder inputs.
type Extinguisher struct {
	ID              string     `db:"id" json:"id"`
	Location        string     `db:"location" json:"location"`
	Building        string     `db:"building" json:"building"`
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	Status          string     `db:"status" json:"status"`
	NextInspection  *time.Time `db:"next_inspection" json:"next_inspection,omitempty"`
	NextMaintenance *time.Time `db:"next_maintenance" json:"next_maintenance,omitempty"`
}

// Deadline returns the deadline for kind, or nil if unset.
func (e Extinguisher) Deadline(kind DeadlineKind) *time.Time {
	switch kind {
	case DeadlineInspection:
		return e.NextInspection
	case DeadlineMaintenance:
		return e.NextMaintenance
	}
	return nil
}

// DueAsset is one row of the reminder query: an asset with an approaching
// deadline, its tenant and the tenant's eligible recipients.
type DueAsset struct {
	Extinguisher Extinguisher
	Tenant       Tenant
	Recipients   []User
}
