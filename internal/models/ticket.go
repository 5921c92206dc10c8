package models

import (
	"time"

	"github.com/crucial707/itam/internal/errs"
)

// ServiceType classifies what a ticket asks for.
type ServiceType string

const (
	ServiceRepair   ServiceType = "repair"
	ServiceService  ServiceType = "service"
	ServiceNewSetup ServiceType = "new_setup"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceRepair, ServiceService, ServiceNewSetup:
		return true
	}
	return false
}

// TicketStatus is the state of a maintenance ticket.
type TicketStatus string

const (
	StatusPending    TicketStatus = "pending"
	StatusInProgress TicketStatus = "in_progress"
	StatusCompleted  TicketStatus = "completed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// RepairMethod tells whether the work is done in house or by a vendor.
type RepairMethod string

const (
	RepairInternal RepairMethod = "internal"
	RepairExternal RepairMethod = "external"
)

func (m RepairMethod) Valid() bool {
	return m == RepairInternal || m == RepairExternal
}

// transitions lists the only allowed status moves. Completed is terminal.
var transitions = map[TicketStatus]TicketStatus{
	StatusPending:    StatusInProgress,
	StatusInProgress: StatusCompleted,
}

// ValidateTransition returns an errs.InvalidTransition error unless to is the
// single forward step from from.
func ValidateTransition(from, to TicketStatus) error {
	if !to.Valid() {
		return errs.Invalid("invalid status", map[string]string{"status": string(to)})
	}
	if next, ok := transitions[from]; ok && next == to {
		return nil
	}
	return errs.New(errs.InvalidTransition, "cannot move ticket from "+string(from)+" to "+string(to))
}

// Ticket is one maintenance log row. The asset fields are filled by listings
// that join the linked asset.
type Ticket struct {
	ID             int64        `json:"id"`
	AssetID        int64        `json:"asset_id"`
	Description    string       `json:"description,omitempty"`
	Cost           *float64     `json:"cost,omitempty"`
	Status         TicketStatus `json:"status"`
	ServiceType    ServiceType  `json:"service_type"`
	RepairMethod   RepairMethod `json:"repair_method,omitempty"`
	ReporterName   string       `json:"reporter_name,omitempty"`
	ContactInfo    string       `json:"contact_info,omitempty"`
	Department     string       `json:"department,omitempty"`
	Location       string       `json:"location,omitempty"`
	TechnicianName string       `json:"technician_name,omitempty"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	Signature      string       `json:"signature,omitempty"`
	SignerName     string       `json:"signer_name,omitempty"`
	LogDate        *time.Time   `json:"log_date,omitempty"`
	CreatedAt      *time.Time   `json:"created_at,omitempty"`

	AssetCode string `json:"asset_code,omitempty"`
	AssetName string `json:"asset_name,omitempty"`
	AssetType string `json:"asset_type,omitempty"`
	Email     string `json:"email,omitempty"`
	IsPC      bool   `json:"is_pc"`
	IsMobile  bool   `json:"is_mobile"`
}

// TicketFilter selects tickets by creation day (YYYY-MM-DD) or by asset.
// Date wins when both are set.
type TicketFilter struct {
	Date    string
	AssetID *int64
}

// TicketPatch holds the mutable ticket fields. Nil means "leave unchanged".
type TicketPatch struct {
	Status         *TicketStatus
	Cost           *float64
	Description    *string
	TechnicianName *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Signature      *string
	RepairMethod   *RepairMethod
	SignerName     *string
}

// Empty reports whether no field is set.
func (p TicketPatch) Empty() bool {
	return p.Status == nil && p.Cost == nil && p.Description == nil &&
		p.TechnicianName == nil && p.StartedAt == nil && p.CompletedAt == nil &&
		p.Signature == nil && p.RepairMethod == nil && p.SignerName == nil
}
