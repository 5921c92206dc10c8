package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/workflow"
)

type MaintenanceHandler struct {
	Svc *workflow.Service
	Log *slog.Logger
}

//
// ==========================
// List Tickets
// ==========================
//

func (h *MaintenanceHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	f := models.TicketFilter{Date: r.URL.Query().Get("date")}

	if s := r.URL.Query().Get("asset_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			JSONError(w, "invalid asset id", http.StatusBadRequest)
			return
		}
		f.AssetID = &id
	}

	tickets, err := h.Svc.List(r.Context(), f)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

//
// ==========================
// Get Ticket
// ==========================
//

func (h *MaintenanceHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}
	t, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

//
// ==========================
// Create Ticket
// ==========================
//

type createTicketRequest struct {
	ServiceType     string   `json:"service_type" validate:"omitempty,oneof=repair service new_setup"`
	AssetID         *int64   `json:"asset_id" validate:"omitempty,gt=0"`
	Description     string   `json:"description" validate:"max=2000"`
	Cost            *float64 `json:"cost" validate:"omitempty,gte=0"`
	LogDate         string   `json:"log_date"`
	ReporterName    string   `json:"reporter_name" validate:"max=255"`
	ContactInfo     string   `json:"contact_info" validate:"max=255"`
	Department      string   `json:"department" validate:"max=255"`
	Location        string   `json:"location" validate:"max=255"`
	RepairMethod    string   `json:"repair_method" validate:"omitempty,oneof=internal external"`
	NewEmployeeName string   `json:"new_employee_name" validate:"max=255"`
	AssetType       string   `json:"asset_type" validate:"max=100"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsPC            flexBool `json:"is_pc"`
	IsMobile        flexBool `json:"is_mobile"`
}

func (h *MaintenanceHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	logDate, err := parseDate(req.LogDate)
	if err != nil {
		JSONValidationError(w, "validation failed", map[string]string{"log_date": "date"}, http.StatusBadRequest)
		return
	}

	res, err := h.Svc.Create(r.Context(), workflow.CreateTicketInput{
		ServiceType:     models.ServiceType(req.ServiceType),
		AssetID:         req.AssetID,
		Description:     req.Description,
		Cost:            req.Cost,
		LogDate:         logDate,
		ReporterName:    req.ReporterName,
		ContactInfo:     req.ContactInfo,
		Department:      req.Department,
		Location:        req.Location,
		RepairMethod:    models.RepairMethod(req.RepairMethod),
		NewEmployeeName: req.NewEmployeeName,
		AssetType:       req.AssetType,
		Email:           req.Email,
		IsPC:            bool(req.IsPC),
		IsMobile:        bool(req.IsMobile),
	})
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       res.ID,
		"asset_id": res.AssetID,
		"message":  "Maintenance log added successfully",
	})
}

//
// ==========================
// Update Ticket
// ==========================
//

// updateTicketRequest mirrors the editable columns. Empty strings mean
// "leave unchanged"; cost is applied whenever present.
type updateTicketRequest struct {
	Status         string   `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Cost           *float64 `json:"cost" validate:"omitempty,gte=0"`
	Description    string   `json:"description" validate:"max=2000"`
	TechnicianName string   `json:"technician_name" validate:"max=255"`
	StartedAt      string   `json:"started_at"`
	CompletedAt    string   `json:"completed_at"`
	Signature      string   `json:"signature"`
	RepairMethod   string   `json:"repair_method" validate:"omitempty,oneof=internal external"`
	SignerName     string   `json:"signer_name" validate:"max=255"`
}

func (req updateTicketRequest) patch() (models.TicketPatch, map[string]string) {
	var p models.TicketPatch
	bad := map[string]string{}

	str := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	if req.Status != "" {
		st := models.TicketStatus(req.Status)
		p.Status = &st
	}
	if req.RepairMethod != "" {
		m := models.RepairMethod(req.RepairMethod)
		p.RepairMethod = &m
	}
	p.Cost = req.Cost
	p.Description = str(req.Description)
	p.TechnicianName = str(req.TechnicianName)
	p.Signature = str(req.Signature)
	p.SignerName = str(req.SignerName)

	if t, err := parseDate(req.StartedAt); err != nil {
		bad["started_at"] = "date"
	} else {
		p.StartedAt = t
	}
	if t, err := parseDate(req.CompletedAt); err != nil {
		bad["completed_at"] = "date"
	} else {
		p.CompletedAt = t
	}
	return p, bad
}

func (h *MaintenanceHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}

	var req updateTicketRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, bad := req.patch()
	if len(bad) > 0 {
		JSONValidationError(w, "validation failed", bad, http.StatusBadRequest)
		return
	}

	if err := h.Svc.Edit(r.Context(), id, p); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Maintenance log updated successfully")
}

//
// ==========================
// Start / Complete
// ==========================
//

func (h *MaintenanceHandler) StartTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}

	var req struct {
		TechnicianName string `json:"technician_name" validate:"required,max=255"`
		RepairMethod   string `json:"repair_method" validate:"omitempty,oneof=internal external"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Svc.Start(r.Context(), id, req.TechnicianName, models.RepairMethod(req.RepairMethod)); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Maintenance started")
}

func (h *MaintenanceHandler) CompleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}

	var req struct {
		Signature  string `json:"signature"`
		SignerName string `json:"signer_name" validate:"max=255"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Svc.Complete(r.Context(), id, req.Signature, req.SignerName); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Maintenance completed")
}

//
// ==========================
// Delete Ticket
// ==========================
//

func (h *MaintenanceHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Maintenance log deleted successfully")
}

//
// ==========================
// History
// ==========================
//

func (h *MaintenanceHandler) TicketHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "ticket")
	if !ok {
		return
	}
	events, err := h.Svc.History(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
