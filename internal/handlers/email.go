package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/workflow"
)

// EmailHandler serves mailbox registrations for new staff.
type EmailHandler struct {
	Svc *workflow.Service
	Log *slog.Logger
}

type emailRequest struct {
	Email      string   `json:"email" validate:"required,email,max=255"`
	FullName   string   `json:"fullname" validate:"max=255"`
	Position   string   `json:"position" validate:"max=255"`
	Department string   `json:"department" validate:"max=255"`
	IsPC       flexBool `json:"is_pc"`
	IsMobile   flexBool `json:"is_mobile"`
	Notes      string   `json:"notes"`
}

func (req emailRequest) registration() models.RegistrationEmail {
	return models.RegistrationEmail{
		Email:      req.Email,
		FullName:   req.FullName,
		Position:   req.Position,
		Department: req.Department,
		IsPC:       bool(req.IsPC),
		IsMobile:   bool(req.IsMobile),
		Notes:      req.Notes,
	}
}

func (h *EmailHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.ListEmails(r.Context(), models.EmailFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.RegistrationEmail{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *EmailHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "email")
	if !ok {
		return
	}
	e, err := h.Svc.GetEmail(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EmailHandler) RegisterEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	e, err := h.Svc.RegisterEmail(r.Context(), req.registration())
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      e.ID,
		"message": "Email registered successfully",
	})
}

func (h *EmailHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "email")
	if !ok {
		return
	}
	var req emailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Svc.UpdateEmail(r.Context(), id, req.registration()); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Email registration updated successfully")
}

func (h *EmailHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "email")
	if !ok {
		return
	}
	if err := h.Svc.DeleteEmail(r.Context(), id); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Email registration deleted successfully")
}
