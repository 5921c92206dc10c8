package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/workflow"
)

type AssetHandler struct {
	Svc *workflow.Service
	Log *slog.Logger
}

type assetRequest struct {
	AssetCode    string   `json:"asset_code" validate:"max=32"`
	Name         string   `json:"name" validate:"required,min=2,max=255"`
	Type         string   `json:"type" validate:"required,max=100"`
	Brand        string   `json:"brand" validate:"max=255"`
	Model        string   `json:"model" validate:"max=255"`
	SerialNumber string   `json:"serial_number" validate:"max=255"`
	PurchaseDate string   `json:"purchase_date"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Status       string   `json:"status" validate:"omitempty,oneof=available assigned repair retired lost"`
	Location     string   `json:"location" validate:"max=255"`
	ImagePath    string   `json:"image_path"`
	Notes        string   `json:"notes"`
	AssignedTo   string   `json:"assigned_to" validate:"max=255"`
	Signature    string   `json:"signature"`
	Spec         string   `json:"spec"`
	ReceivedDate string   `json:"received_date"`
	ReturnDate   string   `json:"return_date"`
	Email        string   `json:"email" validate:"omitempty,email"`
	IsPC         flexBool `json:"is_pc"`
	IsMobile     flexBool `json:"is_mobile"`
	Software     string   `json:"software"`
}

func (req assetRequest) asset() (models.Asset, map[string]string) {
	a := models.Asset{
		AssetCode:    req.AssetCode,
		Name:         req.Name,
		Type:         req.Type,
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Price:        req.Price,
		Status:       models.AssetStatus(req.Status),
		Location:     req.Location,
		ImagePath:    req.ImagePath,
		Notes:        req.Notes,
		AssignedTo:   req.AssignedTo,
		Signature:    req.Signature,
		Spec:         req.Spec,
		Email:        req.Email,
		IsPC:         bool(req.IsPC),
		IsMobile:     bool(req.IsMobile),
		Software:     req.Software,
	}

	bad := map[string]string{}
	var err error
	if a.PurchaseDate, err = parseDate(req.PurchaseDate); err != nil {
		bad["purchase_date"] = "date"
	}
	if a.ReceivedDate, err = parseDate(req.ReceivedDate); err != nil {
		bad["received_date"] = "date"
	}
	if a.ReturnDate, err = parseDate(req.ReturnDate); err != nil {
		bad["return_date"] = "date"
	}
	return a, bad
}

//
// ==========================
// Next Asset Code
// ==========================
//

func (h *AssetHandler) NextCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.Svc.NextAssetCode(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nextCode": code})
}

//
// ==========================
// List Assets
// ==========================
//

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assets, err := h.Svc.ListAssets(r.Context(), models.AssetFilter{
		Search: q.Get("search"),
		Type:   q.Get("type"),
		Status: models.AssetStatus(q.Get("status")),
	})
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

//
// ==========================
// Get Asset By ID
// ==========================
//

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "asset")
	if !ok {
		return
	}
	a, err := h.Svc.GetAsset(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

//
// ==========================
// Create Asset
// ==========================
//

func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a, bad := req.asset()
	if len(bad) > 0 {
		JSONValidationError(w, "validation failed", bad, http.StatusBadRequest)
		return
	}

	created, err := h.Svc.CreateAsset(r.Context(), a)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

//
// ==========================
// Update Asset
// ==========================
//

func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "asset")
	if !ok {
		return
	}

	var req assetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a, bad := req.asset()
	if len(bad) > 0 {
		JSONValidationError(w, "validation failed", bad, http.StatusBadRequest)
		return
	}

	updated, err := h.Svc.UpdateAsset(r.Context(), id, a)
	if err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

//
// ==========================
// Delete Asset
// ==========================
//

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "asset")
	if !ok {
		return
	}
	if err := h.Svc.DeleteAsset(r.Context(), id); err != nil {
		ServiceError(w, r, h.Log, err)
		return
	}
	message(w, http.StatusOK, "Asset deleted successfully")
}
