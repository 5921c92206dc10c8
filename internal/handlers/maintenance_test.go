package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/itam/internal/models"
)

type ticketFixture struct {
	tickets *MaintenanceHandler
	assets  *AssetHandler
}

func newTicketFixture(t *testing.T) ticketFixture {
	t.Helper()
	svc, _ := newTestService(t)
	return ticketFixture{
		tickets: &MaintenanceHandler{Svc: svc, Log: discardLogger()},
		assets:  &AssetHandler{Svc: svc, Log: discardLogger()},
	}
}

type createResponse struct {
	ID      int64  `json:"id"`
	AssetID int64  `json:"asset_id"`
	Message string `json:"message"`
}

func (f ticketFixture) create(t *testing.T, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.tickets.CreateTicket(rr, httptest.NewRequest("POST", "/api/maintenance", bytes.NewReader(mustJSON(t, body))))
	return rr
}

func (f ticketFixture) createRepair(t *testing.T) createResponse {
	t.Helper()
	a := createAsset(t, f.assets, map[string]any{"name": "ThinkPad T14", "type": "Laptop"})
	rr := f.create(t, map[string]any{
		"asset_id":      a.ID,
		"description":   "screen flickers",
		"reporter_name": "Somchai",
		"location":      "HQ 3F",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[createResponse](t, rr)
}

func (f ticketFixture) call(t *testing.T, fn http.HandlerFunc, method string, id int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var b []byte
	if body != nil {
		b = mustJSON(t, body)
	}
	sid := strconv.FormatInt(id, 10)
	rr := httptest.NewRecorder()
	fn(rr, requestWithChiURLParams(method, "/api/maintenance/"+sid, b, map[string]string{"id": sid}))
	return rr
}

func (f ticketFixture) get(t *testing.T, id int64) models.Ticket {
	t.Helper()
	rr := f.call(t, f.tickets.GetTicket, "GET", id, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeBody[models.Ticket](t, rr)
}

func TestMaintenanceHandler_CreateRepair(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	assert.Positive(t, res.ID)
	assert.Positive(t, res.AssetID)
	assert.Equal(t, "Maintenance log added successfully", res.Message)

	a, err := f.assets.Svc.GetAsset(context.Background(), res.AssetID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetRepair, a.Status)

	tk := f.get(t, res.ID)
	assert.Equal(t, models.StatusPending, tk.Status)
	assert.Equal(t, models.ServiceRepair, tk.ServiceType)
	assert.Equal(t, models.RepairInternal, tk.RepairMethod)
	assert.Equal(t, "NB-2025-001", tk.AssetCode)
}

func TestMaintenanceHandler_CreateNewSetup(t *testing.T) {
	f := newTicketFixture(t)

	rr := f.create(t, map[string]any{
		"service_type":      "new_setup",
		"new_employee_name": "Suda",
		"asset_type":        "Laptop",
		"email":             "suda@example.com",
		"is_pc":             1,
		"is_mobile":         "false",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decodeBody[createResponse](t, rr)

	a, err := f.assets.Svc.GetAsset(context.Background(), res.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "NB-2025-001", a.AssetCode)
	assert.Equal(t, "New Laptop for Suda", a.Name)
	assert.Equal(t, models.AssetAssigned, a.Status)
	assert.True(t, a.IsPC)
	assert.False(t, a.IsMobile)
}

func TestMaintenanceHandler_CreateNewSetup_MissingFields(t *testing.T) {
	f := newTicketFixture(t)

	rr := f.create(t, map[string]any{"service_type": "new_setup", "asset_type": "Laptop"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "required", resp.Fields["new_employee_name"])
}

func TestMaintenanceHandler_Create_BadInput(t *testing.T) {
	f := newTicketFixture(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"no asset", map[string]any{"description": "broken"}, http.StatusBadRequest},
		{"unknown asset", map[string]any{"asset_id": 42}, http.StatusNotFound},
		{"bad service type", map[string]any{"asset_id": 1, "service_type": "upgrade"}, http.StatusBadRequest},
		{"bad repair method", map[string]any{"asset_id": 1, "repair_method": "vendor"}, http.StatusBadRequest},
		{"bad log date", map[string]any{"asset_id": 1, "log_date": "yesterday"}, http.StatusBadRequest},
		{"bad flag", map[string]any{"asset_id": 1, "is_pc": "maybe"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.create(t, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestMaintenanceHandler_StartAndComplete(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.StartTicket, "POST", res.ID, map[string]any{
		"technician_name": "Niran",
		"repair_method":   "external",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	tk := f.get(t, res.ID)
	assert.Equal(t, models.StatusInProgress, tk.Status)
	assert.Equal(t, "Niran", tk.TechnicianName)
	assert.Equal(t, models.RepairExternal, tk.RepairMethod)
	require.NotNil(t, tk.StartedAt)

	rr = f.call(t, f.tickets.CompleteTicket, "POST", res.ID, map[string]any{
		"signature":   "data:image/png;base64,AAAA",
		"signer_name": "Somchai",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	tk = f.get(t, res.ID)
	assert.Equal(t, models.StatusCompleted, tk.Status)
	assert.Equal(t, "Somchai", tk.SignerName)
	require.NotNil(t, tk.CompletedAt)

	// completing again is not a forward step
	rr = f.call(t, f.tickets.CompleteTicket, "POST", res.ID, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMaintenanceHandler_CompletePending_Conflict(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.CompleteTicket, "POST", res.ID, map[string]any{"signer_name": "Somchai"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, models.StatusPending, f.get(t, res.ID).Status)
}

func TestMaintenanceHandler_Start_RequiresTechnician(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.StartTicket, "POST", res.ID, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "required", resp.Fields["technician_name"])
}

func TestMaintenanceHandler_Start_UnknownTicket(t *testing.T) {
	f := newTicketFixture(t)

	rr := f.call(t, f.tickets.StartTicket, "POST", 77, map[string]any{"technician_name": "Niran"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMaintenanceHandler_UpdateTicket(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.UpdateTicket, "PUT", res.ID, map[string]any{
		"cost":        1250.5,
		"description": "replaced panel",
		"status":      "completed",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Maintenance log updated successfully", decodeBody[map[string]string](t, rr)["message"])

	tk := f.get(t, res.ID)
	assert.Equal(t, models.StatusCompleted, tk.Status)
	assert.Equal(t, "replaced panel", tk.Description)
	require.NotNil(t, tk.Cost)
	assert.InDelta(t, 1250.5, *tk.Cost, 0.001)
	assert.NotNil(t, tk.CompletedAt)
}

func TestMaintenanceHandler_UpdateTicket_BadInput(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.UpdateTicket, "PUT", res.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.call(t, f.tickets.UpdateTicket, "PUT", res.ID, map[string]any{"status": "closed"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.call(t, f.tickets.UpdateTicket, "PUT", res.ID, map[string]any{"started_at": "soon"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.call(t, f.tickets.UpdateTicket, "PUT", 999, map[string]any{"description": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMaintenanceHandler_DeleteKeepsHistory(t *testing.T) {
	f := newTicketFixture(t)
	res := f.createRepair(t)

	rr := f.call(t, f.tickets.DeleteTicket, "DELETE", res.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.call(t, f.tickets.GetTicket, "GET", res.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.call(t, f.tickets.DeleteTicket, "DELETE", res.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.call(t, f.tickets.TicketHistory, "GET", res.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	events := decodeBody[[]models.TicketEvent](t, rr)
	require.Len(t, events, 2)
	assert.Equal(t, models.ActionCreated, events[0].Action)
	assert.Equal(t, models.ActionDeleted, events[1].Action)
}

func TestMaintenanceHandler_History_UnknownTicket(t *testing.T) {
	f := newTicketFixture(t)

	rr := f.call(t, f.tickets.TicketHistory, "GET", 5, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMaintenanceHandler_ListTickets(t *testing.T) {
	f := newTicketFixture(t)
	first := f.createRepair(t)
	f.createRepair(t)

	list := func(query string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		f.tickets.ListTickets(rr, httptest.NewRequest("GET", "/api/maintenance"+query, nil))
		return rr
	}

	rr := list("")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]models.Ticket](t, rr), 2)

	rr = list("?asset_id=" + strconv.FormatInt(first.AssetID, 10))
	require.Equal(t, http.StatusOK, rr.Code)
	byAsset := decodeBody[[]models.Ticket](t, rr)
	require.Len(t, byAsset, 1)
	assert.Equal(t, first.ID, byAsset[0].ID)

	rr = list("?date=2025-03-01")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]models.Ticket](t, rr), 2)

	rr = list("?date=2025-03-02")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, list("?date=01-03-2025").Code)
	assert.Equal(t, http.StatusBadRequest, list("?asset_id=abc").Code)
}
