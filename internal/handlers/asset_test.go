package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/itam/internal/assetcode"
	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/workflow"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService returns a service over a fresh, converged SQLite file.
func newTestService(t *testing.T) (*workflow.Service, *db.Gateway) {
	t.Helper()
	logger := discardLogger()
	gw, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "itam.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	rep := db.NewMigrator(gw, logger).Converge(context.Background())
	require.Empty(t, rep.Failed)

	svc := workflow.NewService(gw, assetcode.NewGenerator(), nil, workflow.Options{
		Now:    func() time.Time { return fixedNow },
		Logger: logger,
	})
	return svc, gw
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

type assetResponse struct {
	ID        int64  `json:"id"`
	AssetCode string `json:"asset_code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	IsPC      bool   `json:"is_pc"`
}

func createAsset(t *testing.T, h *AssetHandler, body map[string]any) assetResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	h.CreateAsset(rr, httptest.NewRequest("POST", "/api/assets", bytes.NewReader(mustJSON(t, body))))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[assetResponse](t, rr)
}

func TestAssetHandler_NextCode(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	rr := httptest.NewRecorder()
	h.NextCode(rr, httptest.NewRequest("GET", "/api/assets/next-code?type=Laptop", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"nextCode": "NB-2025-001"}, decodeBody[map[string]string](t, rr))

	// previewing twice reserves nothing
	rr = httptest.NewRecorder()
	h.NextCode(rr, httptest.NewRequest("GET", "/api/assets/next-code?type=Laptop", nil))
	assert.Equal(t, "NB-2025-001", decodeBody[map[string]string](t, rr)["nextCode"])
}

func TestAssetHandler_CreateAsset_AssignsCode(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	a := createAsset(t, h, map[string]any{"name": "ThinkPad T14", "type": "Laptop", "is_pc": "1"})
	assert.Equal(t, "NB-2025-001", a.AssetCode)
	assert.Equal(t, "available", a.Status)
	assert.True(t, a.IsPC)

	b := createAsset(t, h, map[string]any{"name": "ThinkPad X1", "type": "Laptop"})
	assert.Equal(t, "NB-2025-002", b.AssetCode)
}

func TestAssetHandler_CreateAsset_BadRequest(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	rr := httptest.NewRecorder()
	h.CreateAsset(rr, httptest.NewRequest("POST", "/api/assets", bytes.NewReader([]byte(`{"name":`))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	body := mustJSON(t, map[string]any{"name": "x", "status": "borrowed"})
	h.CreateAsset(rr, httptest.NewRequest("POST", "/api/assets", bytes.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "min=2", resp.Fields["name"])
	assert.Equal(t, "required", resp.Fields["type"])
	assert.Contains(t, resp.Fields["status"], "oneof")
}

func TestAssetHandler_CreateAsset_DuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	createAsset(t, h, map[string]any{"asset_code": "PC-2025-001", "name": "Desk PC", "type": "PC"})

	rr := httptest.NewRecorder()
	body := mustJSON(t, map[string]any{"asset_code": "PC-2025-001", "name": "Other PC", "type": "PC"})
	h.CreateAsset(rr, httptest.NewRequest("POST", "/api/assets", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "asset code must be unique", decodeBody[map[string]string](t, rr)["error"])
}

func TestAssetHandler_GetAsset(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}
	a := createAsset(t, h, map[string]any{"name": "Dell U2720Q", "type": "Monitor"})

	rr := httptest.NewRecorder()
	h.GetAsset(rr, requestWithChiURLParams("GET", "/api/assets/1", nil, map[string]string{"id": "1"}))
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[assetResponse](t, rr)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "MT-2025-001", got.AssetCode)
}

func TestAssetHandler_GetAsset_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	rr := httptest.NewRecorder()
	h.GetAsset(rr, requestWithChiURLParams("GET", "/api/assets/999", nil, map[string]string{"id": "999"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAssetHandler_GetAsset_InvalidID(t *testing.T) {
	h := &AssetHandler{}

	rr := httptest.NewRecorder()
	h.GetAsset(rr, requestWithChiURLParams("GET", "/api/assets/abc", nil, map[string]string{"id": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid asset id", decodeBody[map[string]string](t, rr)["error"])
}

func TestAssetHandler_ListAssets_Filters(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}
	createAsset(t, h, map[string]any{"name": "ThinkPad T14", "type": "Laptop"})
	createAsset(t, h, map[string]any{"name": "Dell U2720Q", "type": "Monitor", "status": "assigned"})

	rr := httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/api/assets", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]assetResponse](t, rr), 2)

	rr = httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/api/assets?search=thinkpad", nil))
	list := decodeBody[[]assetResponse](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Laptop", list[0].Type)

	rr = httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/api/assets?status=assigned", nil))
	list = decodeBody[[]assetResponse](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Monitor", list[0].Type)

	rr = httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/api/assets?type=Tablet", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/api/assets?status=borrowed", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssetHandler_UpdateAsset(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}
	a := createAsset(t, h, map[string]any{"name": "ThinkPad T14", "type": "Laptop"})

	body := mustJSON(t, map[string]any{"name": "ThinkPad T14 Gen 3", "type": "Laptop", "status": "assigned"})
	rr := httptest.NewRecorder()
	h.UpdateAsset(rr, requestWithChiURLParams("PUT", "/api/assets/1", body, map[string]string{"id": "1"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decodeBody[assetResponse](t, rr)
	assert.Equal(t, a.AssetCode, got.AssetCode)
	assert.Equal(t, "ThinkPad T14 Gen 3", got.Name)
	assert.Equal(t, "assigned", got.Status)
}

func TestAssetHandler_DeleteAsset(t *testing.T) {
	svc, _ := newTestService(t)
	h := &AssetHandler{Svc: svc, Log: discardLogger()}
	createAsset(t, h, map[string]any{"name": "ThinkPad T14", "type": "Laptop"})

	rr := httptest.NewRecorder()
	h.DeleteAsset(rr, requestWithChiURLParams("DELETE", "/api/assets/1", nil, map[string]string{"id": "1"}))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.DeleteAsset(rr, requestWithChiURLParams("DELETE", "/api/assets/1", nil, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAssetHandler_PersistenceFailure_IsGeneric500(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnError(io.ErrUnexpectedEOF)

	gw := db.New(sqlDB, db.Postgres{}, discardLogger())
	svc := workflow.NewService(gw, nil, nil, workflow.Options{Logger: discardLogger()})
	h := &AssetHandler{Svc: svc, Log: discardLogger()}

	rr := httptest.NewRecorder()
	h.GetAsset(rr, requestWithChiURLParams("GET", "/api/assets/1", nil, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ErrMessageInternal, decodeBody[map[string]string](t, rr)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
