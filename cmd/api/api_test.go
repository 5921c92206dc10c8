package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/itam/internal/assetcode"
	"github.com/crucial707/itam/internal/config"
	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/notify"
	"github.com/crucial707/itam/internal/workflow"
)

type captured struct {
	events chan notify.Event
}

func (c *captured) Notify(_ context.Context, e notify.Event) error {
	c.events <- e
	return nil
}

func newTestServer(t *testing.T, notifier notify.Notifier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gw, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	db.NewMigrator(gw, logger).Converge(context.Background())

	dispatcher := notify.NewDispatcher(notifier, 10, logger)
	dispatcher.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dispatcher.Stop(ctx)
	})

	svc := workflow.NewService(gw, assetcode.NewGenerator(), dispatcher, workflow.Options{Logger: logger})
	cfg := config.Config{RateLimitPerMinute: 1000}

	srv := httptest.NewServer(newRouter(gw, svc, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// TestAPI_TicketLifecycle walks a repair ticket from creation to sign-off
// through the full router.
func TestAPI_TicketLifecycle(t *testing.T) {
	rec := &captured{events: make(chan notify.Event, 4)}
	srv := newTestServer(t, rec)
	year := strconv.Itoa(time.Now().UTC().Year())

	resp, body := doJSON(t, "GET", srv.URL+"/api/assets/next-code?type=Laptop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"nextCode":"NB-`+year+`-001"}`, string(body))

	resp, body = doJSON(t, "POST", srv.URL+"/api/assets", map[string]any{"name": "ThinkPad T14", "type": "Laptop"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var asset struct {
		ID        int64  `json:"id"`
		AssetCode string `json:"asset_code"`
	}
	require.NoError(t, json.Unmarshal(body, &asset))
	assert.Equal(t, "NB-"+year+"-001", asset.AssetCode)

	resp, body = doJSON(t, "POST", srv.URL+"/api/maintenance", map[string]any{
		"asset_id":      asset.ID,
		"description":   "keyboard dead",
		"reporter_name": "Somchai",
		"location":      "HQ 2F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created struct {
		ID      int64 `json:"id"`
		AssetID int64 `json:"asset_id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, asset.ID, created.AssetID)

	select {
	case e := <-rec.events:
		assert.Equal(t, notify.KindTicketCreated, e.Kind)
		assert.Equal(t, created.ID, e.TicketID)
		assert.Equal(t, asset.AssetCode, e.AssetCode)
		assert.Equal(t, "repair", e.ServiceType)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification delivered")
	}

	base := srv.URL + "/api/maintenance/" + strconv.FormatInt(created.ID, 10)

	resp, _ = doJSON(t, "POST", base+"/complete", map[string]any{"signer_name": "Somchai"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, "POST", base+"/start", map[string]any{"technician_name": "Niran"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, "POST", base+"/complete", map[string]any{"signer_name": "Somchai", "signature": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, "GET", base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ticket struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &ticket))
	assert.Equal(t, "completed", ticket.Status)

	resp, body = doJSON(t, "GET", base+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "created", history[0].Action)
	assert.Equal(t, "started", history[1].Action)
	assert.Equal(t, "completed", history[2].Action)

	resp, body = doJSON(t, "GET", srv.URL+"/api/maintenance?asset_id="+strconv.FormatInt(asset.ID, 10), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	// the asset now has a ticket and cannot be removed
	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/assets/"+strconv.FormatInt(asset.ID, 10), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_HealthReadyMetrics(t *testing.T) {
	srv := newTestServer(t, notify.NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil))))

	resp, body := doJSON(t, "GET", srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))

	resp, _ = doJSON(t, "GET", srv.URL+"/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// produce at least one API series
	doJSON(t, "GET", srv.URL+"/api/assets/42", nil)

	resp, body = doJSON(t, "GET", srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `path="/api/assets/{id}"`), "route pattern label missing")
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestAPI_ReadyReportsDatabaseDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(newRouter(downPinger{}, nil, config.Config{RateLimitPerMinute: 60}, logger))
	defer srv.Close()

	resp, body := doJSON(t, "GET", srv.URL+"/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"error":"database unavailable"}`, string(body))
}

func TestAPI_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, notify.NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil))))

	resp, _ := doJSON(t, "GET", srv.URL+"/api/users", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_EmailRegistrations(t *testing.T) {
	srv := newTestServer(t, notify.NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil))))

	resp, body := doJSON(t, "POST", srv.URL+"/api/emails", map[string]any{"email": "new.hire@example.com", "is_pc": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, "POST", srv.URL+"/api/emails", map[string]any{"email": "new.hire@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = doJSON(t, "GET", srv.URL+"/api/emails?search=new.hire", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []struct {
		Email string `json:"email"`
		IsPC  bool   `json:"is_pc"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].IsPC)
}
