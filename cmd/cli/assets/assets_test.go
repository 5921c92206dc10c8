package assets

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/crucial707/itam/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestListAssets_TableOutput(t *testing.T) {
	assets := []models.Asset{
		{ID: 1, AssetCode: "NB-2025-001", Name: "ThinkPad T14", Type: "Laptop", Status: models.AssetAvailable},
		{ID: 2, AssetCode: "MT-2025-001", Name: "Dell U2720Q", Type: "Monitor", Status: models.AssetAssigned},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assets" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(assets)
	}))
	defer srv.Close()

	t.Setenv("ITAM_API_URL", srv.URL)

	cmd := listAssetsCmd()

	var err error
	out := captureOutput(t, func() {
		err = cmd.RunE(cmd, []string{})
	})
	if err != nil {
		t.Fatalf("RunE: %v", err)
	}

	if !strings.Contains(out, "NB-2025-001") || !strings.Contains(out, "Dell U2720Q") {
		t.Fatalf("expected assets in output, got: %s", out)
	}
}

func TestListAssets_FiltersAndJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "Laptop" || q.Get("status") != "repair" || q.Get("search") != "think" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]models.Asset{{ID: 1, AssetCode: "NB-2025-001", Name: "ThinkPad T14"}})
	}))
	defer srv.Close()

	t.Setenv("ITAM_API_URL", srv.URL)

	cmd := listAssetsCmd()
	_ = cmd.Flags().Set("json", "true")
	_ = cmd.Flags().Set("type", "Laptop")
	_ = cmd.Flags().Set("status", "repair")
	_ = cmd.Flags().Set("search", "think")

	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{}); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})

	if !strings.Contains(out, `"asset_code": "NB-2025-001"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestNextCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assets/next-code" || r.URL.Query().Get("type") != "Laptop" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"nextCode":"NB-2025-004"}`))
	}))
	defer srv.Close()

	t.Setenv("ITAM_API_URL", srv.URL)

	cmd := nextCodeCmd()
	_ = cmd.Flags().Set("type", "Laptop")

	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{}); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})

	if strings.TrimSpace(out) != "NB-2025-004" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGetAsset_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"asset not found"}`))
	}))
	defer srv.Close()

	t.Setenv("ITAM_API_URL", srv.URL)

	cmd := getAssetCmd()
	err := cmd.RunE(cmd, []string{"9"})
	if err == nil || !strings.Contains(err.Error(), "asset not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}
