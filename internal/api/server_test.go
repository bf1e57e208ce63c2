package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gringotts/internal/bank"
	"gringotts/internal/currency"
	"gringotts/internal/links"
)

func newTestServer(t *testing.T) (*Server, *bank.Ledger, *links.Table) {
	t.Helper()
	dir := t.TempDir()
	ledger := bank.New(filepath.Join(dir, "balances.json"), nil)
	table := links.New(filepath.Join(dir, "links.json"), nil)
	return New(nil, ledger, table), ledger, table
}

func get(t *testing.T, srv *Server, path string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d: %s", path, rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	out := get(t, srv, "/healthz")
	if out["ok"] != true {
		t.Fatalf("healthz = %v", out)
	}
}

func TestLeaderboards(t *testing.T) {
	srv, ledger, _ := newTestServer(t)
	if err := ledger.SetBalance(5, currency.FromKnuts(100), ""); err != nil {
		t.Fatal(err)
	}
	if err := ledger.SetBalance(5, currency.FromKnuts(50), "cat"); err != nil {
		t.Fatal(err)
	}
	if err := ledger.SetBalance(6, currency.FromKnuts(10), ""); err != nil {
		t.Fatal(err)
	}

	out := get(t, srv, "/v1/leaderboard/users")
	rows := out["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("users rows = %d, want 2", len(rows))
	}
	first := rows[0].(map[string]any)
	if first["owner_id"] != "5" || first["total_knuts"] != float64(150) {
		t.Fatalf("first user row = %v", first)
	}

	out = get(t, srv, "/v1/leaderboard/characters")
	rows = out["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("character rows = %d, want 1", len(rows))
	}
	if rows[0].(map[string]any)["character"] != "cat" {
		t.Fatalf("character row = %v", rows[0])
	}
}

func TestOwnerDetail(t *testing.T) {
	srv, ledger, table := newTestServer(t)
	if err := ledger.SetBalance(7, currency.FromGSK(1, 0, 0), ""); err != nil {
		t.Fatal(err)
	}
	if err := ledger.SetBalance(7, currency.FromKnuts(12), "minerva"); err != nil {
		t.Fatal(err)
	}
	if err := table.Link("Minerva", 7); err != nil {
		t.Fatal(err)
	}

	out := get(t, srv, "/v1/owners/7")
	if out["total_knuts"] != float64(505) {
		t.Fatalf("total_knuts = %v, want 505", out["total_knuts"])
	}
	wallets := out["wallets"].(map[string]any)
	if _, ok := wallets["minerva"]; !ok {
		t.Fatalf("wallets = %v", wallets)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/owners/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}
