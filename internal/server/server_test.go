package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/skillgen/internal/config"
	"github.com/yourorg/skillgen/internal/store"
	"github.com/yourorg/skillgen/pkg/types"
)

func newTestServer(t *testing.T) (*Server, store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	outDir := filepath.Join(dir, "skill")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Output.Dir = outDir

	srv, err := New(cfg, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, st, outDir
}

func TestNewRejectsNilArguments(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatalf("nil config must be rejected")
	}
	cfg := &config.Config{}
	cfg.SetDefaults()
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("nil store must be rejected")
	}
}

func TestListRuns(t *testing.T) {
	srv, st, _ := newTestServer(t)
	if _, err := st.CreateRun("api.yaml", "Widget API", "single", 1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var runs []types.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].Title != "Widget API" {
		t.Fatalf("got %+v", runs)
	}
}

func TestGetRun(t *testing.T) {
	srv, st, _ := newTestServer(t)
	run, _ := st.CreateRun("api.yaml", "Widget API", "single", 1)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var got types.Run
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run_19700101_001", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestGetDrafts(t *testing.T) {
	srv, st, _ := newTestServer(t)
	run, _ := st.CreateRun("api.yaml", "Widget API", "single", 1)
	if err := st.SaveDraft(&types.Draft{
		RunID: run.ID, Target: "SKILL.md", Attempts: 1,
		Status: "valid", Content: "# doc", Diagnostics: "[]", Model: "gpt-4o",
	}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID+"/drafts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var drafts []types.Draft
	if err := json.NewDecoder(rec.Body).Decode(&drafts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Target != "SKILL.md" {
		t.Fatalf("got %+v", drafts)
	}
}

func TestDeleteRun(t *testing.T) {
	srv, st, _ := newTestServer(t)
	run, _ := st.CreateRun("api.yaml", "Widget API", "single", 1)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/runs/"+run.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("got status %d", rec.Code)
	}
	if _, err := st.GetRun(run.ID); err == nil {
		t.Fatalf("run survived deletion")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestServeArtifacts(t *testing.T) {
	srv, _, outDir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(outDir, "SKILL.md"), []byte("# Widget API"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/SKILL.md", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != "# Widget API" {
		t.Fatalf("got body %q", rec.Body.String())
	}
}
