package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/skillgen/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	run, err := s.CreateRun("api.yaml", "Widget API", "segmented", 4)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	prefix := "run_" + time.Now().UTC().Format("20060102") + "_"
	if !strings.HasPrefix(run.ID, prefix) {
		t.Fatalf("got id %q, want prefix %q", run.ID, prefix)
	}
	if run.Status != "pending" {
		t.Fatalf("got status %q", run.Status)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Source != "api.yaml" || got.Title != "Widget API" || got.Mode != "segmented" || got.Targets != 4 {
		t.Fatalf("got %+v", got)
	}
}

func TestRunIDsIncrement(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateRun("x", "t", "single", 1)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	b, err := s.CreateRun("x", "t", "single", 1)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if !strings.HasSuffix(a.ID, "_001") || !strings.HasSuffix(b.ID, "_002") {
		t.Fatalf("got %q then %q", a.ID, b.ID)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun("run_19700101_001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateRunStatus(t *testing.T) {
	s := newTestStore(t)
	run, _ := s.CreateRun("x", "t", "single", 1)
	if err := s.UpdateRunStatus(run.ID, "completed"); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}
	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != "completed" {
		t.Fatalf("got status %q", got.Status)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	if runs, err := s.ListRuns(); err != nil || len(runs) != 0 {
		t.Fatalf("got %v, %v", runs, err)
	}
	_, _ = s.CreateRun("a", "t", "single", 1)
	_, _ = s.CreateRun("b", "t", "single", 1)
	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
}

func TestSaveDraftUpsert(t *testing.T) {
	s := newTestStore(t)
	run, _ := s.CreateRun("x", "t", "single", 1)
	draft := &types.Draft{
		RunID: run.ID, Target: "SKILL.md", Attempts: 1,
		Status: "invalid", Content: "first", Diagnostics: "[]", Model: "gpt-4o",
	}
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	draft.Attempts = 2
	draft.Status = "valid"
	draft.Content = "second"
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft upsert: %v", err)
	}

	got, err := s.GetDraft(run.ID, "SKILL.md")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if got.Attempts != 2 || got.Status != "valid" || got.Content != "second" {
		t.Fatalf("got %+v", got)
	}

	drafts, err := s.GetDrafts(run.ID)
	if err != nil {
		t.Fatalf("GetDrafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("upsert must not duplicate, got %d drafts", len(drafts))
	}
}

func TestGetDraftNotFound(t *testing.T) {
	s := newTestStore(t)
	run, _ := s.CreateRun("x", "t", "single", 1)
	if _, err := s.GetDraft(run.ID, "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	s := newTestStore(t)
	run, _ := s.CreateRun("x", "t", "single", 1)
	_ = s.SaveDraft(&types.Draft{
		RunID: run.ID, Target: "SKILL.md", Attempts: 1,
		Status: "valid", Content: "doc", Diagnostics: "[]", Model: "m",
	})
	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(run.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("run survived deletion: %v", err)
	}
	drafts, err := s.GetDrafts(run.ID)
	if err != nil {
		t.Fatalf("GetDrafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("drafts survived deletion: %v", drafts)
	}
}

func TestClearDrafts(t *testing.T) {
	s := newTestStore(t)
	run, _ := s.CreateRun("x", "t", "single", 1)
	_ = s.SaveDraft(&types.Draft{
		RunID: run.ID, Target: "SKILL.md", Attempts: 1,
		Status: "valid", Content: "doc", Diagnostics: "[]", Model: "m",
	})
	if err := s.ClearDrafts(run.ID); err != nil {
		t.Fatalf("ClearDrafts: %v", err)
	}
	drafts, _ := s.GetDrafts(run.ID)
	if len(drafts) != 0 {
		t.Fatalf("got %v", drafts)
	}
}
