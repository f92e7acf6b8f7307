package generator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	results := []TargetResult{
		{Name: "SKILL.md", Content: "# index", Valid: true},
		{Name: "skills/billing.md", Content: "# billing", Valid: true},
		{Name: "skills/broken.md", Content: "# broken", Valid: false},
	}
	written, err := WriteArtifacts(dir, results, false)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("got %d files written", len(written))
	}
	data, err := os.ReadFile(filepath.Join(dir, "skills", "billing.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "# billing" {
		t.Fatalf("got %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "skills", "broken.md")); !os.IsNotExist(err) {
		t.Fatalf("invalid target must be skipped, got %v", err)
	}
}

func TestWriteArtifactsKeepInvalid(t *testing.T) {
	dir := t.TempDir()
	results := []TargetResult{
		{Name: "skills/broken.md", Content: "# broken", Valid: false},
	}
	written, err := WriteArtifacts(dir, results, true)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("got %d files written", len(written))
	}
	if _, err := os.Stat(filepath.Join(dir, "skills", "broken.md")); err != nil {
		t.Fatalf("keep-invalid must write the file: %v", err)
	}
}
