package generator

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifacts writes validated target documents under outputDir and
// returns the written paths. Targets that exhausted their repair budget are
// skipped unless keepInvalid is set; the caller decides what to do with
// their diagnostics.
func WriteArtifacts(outputDir string, results []TargetResult, keepInvalid bool) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, res := range results {
		if !res.Valid && !keepInvalid {
			continue
		}
		path := filepath.Join(outputDir, filepath.FromSlash(res.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(path, []byte(res.Content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", res.Name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
