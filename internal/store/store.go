package store

import "github.com/yourorg/skillgen/pkg/types"

// Store persists runs and their per-target drafts.
type Store interface {
	CreateRun(source, title, mode string, targets int) (*types.Run, error)
	GetRun(id string) (*types.Run, error)
	UpdateRunStatus(id, status string) error
	ListRuns() ([]types.Run, error)
	DeleteRun(id string) error

	SaveDraft(draft *types.Draft) error
	GetDrafts(runID string) ([]types.Draft, error)
	GetDraft(runID, target string) (*types.Draft, error)
	ClearDrafts(runID string) error

	Close() error
}
