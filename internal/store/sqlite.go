package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourorg/skillgen/pkg/types"
)

// ErrNotFound marks a missing run or draft.
var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			targets INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			run_id TEXT NOT NULL,
			target TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			status TEXT NOT NULL,
			content TEXT NOT NULL,
			diagnostics TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY(run_id, target)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateRun(source, title, mode string, targets int) (*types.Run, error) {
	now := time.Now().UTC()
	id, err := s.nextRunID(now)
	if err != nil {
		return nil, err
	}
	run := &types.Run{
		ID: id, Source: source, Title: title, Mode: mode,
		Status: "pending", Targets: targets, CreatedAt: now, UpdatedAt: now,
	}
	_, err = s.db.Exec(`INSERT INTO runs(id,source,title,mode,status,targets,created_at,updated_at) VALUES(?,?,?,?,?,?,?,?)`,
		run.ID, run.Source, run.Title, run.Mode, run.Status, run.Targets, run.CreatedAt, run.UpdatedAt)
	return run, err
}

func (s *SQLiteStore) nextRunID(now time.Time) (string, error) {
	prefix := fmt.Sprintf("run_%s_", now.Format("20060102"))
	rows, err := s.db.Query(`SELECT id FROM runs WHERE id LIKE ?`, prefix+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()
	maxN := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		var n int
		_, _ = fmt.Sscanf(id, prefix+"%03d", &n)
		if n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, maxN+1), nil
}

func (s *SQLiteStore) GetRun(id string) (*types.Run, error) {
	row := s.db.QueryRow(`SELECT id,source,title,mode,status,targets,created_at,updated_at FROM runs WHERE id=?`, id)
	var out types.Run
	if err := row.Scan(&out.ID, &out.Source, &out.Title, &out.Mode, &out.Status, &out.Targets, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *SQLiteStore) UpdateRunStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET status=?, updated_at=? WHERE id=?`, status, time.Now().UTC(), id)
	return err
}

func (s *SQLiteStore) ListRuns() ([]types.Run, error) {
	rows, err := s.db.Query(`SELECT id,source,title,mode,status,targets,created_at,updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Run
	for rows.Next() {
		var r types.Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Title, &r.Mode, &r.Status, &r.Targets, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM drafts WHERE run_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveDraft(draft *types.Draft) error {
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO drafts(run_id,target,attempts,status,content,diagnostics,model,created_at)
	VALUES(?,?,?,?,?,?,?,?)
	ON CONFLICT(run_id,target) DO UPDATE SET attempts=excluded.attempts,status=excluded.status,content=excluded.content,diagnostics=excluded.diagnostics,model=excluded.model,created_at=excluded.created_at`,
		draft.RunID, draft.Target, draft.Attempts, draft.Status, draft.Content, draft.Diagnostics, draft.Model, draft.CreatedAt)
	return err
}

func (s *SQLiteStore) GetDrafts(runID string) ([]types.Draft, error) {
	rows, err := s.db.Query(`SELECT run_id,target,attempts,status,content,diagnostics,model,created_at FROM drafts WHERE run_id=? ORDER BY target ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Draft
	for rows.Next() {
		var d types.Draft
		if err := rows.Scan(&d.RunID, &d.Target, &d.Attempts, &d.Status, &d.Content, &d.Diagnostics, &d.Model, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetDraft(runID, target string) (*types.Draft, error) {
	row := s.db.QueryRow(`SELECT run_id,target,attempts,status,content,diagnostics,model,created_at FROM drafts WHERE run_id=? AND target=?`, runID, target)
	var d types.Draft
	if err := row.Scan(&d.RunID, &d.Target, &d.Attempts, &d.Status, &d.Content, &d.Diagnostics, &d.Model, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) ClearDrafts(runID string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE run_id=?`, runID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
