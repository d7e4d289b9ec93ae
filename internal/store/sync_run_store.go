package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/reminder/internal/model"
)

// syncRunsKept is how many history rows are retained per account.
const syncRunsKept = 200

// RecordSyncRun stores one fetch outcome and prunes old history.
func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run model.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO sync_runs (
			id, login, started_at, finished_at,
			outcome, error_kind, error, record_count
		) VALUES (
			:id, :login, :started_at, :finished_at,
			:outcome, :error_kind, :error, :record_count
		)`,
		run,
	)
	if err != nil {
		return fmt.Errorf("recording sync run %s: %w", run.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE login = ? AND id NOT IN (
			SELECT id FROM sync_runs WHERE login = ?
			ORDER BY finished_at DESC, rowid DESC
			LIMIT ?
		)`,
		run.Login, run.Login, syncRunsKept,
	)
	if err != nil {
		return fmt.Errorf("pruning sync runs for %s: %w", run.Login, err)
	}

	return tx.Commit()
}

// SyncRuns returns the most recent runs for login, newest first.
func (s *SQLiteStore) SyncRuns(ctx context.Context, login string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []model.SyncRun
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, login, started_at, finished_at, outcome, error_kind, error, record_count
		FROM sync_runs
		WHERE login = ?
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?`,
		login, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs for %s: %w", login, err)
	}
	return runs, nil
}

// LastSyncRuns returns the newest run of every account that has one.
func (s *SQLiteStore) LastSyncRuns(ctx context.Context) (map[string]model.SyncRun, error) {
	var runs []model.SyncRun
	err := s.db.SelectContext(ctx, &runs, `
		SELECT r.id, r.login, r.started_at, r.finished_at,
		       r.outcome, r.error_kind, r.error, r.record_count
		FROM sync_runs r
		WHERE r.rowid = (
			SELECT rowid FROM sync_runs
			WHERE login = r.login
			ORDER BY finished_at DESC, rowid DESC
			LIMIT 1
		)`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying last sync runs: %w", err)
	}

	out := make(map[string]model.SyncRun, len(runs))
	for _, r := range runs {
		out[r.Login] = r
	}
	return out, nil
}
