package inmemdb

import (
	"context"

	"github.com/YounesFetouaki/edu-path/core/datasync"
)

type syncRunRepository struct {
	db *DB
}

var _ datasync.Recorder = (*syncRunRepository)(nil)

func NewSyncRunRepository(db *DB) datasync.Recorder {
	return &syncRunRepository{db: db}
}

func (repo *syncRunRepository) RecordRun(ctx context.Context, run datasync.Run) (datasync.Run, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	run.ID = repo.db.nextID("sync_runs")
	repo.db.syncRuns = append(repo.db.syncRuns, run)
	return run, nil
}

func (repo *syncRunRepository) QueryRuns(ctx context.Context, limit int) ([]datasync.Run, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	runs := make([]datasync.Run, 0, limit)
	for i := len(repo.db.syncRuns) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, repo.db.syncRuns[i])
	}
	return runs, nil
}
