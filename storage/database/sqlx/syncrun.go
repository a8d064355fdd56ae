package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core/datasync"
)

type syncRunRepository struct {
	db *sqlx.DB
}

var _ datasync.Recorder = (*syncRunRepository)(nil)

func NewSyncRunRepository(db *sqlx.DB) datasync.Recorder {
	return &syncRunRepository{db: db}
}

func (repo *syncRunRepository) RecordRun(ctx context.Context, run datasync.Run) (datasync.Run, error) {
	// jsonb takes the payload as text
	payload := null.NewString(string(run.Payload.JSON), run.Payload.Valid)
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO sync_runs (adaptor, status, records, message, payload, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		RETURNING id`,
		run.Adaptor, run.Status, run.Records, run.Message, payload, run.StartedAt, run.FinishedAt,
	).Scan(&run.ID)
	if err != nil {
		return datasync.Run{}, errors.Wrap(err, "recording sync run")
	}
	return run, nil
}

func (repo *syncRunRepository) QueryRuns(ctx context.Context, limit int) ([]datasync.Run, error) {
	runs := []datasync.Run{}
	err := repo.db.SelectContext(ctx, &runs,
		`SELECT id, adaptor, status, records, message, payload, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying sync runs")
	}
	return runs, nil
}
