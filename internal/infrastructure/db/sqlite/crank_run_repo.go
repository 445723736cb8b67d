package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
)

type crankRunRepository struct {
	db *sql.DB
}

func NewCrankRunRepository(db *sql.DB) (domain.CrankRunRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open crank run repository: db is nil")
	}
	return &crankRunRepository{db}, nil
}

const (
	insertCrankRun = `
INSERT INTO crank_run (
    id, trigger_source, started_at, finished_at, eligible_count, executed_count, errors
) VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectCrankRun = `
SELECT id, trigger_source, started_at, finished_at, eligible_count, executed_count, errors
FROM crank_run`
)

func (r *crankRunRepository) Add(ctx context.Context, run domain.CrankRun) error {
	if run.ID == "" {
		return fmt.Errorf("missing crank run id")
	}
	errs := run.Result.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to encode crank run errors: %w", err)
	}

	if _, err := r.db.ExecContext(
		ctx, insertCrankRun,
		run.ID, string(run.Trigger),
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.Result.EligibleCount, run.Result.ExecutedCount,
		string(errsJSON),
	); err != nil {
		return fmt.Errorf("failed to insert crank run: %w", err)
	}
	return nil
}

func (r *crankRunRepository) GetByID(ctx context.Context, id string) (*domain.CrankRun, error) {
	row := r.db.QueryRowContext(ctx, selectCrankRun+" WHERE id = ?", id)
	run, err := scanCrankRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("crank run not found for id: %s", id)
		}
		return nil, fmt.Errorf("failed to get crank run: %w", err)
	}
	return run, nil
}

func (r *crankRunRepository) GetLatest(ctx context.Context, limit int) ([]domain.CrankRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(
		ctx, selectCrankRun+" ORDER BY started_at DESC, id ASC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list crank runs: %w", err)
	}
	// nolint:errcheck
	defer rows.Close()

	runs := make([]domain.CrankRun, 0)
	for rows.Next() {
		run, err := scanCrankRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read crank run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *crankRunRepository) Close() {
	// nolint:all
	r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrankRun(row rowScanner) (*domain.CrankRun, error) {
	var (
		run                   domain.CrankRun
		trigger, errsJSON     string
		startedAt, finishedAt int64
	)
	if err := row.Scan(
		&run.ID, &trigger, &startedAt, &finishedAt,
		&run.Result.EligibleCount, &run.Result.ExecutedCount, &errsJSON,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(errsJSON), &run.Result.Errors); err != nil {
		return nil, fmt.Errorf("invalid errors column: %w", err)
	}
	if len(run.Result.Errors) == 0 {
		run.Result.Errors = nil
	}
	run.Trigger = domain.CrankTrigger(trigger)
	run.StartedAt = time.Unix(0, startedAt)
	run.FinishedAt = time.Unix(0, finishedAt)
	return &run, nil
}
