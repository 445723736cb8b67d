package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	crankRunDir = "crank_runs"
)

type crankRunRepository struct {
	store *badgerhold.Store
}

func NewCrankRunRepository(
	baseDir string, logger badger.Logger,
) (domain.CrankRunRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, crankRunDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open crank run store: %s", err)
	}
	return &crankRunRepository{store}, nil
}

type crankRunData struct {
	ID            string
	Trigger       domain.CrankTrigger
	StartedAt     int64 `badgerhold:"index"`
	FinishedAt    int64
	EligibleCount int
	ExecutedCount int
	Errors        []string
}

func toCrankRunData(run domain.CrankRun) crankRunData {
	return crankRunData{
		ID:            run.ID,
		Trigger:       run.Trigger,
		StartedAt:     run.StartedAt.UnixNano(),
		FinishedAt:    run.FinishedAt.UnixNano(),
		EligibleCount: run.Result.EligibleCount,
		ExecutedCount: run.Result.ExecutedCount,
		Errors:        run.Result.Errors,
	}
}

func (d crankRunData) toCrankRun() domain.CrankRun {
	return domain.CrankRun{
		ID:         d.ID,
		Trigger:    d.Trigger,
		StartedAt:  time.Unix(0, d.StartedAt),
		FinishedAt: time.Unix(0, d.FinishedAt),
		Result: domain.CrankResult{
			EligibleCount: d.EligibleCount,
			ExecutedCount: d.ExecutedCount,
			Errors:        d.Errors,
		},
	}
}

func (r *crankRunRepository) Add(ctx context.Context, run domain.CrankRun) error {
	if run.ID == "" {
		return fmt.Errorf("missing crank run id")
	}
	data := toCrankRunData(run)

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxInsert(tx, run.ID, data)
	}
	return r.store.Insert(run.ID, data)
}

func (r *crankRunRepository) GetByID(ctx context.Context, id string) (*domain.CrankRun, error) {
	var data crankRunData
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, id, &data)
	} else {
		err = r.store.Get(id, &data)
	}

	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("crank run not found for id: %s", id)
		}
		return nil, err
	}

	run := data.toCrankRun()
	return &run, nil
}

func (r *crankRunRepository) GetLatest(ctx context.Context, limit int) ([]domain.CrankRun, error) {
	query := (&badgerhold.Query{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []crankRunData
	if err := r.store.Find(&runs, query); err != nil {
		return nil, err
	}

	out := make([]domain.CrankRun, 0, len(runs))
	for _, data := range runs {
		out = append(out, data.toCrankRun())
	}
	return out, nil
}

func (r *crankRunRepository) Close() {
	// nolint:all
	r.store.Close()
}
