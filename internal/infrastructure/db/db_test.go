package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	baseTime = time.Unix(1_790_000_000, 0)
)

func makeCrankRun(offset time.Duration, trigger domain.CrankTrigger, errs ...string) domain.CrankRun {
	return domain.CrankRun{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		StartedAt:  baseTime.Add(offset),
		FinishedAt: baseTime.Add(offset + 3*time.Second),
		Result: domain.CrankResult{
			EligibleCount: 2 + len(errs),
			ExecutedCount: 2,
			Errors:        errs,
		},
	}
}

func TestRepoManager(t *testing.T) {
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "badger in memory",
			config: db.ServiceConfig{
				DbType:   "badger",
				DbConfig: []any{"", nil},
			},
		},
		{
			name: "badger on disk",
			config: db.ServiceConfig{
				DbType:   "badger",
				DbConfig: []any{t.TempDir(), nil},
			},
		},
		{
			name: "sqlite",
			config: db.ServiceConfig{
				DbType:   "sqlite",
				DbConfig: []any{t.TempDir()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			defer svc.Close()

			testCrankRunRepository(t, svc)
		})
	}
}

func TestInvalidServiceConfig(t *testing.T) {
	tests := []db.ServiceConfig{
		{DbType: "postgres"},
		{DbType: "badger", DbConfig: []any{""}},
		{DbType: "badger", DbConfig: []any{42, nil}},
		{DbType: "badger", DbConfig: []any{"", "not a logger"}},
		{DbType: "sqlite"},
	}
	for _, cfg := range tests {
		svc, err := db.NewService(cfg)
		require.Error(t, err)
		require.Nil(t, svc)
	}
}

func testCrankRunRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("crank run repository", func(t *testing.T) {
		repo := svc.CrankRuns()

		first := makeCrankRun(0, domain.CrankTriggerSchedule)
		second := makeCrankRun(time.Minute, domain.CrankTriggerHTTP, "addr: invalid intent payload")
		third := makeCrankRun(2*time.Minute, domain.CrankTriggerSchedule)

		runs, err := repo.GetLatest(ctx, 10)
		require.NoError(t, err)
		require.Empty(t, runs)

		// Inserted out of order on purpose.
		for _, run := range []domain.CrankRun{second, third, first} {
			require.NoError(t, repo.Add(ctx, run))
		}

		err = repo.Add(ctx, first)
		require.Error(t, err)

		err = repo.Add(ctx, domain.CrankRun{})
		require.Error(t, err)

		got, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.Equal(t, second.ID, got.ID)
		require.Equal(t, second.Trigger, got.Trigger)
		require.True(t, second.StartedAt.Equal(got.StartedAt))
		require.True(t, second.FinishedAt.Equal(got.FinishedAt))
		require.Equal(t, second.Result, got.Result)

		got, err = repo.GetByID(ctx, uuid.NewString())
		require.Error(t, err)
		require.Nil(t, got)

		runs, err = repo.GetLatest(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		require.Equal(t, third.ID, runs[0].ID)
		require.Equal(t, second.ID, runs[1].ID)

		runs, err = repo.GetLatest(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		require.Equal(t, first.ID, runs[2].ID)
		require.Nil(t, runs[2].Result.Errors)
	})
}
