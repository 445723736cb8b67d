package domain

import (
	"context"
	"time"
)

// CrankResult summarizes one crank pass.
type CrankResult struct {
	EligibleCount int
	ExecutedCount int
	// Errors holds one entry per failed capsule, "<address>: <reason>".
	Errors []string
}

// OK is true only when no capsule failed.
func (r CrankResult) OK() bool {
	return len(r.Errors) == 0
}

type CrankTrigger string

const (
	CrankTriggerHTTP     CrankTrigger = "http"
	CrankTriggerSchedule CrankTrigger = "schedule"
)

// CrankRun is the persisted history entry of a crank invocation.
type CrankRun struct {
	ID         string
	Trigger    CrankTrigger
	StartedAt  time.Time
	FinishedAt time.Time
	Result     CrankResult
}

type CrankRunRepository interface {
	Add(ctx context.Context, run CrankRun) error
	GetByID(ctx context.Context, id string) (*CrankRun, error)
	// GetLatest returns at most limit runs, newest first.
	GetLatest(ctx context.Context, limit int) ([]CrankRun, error)
	Close()
}
