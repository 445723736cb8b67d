package ports

import (
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
)

type Metrics interface {
	ObserveIndexPass(stats domain.IndexStats, partial bool, took time.Duration)
	ObserveCrankRun(trigger domain.CrankTrigger, result domain.CrankResult, took time.Duration)
	ObserveExecution(outcome string)
}
