package ports

import "github.com/ArkLabsHQ/sentinel/internal/core/domain"

type RepoManager interface {
	CrankRuns() domain.CrankRunRepository
	Close()
}
