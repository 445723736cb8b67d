package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

const (
	defaultScanPageSize     = 100
	defaultScanMaxPages     = 50
	defaultFetchConcurrency = 8
	defaultCrankConcurrency = 4
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type Config struct {
	ProgramID         solana.PublicKey
	DelegationProgram solana.PublicKey

	ScanPageSize     int
	ScanMaxPages     int
	FetchConcurrency int
	CrankConcurrency int
	// CrankInterval enables the in-process crank schedule when positive.
	CrankInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.ScanPageSize <= 0 {
		c.ScanPageSize = defaultScanPageSize
	}
	if c.ScanMaxPages <= 0 {
		c.ScanMaxPages = defaultScanMaxPages
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = defaultFetchConcurrency
	}
	if c.CrankConcurrency <= 0 {
		c.CrankConcurrency = defaultCrankConcurrency
	}
	return c
}

// SignerFunc returns the key paying for and signing execution transactions.
type SignerFunc func() (solana.PrivateKey, error)

type Service struct {
	BuildInfo BuildInfo

	cfg          Config
	ledger       ports.LedgerClient
	history      ports.HistoryProvider
	repoManager  ports.RepoManager
	schedulerSvc ports.SchedulerService
	metrics      ports.Metrics
	signer       SignerFunc
	now          func() time.Time
}

type Option func(*Service)

// WithHistory adds an enhanced signature history source to the scanner.
func WithHistory(history ports.HistoryProvider) Option {
	return func(s *Service) {
		s.history = history
	}
}

func WithScheduler(schedulerSvc ports.SchedulerService) Option {
	return func(s *Service) {
		s.schedulerSvc = schedulerSvc
	}
}

func WithMetrics(metrics ports.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	buildInfo BuildInfo,
	cfg Config,
	ledger ports.LedgerClient,
	repoManager ports.RepoManager,
	signer SignerFunc,
	opts ...Option,
) (*Service, error) {
	if cfg.ProgramID.IsZero() {
		return nil, fmt.Errorf("%w: missing capsule program id", domain.ErrConfiguration)
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: missing ledger client", domain.ErrConfiguration)
	}
	if repoManager == nil {
		return nil, fmt.Errorf("%w: missing repo manager", domain.ErrConfiguration)
	}
	if signer == nil {
		signer = func() (solana.PrivateKey, error) {
			return nil, fmt.Errorf("%w: crank signer key not set", domain.ErrConfiguration)
		}
	}

	svc := &Service{
		BuildInfo:   buildInfo,
		cfg:         cfg.withDefaults(),
		ledger:      ledger,
		repoManager: repoManager,
		signer:      signer,
		metrics:     noopMetrics{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Start schedules the periodic crank when an interval is configured.
func (s *Service) Start() error {
	if s.schedulerSvc == nil || s.cfg.CrankInterval <= 0 {
		return nil
	}

	if err := s.schedulerSvc.ScheduleEvery(s.cfg.CrankInterval, func() {
		if _, err := s.RunCrank(context.Background(), domain.CrankTriggerSchedule); err != nil {
			log.WithError(err).Warn("scheduled crank failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule crank: %w", err)
	}
	s.schedulerSvc.Start()

	log.WithFields(log.Fields{
		"interval": s.cfg.CrankInterval,
		"next_run": s.schedulerSvc.WhenNextRun(),
	}).Info("crank schedule started")
	return nil
}

func (s *Service) Stop() {
	if s.schedulerSvc != nil {
		s.schedulerSvc.Stop()
	}
	s.repoManager.Close()
}

// Ping checks that the ledger answers.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.ledger.LatestBlockhash(ctx)
	return err
}

// ListCrankRuns returns the latest persisted crank runs, newest first.
func (s *Service) ListCrankRuns(ctx context.Context, limit int) ([]domain.CrankRun, error) {
	return s.repoManager.CrankRuns().GetLatest(ctx, limit)
}

type noopMetrics struct{}

func (noopMetrics) ObserveIndexPass(domain.IndexStats, bool, time.Duration)              {}
func (noopMetrics) ObserveCrankRun(domain.CrankTrigger, domain.CrankResult, time.Duration) {}
func (noopMetrics) ObserveExecution(string)                                              {}
