package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ArkLabsHQ/sentinel/internal/config"
	"github.com/ArkLabsHQ/sentinel/internal/core/application"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/db"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/history"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/ledger"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/metrics"
	scheduler "github.com/ArkLabsHQ/sentinel/internal/infrastructure/scheduler/gocron"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/telemetry"
	grpcservice "github.com/ArkLabsHQ/sentinel/internal/interface/grpc"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	sentryEnabled := !cfg.DisableTelemetry && cfg.SentryDSN != ""
	if sentryEnabled {
		flush, err := telemetry.InitSentry(cfg.SentryDSN, version)
		if err != nil {
			log.WithError(err).Fatal("failed to init sentry")
		}
		defer flush()
	}

	log.Info("starting sentinel...")

	dbConfig := []any{cfg.Datadir, log.StandardLogger()}
	if cfg.DbType == "sqlite" {
		dbConfig = []any{cfg.Datadir}
	}
	repoManager, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: dbConfig,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	ledgerClient := ledger.NewRetryingClient(
		ledger.NewSolanaClient(cfg.RpcURL, cfg.RpcCommitment),
		ledger.RetryConfig{
			MaxAttempts:       cfg.RpcMaxAttempts,
			BaseDelay:         cfg.RpcBaseDelay,
			MaxDelay:          cfg.RpcMaxDelay,
			RequestsPerSecond: cfg.RpcRps,
			MaxInFlight:       cfg.RpcMaxInflight,
			RequestTimeout:    cfg.RpcRequestTimeout,
		},
	)

	opts := []application.Option{
		application.WithScheduler(scheduler.NewScheduler()),
		application.WithMetrics(metrics.NewRecorder()),
	}
	if cfg.HeliusApiKey != "" {
		historySvc := history.NewHeliusService(cfg.HeliusURL, cfg.HeliusApiKey)
		opts = append(opts, application.WithHistory(historySvc))
	}

	buildInfo := application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	appSvc, err := application.NewService(
		buildInfo,
		application.Config{
			ProgramID:         cfg.ProgramKey(),
			DelegationProgram: cfg.DelegationProgramKey(),
			ScanPageSize:      cfg.ScanPageSize,
			ScanMaxPages:      cfg.ScanMaxPages,
			FetchConcurrency:  cfg.FetchConcurrency,
			CrankConcurrency:  cfg.CrankConcurrency,
			CrankInterval:     cfg.CrankInterval,
		},
		ledgerClient, repoManager, cfg.Signer, opts...,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init application service")
	}

	if _, err := cfg.Signer(); err != nil {
		log.WithError(err).Warn("crank signer unavailable, crank runs will fail")
	}

	svc, err := grpcservice.NewService(
		grpcservice.Config{
			GRPCPort: cfg.GRPCPort,
			HTTPPort: cfg.HTTPPort,
		},
		appSvc, cfg.CrankSecret, sentryEnabled,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init interface service")
	}

	log.RegisterExitHandler(svc.Stop)

	log.WithFields(log.Fields{
		"version": version,
		"program": cfg.ProgramKey(),
		"rpc":     cfg.RpcURL,
	}).Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
