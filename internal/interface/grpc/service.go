package grpc_interface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/application"
	"github.com/ArkLabsHQ/sentinel/internal/interface/grpc/handlers"
	"github.com/ArkLabsHQ/sentinel/internal/interface/grpc/interceptors"
	"github.com/ArkLabsHQ/sentinel/internal/interface/web"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

type service struct {
	cfg        Config
	appSvc     *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
}

func NewService(
	cfg Config,
	appSvc *application.Service,
	crankSecret string,
	sentryEnabled bool,
) (*service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}

	grpcServer := grpc.NewServer(
		interceptors.UnaryInterceptor(sentryEnabled),
		interceptors.StreamInterceptor(sentryEnabled),
		grpc.Creds(insecure.NewCredentials()),
	)

	healthHandler := handlers.NewHealthHandler(appSvc)
	grpchealth.RegisterHealthServer(grpcServer, healthHandler)

	var httpHandler http.Handler = web.NewService(appSvc, crankSecret, sentryEnabled)
	if cfg.insecure() {
		httpHandler = h2c.NewHandler(httpHandler, &http2.Server{})
	}

	httpServer := &http.Server{
		Addr:              cfg.httpAddress(),
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &service{
		cfg:        cfg,
		appSvc:     appSvc,
		httpServer: httpServer,
		grpcServer: grpcServer,
	}, nil
}

func (s *service) Start() error {
	if err := s.appSvc.Start(); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.grpcAddress())
	if err != nil {
		return err
	}
	// nolint:all
	go s.grpcServer.Serve(listener)
	log.Infof("started GRPC server at %s", s.cfg.grpcAddress())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server stopped")
		}
	}()
	log.Infof("started HTTP server at %s", s.cfg.httpAddress())

	return nil
}

func (s *service) Stop() {
	s.grpcServer.GracefulStop()
	log.Info("stopped GRPC server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// nolint:all
	s.httpServer.Shutdown(ctx)
	log.Info("stopped HTTP server")

	s.appSvc.Stop()
	log.Info("stopped app service")
}
