package handlers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 2 * time.Second

// Pinger checks that the ledger answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	svc Pinger
}

func NewHealthHandler(svc Pinger) grpchealth.HealthServer {
	return &healthHandler{svc: svc}
}

func (h *healthHandler) Check(
	ctx context.Context,
	_ *grpchealth.HealthCheckRequest,
) (*grpchealth.HealthCheckResponse, error) {
	if h.svc == nil {
		return &grpchealth.HealthCheckResponse{
			Status: grpchealth.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := h.svc.Ping(checkCtx); err != nil {
		log.WithError(err).Warn("health check: ledger unreachable")
		return &grpchealth.HealthCheckResponse{
			Status: grpchealth.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpchealth.HealthCheckResponse{
		Status: grpchealth.HealthCheckResponse_SERVING,
	}, nil
}

func (h *healthHandler) Watch(
	_ *grpchealth.HealthCheckRequest,
	_ grpchealth.Health_WatchServer,
) error {
	return nil
}
