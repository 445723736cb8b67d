package web

import (
	"context"
	"net/http"

	"github.com/ArkLabsHQ/sentinel/internal/core/application"
	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppService is the part of the application service exposed over HTTP.
type AppService interface {
	RunCrank(ctx context.Context, trigger domain.CrankTrigger) (*domain.CrankResult, error)
	ListCrankRuns(ctx context.Context, limit int) ([]domain.CrankRun, error)
	IndexCapsules(ctx context.Context) (*domain.IndexResult, error)
	GetCapsule(ctx context.Context, address solana.PublicKey) (*domain.IndexedCapsule, error)
	FindEligible(ctx context.Context) (*application.EligibilityReport, error)
}

type service struct {
	svc         AppService
	crankSecret string
}

// NewService returns the HTTP handler serving the crank trigger and the
// dashboard API. An empty crankSecret leaves the crank endpoint open.
func NewService(svc AppService, crankSecret string, sentryEnabled bool) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	s := &service{svc: svc, crankSecret: crankSecret}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if sentryEnabled {
		router.Use(SentryMiddleware())
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		crank := api.Group("/crank", BearerAuth(crankSecret))
		crank.GET("", s.runCrank)
		crank.POST("", s.runCrank)
		crank.GET("/runs", s.listCrankRuns)

		api.GET("/capsules", s.listCapsules)
		api.GET("/capsules/:address", s.getCapsule)
		api.GET("/eligible", s.listEligible)
	}

	return router
}
