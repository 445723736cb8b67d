package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/interface/web/types"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

func (s *service) runCrank(c *gin.Context) {
	result, err := s.svc.RunCrank(c.Request.Context(), domain.CrankTriggerHTTP)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, types.NewCrankResult(*result))
}

func (s *service) listCrankRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.svc.ListCrankRuns(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, types.NewCrankRuns(runs))
}

func (s *service) listCapsules(c *gin.Context) {
	result, err := s.svc.IndexCapsules(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, types.NewIndex(*result))
}

func (s *service) getCapsule(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid capsule address"))
		return
	}

	capsule, err := s.svc.GetCapsule(c.Request.Context(), address)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrCapsuleNotFound) {
			status = http.StatusNotFound
		}
		abortWithError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, types.NewCapsule(*capsule))
}

func (s *service) listEligible(c *gin.Context) {
	report, err := s.svc.FindEligible(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, types.NewEligible(report.Capsules, report.Errors))
}

// abortWithError records err for the middlewares and replies with a JSON
// error body.
func abortWithError(c *gin.Context, status int, err error) {
	// nolint
	c.Error(err)
	c.AbortWithStatusJSON(status, types.Error{Error: err.Error()})
}
