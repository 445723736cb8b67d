package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/application"
	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/interface/web"
	"github.com/ArkLabsHQ/sentinel/internal/interface/web/types"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var (
	capsuleAddr = solana.PublicKey{1}
	ownerAddr   = solana.PublicKey{2}
)

type fakeApp struct {
	crankResult *domain.CrankResult
	crankErr    error
	crankCalls  int
	runs        []domain.CrankRun
	runsLimit   int
	index       *domain.IndexResult
	indexErr    error
	eligible    *application.EligibilityReport
}

func (a *fakeApp) RunCrank(
	_ context.Context, trigger domain.CrankTrigger,
) (*domain.CrankResult, error) {
	a.crankCalls++
	if trigger != domain.CrankTriggerHTTP {
		return nil, fmt.Errorf("unexpected trigger %s", trigger)
	}
	return a.crankResult, a.crankErr
}

func (a *fakeApp) ListCrankRuns(_ context.Context, limit int) ([]domain.CrankRun, error) {
	a.runsLimit = limit
	return a.runs, nil
}

func (a *fakeApp) IndexCapsules(context.Context) (*domain.IndexResult, error) {
	return a.index, a.indexErr
}

func (a *fakeApp) GetCapsule(
	_ context.Context, address solana.PublicKey,
) (*domain.IndexedCapsule, error) {
	if a.indexErr != nil {
		return nil, a.indexErr
	}
	for i := range a.index.Capsules {
		if a.index.Capsules[i].Address.Equals(address) {
			return &a.index.Capsules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCapsuleNotFound, address)
}

func (a *fakeApp) FindEligible(context.Context) (*application.EligibilityReport, error) {
	return a.eligible, nil
}

func newFakeApp() *fakeApp {
	executedAt := int64(1_700_000_500)
	blockTime := int64(1_700_000_400)
	native := -1.5
	created := domain.CapsuleEvent{
		Signature:      solana.Signature{7},
		BlockTime:      &blockTime,
		Status:         domain.EventStatusSuccess,
		Kind:           domain.EventCreated,
		CapsuleAddress: capsuleAddr,
		OwnerAddress:   &ownerAddr,
		NativeDelta:    &native,
	}
	return &fakeApp{
		crankResult: &domain.CrankResult{EligibleCount: 2, ExecutedCount: 2},
		runs: []domain.CrankRun{{
			ID:         "run-1",
			Trigger:    domain.CrankTriggerSchedule,
			StartedAt:  time.Unix(1_700_000_000, 0),
			FinishedAt: time.Unix(1_700_000_002, 0),
			Result:     domain.CrankResult{EligibleCount: 1, Errors: []string{"x: boom"}},
		}},
		index: &domain.IndexResult{
			Capsules: []domain.IndexedCapsule{{
				Address: capsuleAddr,
				Capsule: domain.Capsule{
					Owner:            ownerAddr,
					InactivityPeriod: 100,
					LastActivity:     1_700_000_000,
					IntentData:       []byte(`{"type":"token"}`),
					ExecutedAt:       &executedAt,
				},
				Status: domain.CapsuleStatusExecuted,
				Events: []domain.CapsuleEvent{created},
			}},
			Activity: []domain.CapsuleEvent{created},
			Stats:    domain.IndexStats{Accounts: 1, Transactions: 3},
		},
		eligible: &application.EligibilityReport{
			Capsules: []domain.EligibleCapsule{{
				CapsuleAccount: domain.CapsuleAccount{
					Address: capsuleAddr,
					Capsule: domain.Capsule{Owner: ownerAddr, InactivityPeriod: 10, LastActivity: 5},
				},
				IntentErr: fmt.Errorf("%w: unknown type", domain.ErrIntentParse),
			}},
		},
	}
}

func doRequest(
	t *testing.T, handler http.Handler, method, path, token string,
) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCrankEndpoint(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		app := newFakeApp()
		handler := web.NewService(app, "s3cret", false)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := doRequest(t, handler, method, "/api/crank", "s3cret")
			require.Equal(t, http.StatusOK, rec.Code)

			got := decode[types.CrankResult](t, rec)
			require.Equal(t, types.CrankResult{
				EligibleCount: 2,
				ExecutedCount: 2,
				Errors:        []string{},
				OK:            true,
			}, got)
			require.Contains(t, rec.Body.String(), `"errors":[]`)
		}
		require.Equal(t, 2, app.crankCalls)
	})

	t.Run("open when no secret", func(t *testing.T) {
		app := newFakeApp()
		app.crankResult = &domain.CrankResult{
			EligibleCount: 1, Errors: []string{"abc: submission failed"},
		}
		handler := web.NewService(app, "", false)

		rec := doRequest(t, handler, http.MethodPost, "/api/crank", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[types.CrankResult](t, rec)
		require.False(t, got.OK)
		require.Equal(t, []string{"abc: submission failed"}, got.Errors)
	})

	t.Run("invalid", func(t *testing.T) {
		app := newFakeApp()
		handler := web.NewService(app, "s3cret", false)

		for _, token := range []string{"", "wrong", "s3cret2", "S3CRET"} {
			rec := doRequest(t, handler, http.MethodPost, "/api/crank", token)
			require.Equal(t, http.StatusUnauthorized, rec.Code, token)
			require.Equal(t, "unauthorized", decode[types.Error](t, rec).Error)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/crank", nil)
		req.Header.Set("Authorization", "Basic s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		require.Zero(t, app.crankCalls)
	})

	t.Run("signer not configured", func(t *testing.T) {
		app := newFakeApp()
		app.crankErr = fmt.Errorf("%w: crank signer key not set", domain.ErrConfiguration)
		handler := web.NewService(app, "", false)

		rec := doRequest(t, handler, http.MethodGet, "/api/crank", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, decode[types.Error](t, rec).Error, "crank signer key not set")
	})
}

func TestCrankRunsEndpoint(t *testing.T) {
	app := newFakeApp()
	handler := web.NewService(app, "s3cret", false)

	rec := doRequest(t, handler, http.MethodGet, "/api/crank/runs", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/crank/runs", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 20, app.runsLimit)

	runs := decode[[]types.CrankRun](t, rec)
	require.Len(t, runs, 1)
	require.Equal(t, "run-1", runs[0].ID)
	require.Equal(t, "schedule", runs[0].Trigger)
	require.Equal(t, "2023-11-14T22:13:20Z", runs[0].StartedAt)
	require.Equal(t, int64(2000), runs[0].DurationMs)
	require.False(t, runs[0].Result.OK)

	rec = doRequest(t, handler, http.MethodGet, "/api/crank/runs?limit=9999", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 500, app.runsLimit)

	for _, limit := range []string{"0", "-1", "ten"} {
		rec = doRequest(t, handler, http.MethodGet, "/api/crank/runs?limit="+limit, "s3cret")
		require.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	t.Run("capsules", func(t *testing.T) {
		handler := web.NewService(newFakeApp(), "s3cret", false)

		rec := doRequest(t, handler, http.MethodGet, "/api/capsules", "")
		require.Equal(t, http.StatusOK, rec.Code)

		index := decode[types.Index](t, rec)
		require.Len(t, index.Capsules, 1)
		require.Equal(t, capsuleAddr.String(), index.Capsules[0].Address)
		require.Equal(t, "Executed", index.Capsules[0].Status)
		require.Equal(t, int64(1_700_000_100), index.Capsules[0].Deadline)
		require.JSONEq(t, `{"type":"token"}`, string(index.Capsules[0].Intent))
		require.Len(t, index.Activity, 1)
		require.Equal(t, "created", index.Activity[0].Kind)
		require.Equal(t, ownerAddr.String(), *index.Activity[0].Owner)
		require.Equal(t, -1.5, *index.Activity[0].NativeDelta)
		require.Nil(t, index.Activity[0].TokenDelta)
		require.Equal(t, 3, index.Stats.Transactions)
	})

	t.Run("capsule", func(t *testing.T) {
		handler := web.NewService(newFakeApp(), "", false)

		rec := doRequest(t, handler, http.MethodGet, "/api/capsules/"+capsuleAddr.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		capsule := decode[types.Capsule](t, rec)
		require.Equal(t, ownerAddr.String(), capsule.Owner)
		require.Len(t, capsule.Events, 1)

		rec = doRequest(t, handler, http.MethodGet, "/api/capsules/"+ownerAddr.String(), "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, handler, http.MethodGet, "/api/capsules/not-an-address", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ledger failure", func(t *testing.T) {
		app := newFakeApp()
		app.indexErr = fmt.Errorf("%w: getProgramAccounts", domain.ErrTransientRPC)
		handler := web.NewService(app, "", false)

		rec := doRequest(t, handler, http.MethodGet, "/api/capsules", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)

		rec = doRequest(t, handler, http.MethodGet, "/api/capsules/"+capsuleAddr.String(), "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.True(t, strings.Contains(decode[types.Error](t, rec).Error, "getProgramAccounts"))
	})

	t.Run("eligible", func(t *testing.T) {
		handler := web.NewService(newFakeApp(), "", false)

		rec := doRequest(t, handler, http.MethodGet, "/api/eligible", "")
		require.Equal(t, http.StatusOK, rec.Code)
		eligible := decode[types.Eligible](t, rec)
		require.Len(t, eligible.Capsules, 1)
		require.Equal(t, int64(15), eligible.Capsules[0].Deadline)
		require.Empty(t, eligible.Capsules[0].IntentType)
		require.Contains(t, eligible.Capsules[0].IntentError, "unknown type")
		require.NotNil(t, eligible.Errors)
	})

	t.Run("health and metrics", func(t *testing.T) {
		handler := web.NewService(newFakeApp(), "s3cret", false)

		rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())

		rec = doRequest(t, handler, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "go_goroutines")
	})
}
