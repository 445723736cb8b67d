package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/ArkLabsHQ/sentinel/internal/infrastructure/metrics"
	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts    = 5
	defaultBaseDelay      = 500 * time.Millisecond
	defaultMaxDelay       = 10 * time.Second
	defaultMaxInFlight    = 8
	defaultRequestTimeout = 30 * time.Second
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RequestsPerSecond caps the request rate, 0 means unlimited.
	RequestsPerSecond float64
	MaxInFlight       int
	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = max(defaultMaxDelay, c.BaseDelay)
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = defaultMaxInFlight
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// retryingClient wraps a LedgerClient with a shared rate limit, a cap on
// in-flight requests and exponential backoff for transient failures.
type retryingClient struct {
	inner    ports.LedgerClient
	cfg      RetryConfig
	limiter  *rate.Limiter
	inflight *semaphore.Weighted
}

func NewRetryingClient(inner ports.LedgerClient, cfg RetryConfig) ports.LedgerClient {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &retryingClient{
		inner:    inner,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.MaxInFlight),
		inflight: semaphore.NewWeighted(int64(cfg.MaxInFlight)),
	}
}

func (c *retryingClient) GetProgramAccounts(
	ctx context.Context, program solana.PublicKey, discriminator []byte,
) ([]domain.AccountInfo, error) {
	var out []domain.AccountInfo
	err := c.do(ctx, "getProgramAccounts", isRetryable, func(ctx context.Context) (err error) {
		out, err = c.inner.GetProgramAccounts(ctx, program, discriminator)
		return
	})
	return out, err
}

func (c *retryingClient) GetSignatures(
	ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error) {
	var out []domain.SignatureInfo
	err := c.do(ctx, "getSignaturesForAddress", isRetryable, func(ctx context.Context) (err error) {
		out, err = c.inner.GetSignatures(ctx, address, before, limit)
		return
	})
	return out, err
}

func (c *retryingClient) GetTransaction(
	ctx context.Context, signature solana.Signature,
) (*domain.TxRecord, error) {
	var out *domain.TxRecord
	err := c.do(ctx, "getTransaction", isRetryable, func(ctx context.Context) (err error) {
		out, err = c.inner.GetTransaction(ctx, signature)
		return
	})
	return out, err
}

func (c *retryingClient) GetAccountInfo(
	ctx context.Context, address solana.PublicKey,
) (*domain.AccountInfo, error) {
	var out *domain.AccountInfo
	err := c.do(ctx, "getAccountInfo", isRetryable, func(ctx context.Context) (err error) {
		out, err = c.inner.GetAccountInfo(ctx, address)
		return
	})
	return out, err
}

// SubmitTransaction is only retried when the node surely did not accept the
// transaction, e.g. it was rate limited or refused the connection.
func (c *retryingClient) SubmitTransaction(
	ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey,
) (solana.Signature, error) {
	var out solana.Signature
	err := c.do(ctx, "sendTransaction", isSafeToResend, func(ctx context.Context) (err error) {
		out, err = c.inner.SubmitTransaction(ctx, instructions, signer)
		return
	})
	if err != nil && !errors.Is(err, domain.ErrSubmission) && ctx.Err() == nil {
		err = fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	return out, err
}

func (c *retryingClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var out solana.Hash
	err := c.do(ctx, "getLatestBlockhash", isRetryable, func(ctx context.Context) (err error) {
		out, err = c.inner.LatestBlockhash(ctx)
		return
	})
	return out, err
}

func (c *retryingClient) do(
	ctx context.Context, method string, retryable func(error) bool,
	call func(context.Context) error,
) error {
	backoff := c.cfg.BaseDelay

	for attempt := 1; ; attempt++ {
		err := c.attempt(ctx, call)
		if err == nil {
			metrics.RecordRPC(method, "ok")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !retryable(err) {
			metrics.RecordRPC(method, "terminal")
			return fmt.Errorf("%w: %s: %w", domain.ErrTerminalRPC, method, err)
		}
		if attempt >= c.cfg.MaxAttempts {
			metrics.RecordRPC(method, "exhausted")
			return fmt.Errorf(
				"%w: %s failed after %d attempts: %w", domain.ErrTransientRPC, method, attempt, err,
			)
		}

		metrics.RecordRPC(method, "retry")
		log.WithError(err).WithFields(log.Fields{
			"method":  method,
			"attempt": attempt,
			"backoff": backoff,
		}).Debug("ledger request failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.cfg.MaxDelay)
	}
}

func (c *retryingClient) attempt(ctx context.Context, call func(context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.inflight.Release(1)

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return call(attemptCtx)
}
