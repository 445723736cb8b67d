package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/pkg/capsule"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	ExecutionSucceeded       = "executed"
	ExecutionFailed          = "failed"
	ExecutionAlreadyExecuted = "already_executed"
	ExecutionInvalidIntent   = "invalid_intent"
)

// RunCrank submits one execution transaction per eligible capsule. Failures
// of single capsules are collected in the result; an error is returned only
// when the pass could not run at all, e.g. a missing signer key.
func (s *Service) RunCrank(
	ctx context.Context, trigger domain.CrankTrigger,
) (*domain.CrankResult, error) {
	startedAt := s.now()
	started := time.Now()

	signer, err := s.signer()
	if err != nil {
		if !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %s", domain.ErrConfiguration, err)
		}
		return nil, err
	}

	report, err := s.FindEligible(ctx)
	if err != nil {
		return nil, err
	}

	result := domain.CrankResult{
		EligibleCount: len(report.Capsules),
		Errors:        append([]string{}, report.Errors...),
	}

	execErrs := make([]error, len(report.Capsules))
	g := &errgroup.Group{}
	g.SetLimit(s.cfg.CrankConcurrency)
	for i, c := range report.Capsules {
		g.Go(func() error {
			execErrs[i] = s.executeCapsule(ctx, signer, c)
			return nil
		})
	}
	// nolint:errcheck
	g.Wait()

	for i, c := range report.Capsules {
		if execErrs[i] == nil {
			result.ExecutedCount++
			continue
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", c.Address, execErrs[i]))
	}

	s.metrics.ObserveCrankRun(trigger, result, time.Since(started))
	s.saveCrankRun(ctx, trigger, startedAt, result)

	logger := log.WithFields(log.Fields{
		"trigger":  trigger,
		"eligible": result.EligibleCount,
		"executed": result.ExecutedCount,
		"errors":   len(result.Errors),
	})
	if result.OK() {
		logger.Info("crank pass done")
	} else {
		logger.Warn("crank pass done with errors")
	}

	return &result, nil
}

func (s *Service) executeCapsule(
	ctx context.Context, signer solana.PrivateKey, c domain.EligibleCapsule,
) error {
	if c.IntentErr != nil {
		s.metrics.ObserveExecution(ExecutionInvalidIntent)
		log.WithError(c.IntentErr).Warnf("skipping capsule %s", c.Address)
		return c.IntentErr
	}

	opts := capsule.ExecuteOpts{
		ProgramID: s.cfg.ProgramID,
		Addresses: capsule.Addresses{
			Capsule:   c.Address,
			Vault:     c.Vault,
			FeeConfig: c.FeeConfig,
		},
		Owner: c.Capsule.Owner,
		Payer: signer.PublicKey(),
	}
	switch {
	case c.Intent.Token != nil:
		opts.Mint = c.Intent.Token.Mint
		opts.Beneficiaries = c.Intent.Recipients()
	case c.Intent.NFT != nil:
		for _, a := range c.Intent.NFT.Assignments {
			opts.NFTs = append(opts.NFTs, capsule.NFTTransfer{Mint: a.Mint, Recipient: a.Recipient})
		}
	}

	ix, err := capsule.NewExecuteInstruction(opts)
	if err != nil {
		s.metrics.ObserveExecution(ExecutionInvalidIntent)
		return fmt.Errorf("%w: %s", domain.ErrIntentParse, err)
	}

	sig, err := s.ledger.SubmitTransaction(ctx, []solana.Instruction{ix}, signer)
	if err != nil {
		if isAlreadyExecuted(err) {
			s.metrics.ObserveExecution(ExecutionAlreadyExecuted)
			log.Infof("capsule %s was executed by someone else", c.Address)
		} else {
			s.metrics.ObserveExecution(ExecutionFailed)
			log.WithError(err).Warnf("failed to execute capsule %s", c.Address)
		}
		if !errors.Is(err, domain.ErrSubmission) {
			err = fmt.Errorf("%w: %s", domain.ErrSubmission, err)
		}
		return err
	}

	s.metrics.ObserveExecution(ExecutionSucceeded)
	log.WithField("signature", sig).Infof("executed capsule %s", c.Address)
	return nil
}

// isAlreadyExecuted detects the program rejection raised when another crank
// executed the capsule first.
func isAlreadyExecuted(err error) bool {
	msg := strings.NewReplacer(" ", "", "_", "").Replace(strings.ToLower(err.Error()))
	return strings.Contains(msg, "alreadyexecuted")
}

func (s *Service) saveCrankRun(
	ctx context.Context, trigger domain.CrankTrigger, startedAt time.Time,
	result domain.CrankResult,
) {
	run := domain.CrankRun{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		StartedAt:  startedAt,
		FinishedAt: s.now(),
		Result:     result,
	}
	if err := s.repoManager.CrankRuns().Add(context.WithoutCancel(ctx), run); err != nil {
		log.WithError(err).Warn("failed to save crank run")
	}
}
