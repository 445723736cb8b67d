package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/pkg/capsule"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EligibilityReport lists the capsules the crank may execute now. Errors
// holds one "<address>: <reason>" entry per capsule whose delegation check
// could not be completed.
type EligibilityReport struct {
	Capsules []domain.EligibleCapsule
	Errors   []string
}

// FindEligible returns the active, unexecuted, expired capsules that are not
// delegated to the rollup program. On cancellation the capsules whose checks
// completed are returned along with the context error.
func (s *Service) FindEligible(ctx context.Context) (*EligibilityReport, error) {
	accounts, _, err := s.listCapsules(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	candidates := make([]domain.CapsuleAccount, 0)
	for _, account := range accounts {
		if account.Capsule.IsEligible(now) {
			candidates = append(candidates, account)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Address.String() < candidates[j].Address.String()
	})

	eligible := make([]*domain.EligibleCapsule, len(candidates))
	checkErrs := make([]error, len(candidates))
	checked := make([]bool, len(candidates))

	g := &errgroup.Group{}
	g.SetLimit(s.cfg.CrankConcurrency)
	for i, account := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c, err := s.checkCandidate(ctx, account)
			if ctx.Err() != nil && err != nil {
				return nil
			}
			eligible[i], checkErrs[i], checked[i] = c, err, true
			return nil
		})
	}
	// nolint:errcheck
	g.Wait()

	report := &EligibilityReport{Capsules: make([]domain.EligibleCapsule, 0, len(candidates))}
	for i, account := range candidates {
		if !checked[i] {
			continue
		}
		if checkErrs[i] != nil {
			report.Errors = append(
				report.Errors, fmt.Sprintf("%s: %s", account.Address, checkErrs[i]),
			)
			continue
		}
		if eligible[i] != nil {
			report.Capsules = append(report.Capsules, *eligible[i])
		}
	}
	return report, ctx.Err()
}

// checkCandidate reads the capsule account owner to tell delegated capsules
// apart, then derives what the crank needs. It returns nil and no error for
// capsules that must be skipped silently.
func (s *Service) checkCandidate(
	ctx context.Context, account domain.CapsuleAccount,
) (*domain.EligibleCapsule, error) {
	info, err := s.ledger.GetAccountInfo(ctx, account.Address)
	if err != nil {
		return nil, fmt.Errorf("delegation check failed: %w", err)
	}
	if info == nil {
		log.Debugf("capsule %s disappeared, skipping", account.Address)
		return nil, nil
	}
	if !s.cfg.DelegationProgram.IsZero() && info.Owner.Equals(s.cfg.DelegationProgram) {
		log.Debugf("capsule %s is delegated, skipping", account.Address)
		return nil, nil
	}

	addrs, err := capsule.DeriveAddresses(s.cfg.ProgramID, account.Capsule.Owner)
	if err != nil {
		return nil, err
	}

	c := &domain.EligibleCapsule{
		CapsuleAccount: account,
		Vault:          addrs.Vault,
		FeeConfig:      addrs.FeeConfig,
	}
	c.Intent, c.IntentErr = domain.ParseIntent(account.Capsule.IntentData)
	return c, nil
}
