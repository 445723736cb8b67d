package application

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/pkg/capsule"
	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// IndexCapsules joins the present state of every capsule account with the
// events classified from the program transaction history. A failed history
// scan still returns the capsule table, flagged as partial.
func (s *Service) IndexCapsules(ctx context.Context) (*domain.IndexResult, error) {
	started := time.Now()

	accounts, decodeFailures, err := s.listCapsules(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.IndexResult{}
	result.Stats.Accounts = len(accounts)
	result.Stats.DecodeFailures = decodeFailures

	txs, scanErr := s.ScanTransactions(ctx)
	if scanErr != nil {
		log.WithError(scanErr).Warnf(
			"transaction scan incomplete, indexing %d transactions", len(txs),
		)
		result.Partial = true
		result.ScanError = scanErr.Error()
	}

	events := make(map[solana.PublicKey][]domain.CapsuleEvent)
	for _, tx := range txs {
		result.Stats.Transactions++
		if tx.FetchFailed {
			result.Stats.FetchFailures++
			continue
		}

		c := domain.ClassifyTransaction(tx, s.cfg.ProgramID)
		if c.ExecuteAttempt {
			result.Stats.ExecuteAttempts++
		}
		if c.Event == nil || c.Kind == domain.EventUnknown {
			continue
		}
		if c.Kind == domain.EventExecuted {
			result.Stats.ExecutePayloadSum += c.PayloadSize
		}
		events[c.Event.CapsuleAddress] = append(events[c.Event.CapsuleAddress], *c.Event)
		if c.Kind.IsDashboardRow() {
			result.Activity = append(result.Activity, *c.Event)
		}
	}
	sortEvents(result.Activity)

	now := s.now()
	result.Capsules = make([]domain.IndexedCapsule, 0, len(accounts))
	for _, account := range accounts {
		status := account.Capsule.StatusAt(now)
		if status == domain.CapsuleStatusWaiting {
			continue
		}
		capsuleEvents := events[account.Address]
		sortEvents(capsuleEvents)
		result.Capsules = append(result.Capsules, domain.IndexedCapsule{
			Address: account.Address,
			Capsule: account.Capsule,
			Status:  status,
			Events:  capsuleEvents,
		})
	}
	sort.Slice(result.Capsules, func(i, j int) bool {
		return result.Capsules[i].Address.String() < result.Capsules[j].Address.String()
	})

	s.metrics.ObserveIndexPass(result.Stats, result.Partial, time.Since(started))
	log.WithFields(log.Fields{
		"capsules":     len(result.Capsules),
		"transactions": result.Stats.Transactions,
		"partial":      result.Partial,
	}).Debug("index pass done")

	return result, nil
}

// GetCapsule indexes the program and returns the entry for address.
func (s *Service) GetCapsule(
	ctx context.Context, address solana.PublicKey,
) (*domain.IndexedCapsule, error) {
	result, err := s.IndexCapsules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range result.Capsules {
		if result.Capsules[i].Address.Equals(address) {
			return &result.Capsules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCapsuleNotFound, address)
}

// listCapsules reads and decodes every capsule account of the program.
// Accounts that fail to decode are skipped and counted.
func (s *Service) listCapsules(ctx context.Context) ([]domain.CapsuleAccount, int, error) {
	infos, err := s.ledger.GetProgramAccounts(
		ctx, s.cfg.ProgramID, capsule.AccountDiscriminator[:],
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list capsule accounts: %w", err)
	}

	failures := 0
	accounts := make([]domain.CapsuleAccount, 0, len(infos))
	for _, info := range infos {
		c, err := domain.DecodeCapsule(info.Data)
		if err != nil {
			failures++
			log.WithError(err).Debugf("skipping account %s", info.Address)
			continue
		}
		accounts = append(accounts, domain.CapsuleAccount{Address: info.Address, Capsule: *c})
	}
	return accounts, failures, nil
}

// sortEvents orders events newest first. Events without a block time go
// last; ties are broken by signature.
func sortEvents(events []domain.CapsuleEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.BlockTime == nil && b.BlockTime == nil:
		case a.BlockTime == nil:
			return false
		case b.BlockTime == nil:
			return true
		case *a.BlockTime != *b.BlockTime:
			return *a.BlockTime > *b.BlockTime
		}
		return bytes.Compare(a.Signature[:], b.Signature[:]) < 0
	})
}
