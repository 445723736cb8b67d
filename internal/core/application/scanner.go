package application

import (
	"context"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ScanTransactions fetches the transaction history of the capsule program.
// On error the records gathered so far are returned along with it.
func (s *Service) ScanTransactions(ctx context.Context) ([]domain.TxRecord, error) {
	sigs, err := s.listSignatures(ctx)
	return s.fetchTransactions(ctx, sigs, err)
}

// listSignatures pages the program signature history newest first, then
// appends the signatures only known to the history provider.
func (s *Service) listSignatures(ctx context.Context) ([]domain.SignatureInfo, error) {
	seen := make(map[solana.Signature]struct{})
	sigs := make([]domain.SignatureInfo, 0, s.cfg.ScanPageSize)

	if err := s.pageSignatures(
		ctx, s.ledger.GetSignatures, s.cfg.ScanPageSize, seen, &sigs,
	); err != nil {
		return sigs, err
	}

	if s.history != nil {
		primary := len(sigs)
		pageSize := s.cfg.ScanPageSize
		if limit := s.history.MaxPageSize(); limit > 0 {
			pageSize = min(pageSize, limit)
		}
		if err := s.pageSignatures(
			ctx, s.history.GetSignatures, pageSize, seen, &sigs,
		); err != nil {
			if ctx.Err() != nil {
				return sigs, ctx.Err()
			}
			log.WithError(err).Warn("enhanced history unavailable, using ledger history only")
		}
		if merged := len(sigs) - primary; merged > 0 {
			log.Debugf("merged %d signatures from enhanced history", merged)
		}
	}

	return sigs, nil
}

type signaturesFetcher func(
	ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error)

func (s *Service) pageSignatures(
	ctx context.Context, fetch signaturesFetcher, pageSize int,
	seen map[solana.Signature]struct{}, sigs *[]domain.SignatureInfo,
) error {
	var before *solana.Signature
	for page := 0; page < s.cfg.ScanMaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := fetch(ctx, s.cfg.ProgramID, before, pageSize)
		if err != nil {
			return err
		}
		for _, sig := range batch {
			if _, ok := seen[sig.Signature]; ok {
				continue
			}
			seen[sig.Signature] = struct{}{}
			*sigs = append(*sigs, sig)
		}

		if len(batch) < pageSize {
			return nil
		}
		oldest := batch[len(batch)-1].Signature
		before = &oldest
	}

	log.Debugf("signature scan stopped after %d pages", s.cfg.ScanMaxPages)
	return nil
}

// fetchTransactions retrieves every transaction with bounded parallelism. A
// failed fetch produces a placeholder record instead of an error; only
// cancellation stops the scan.
func (s *Service) fetchTransactions(
	ctx context.Context, sigs []domain.SignatureInfo, listErr error,
) ([]domain.TxRecord, error) {
	records := make([]domain.TxRecord, len(sigs))
	fetched := make([]bool, len(sigs))

	g := &errgroup.Group{}
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, sig := range sigs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tx, err := s.ledger.GetTransaction(ctx, sig.Signature)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil || tx == nil {
				log.WithError(err).Debugf("failed to fetch transaction %s", sig.Signature)
				records[i] = failedRecord(sig)
				fetched[i] = true
				return nil
			}
			if tx.BlockTime == nil {
				tx.BlockTime = sig.BlockTime
			}
			records[i] = *tx
			fetched[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	out := make([]domain.TxRecord, 0, len(records))
	for i, ok := range fetched {
		if ok {
			out = append(out, records[i])
		}
	}

	if listErr != nil {
		return out, listErr
	}
	return out, err
}

func failedRecord(sig domain.SignatureInfo) domain.TxRecord {
	return domain.TxRecord{
		Signature:   sig.Signature,
		Slot:        sig.Slot,
		BlockTime:   sig.BlockTime,
		Err:         sig.Failed,
		FetchFailed: true,
	}
}
