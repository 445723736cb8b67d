package ports

import (
	"context"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
)

// LedgerClient is the ledger surface used by the indexer and the crank.
// Implementations normalize provider responses into domain types.
type LedgerClient interface {
	// GetProgramAccounts lists accounts owned by program. When discriminator
	// is not empty only accounts whose data starts with it are returned.
	GetProgramAccounts(
		ctx context.Context, program solana.PublicKey, discriminator []byte,
	) ([]domain.AccountInfo, error)
	// GetSignatures returns up to limit signatures for address, newest first,
	// older than before when set.
	GetSignatures(
		ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
	) ([]domain.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature solana.Signature) (*domain.TxRecord, error)
	// GetAccountInfo returns nil and no error when the account does not exist.
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*domain.AccountInfo, error)
	SubmitTransaction(
		ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey,
	) (solana.Signature, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// HistoryProvider is a secondary signature history source with a longer
// retention than the ledger RPC.
type HistoryProvider interface {
	GetSignatures(
		ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
	) ([]domain.SignatureInfo, error)
	// MaxPageSize is the largest page the provider serves, 0 if unbounded.
	MaxPageSize() int
}
