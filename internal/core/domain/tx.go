package domain

import (
	"github.com/gagliardetto/solana-go"
)

// SignatureInfo is one entry of an address signature history.
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime *int64
	Failed    bool
}

// CompiledInstruction references accounts by index into TxRecord.AccountKeys.
type CompiledInstruction struct {
	ProgramIDIndex uint16
	Accounts       []uint16
	Data           []byte
}

type TokenBalance struct {
	AccountIndex uint16
	Mint         solana.PublicKey
	Owner        *solana.PublicKey
	// Amount is the raw integer amount in base units.
	Amount   string
	Decimals uint8
}

// TxRecord is the provider-independent shape of a fetched transaction.
// AccountKeys already holds static keys followed by lookup-table writable and
// readonly keys, in that order.
type TxRecord struct {
	Signature    solana.Signature
	Slot         uint64
	BlockTime    *int64
	Err          bool
	ErrMessage   string
	Logs         []string
	AccountKeys  []solana.PublicKey
	Instructions []CompiledInstruction

	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance

	// FetchFailed is set when the transaction could not be retrieved. Only
	// Signature, Slot and BlockTime are meaningful then.
	FetchFailed bool
}

// AccountInfo is the subset of an account read used by this service.
type AccountInfo struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}
