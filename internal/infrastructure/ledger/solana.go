package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var maxSupportedTxVersion uint64 = 0

// solanaClient talks to a Solana JSON-RPC endpoint and normalizes every
// response into domain types.
type solanaClient struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

func NewSolanaClient(endpoint string, commitment string) ports.LedgerClient {
	c := rpc.CommitmentType(commitment)
	if c == "" {
		c = rpc.CommitmentConfirmed
	}
	return &solanaClient{
		rpc:        rpc.New(endpoint),
		commitment: c,
	}
}

func (c *solanaClient) GetProgramAccounts(
	ctx context.Context, program solana.PublicKey, discriminator []byte,
) ([]domain.AccountInfo, error) {
	opts := &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	}
	if len(discriminator) > 0 {
		opts.Filters = []rpc.RPCFilter{{
			Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58(discriminator)},
		}}
	}

	res, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, opts)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts: %w", err)
	}

	accounts := make([]domain.AccountInfo, 0, len(res))
	for _, keyed := range res {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		accounts = append(accounts, toAccountInfo(keyed.Pubkey, keyed.Account))
	}
	return accounts, nil
}

func (c *solanaClient) GetSignatures(
	ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	}
	if before != nil {
		opts.Before = *before
	}

	res, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, opts)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}

	sigs := make([]domain.SignatureInfo, 0, len(res))
	for _, s := range res {
		if s == nil {
			continue
		}
		sigs = append(sigs, domain.SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: unixTime(s.BlockTime),
			Failed:    s.Err != nil,
		})
	}
	return sigs, nil
}

func (c *solanaClient) GetTransaction(
	ctx context.Context, signature solana.Signature,
) (*domain.TxRecord, error) {
	res, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxSupportedTxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getTransaction %s: %w", signature, err)
	}
	if res == nil {
		return nil, nil
	}
	return toTxRecord(signature, res)
}

func (c *solanaClient) GetAccountInfo(
	ctx context.Context, address solana.PublicKey,
) (*domain.AccountInfo, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, err)
	}
	if res == nil || res.Value == nil {
		return nil, nil
	}
	info := toAccountInfo(address, res.Value)
	return &info, nil
}

func (c *solanaClient) SubmitTransaction(
	ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey,
) (solana.Signature, error) {
	blockhash, err := c.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	payer := signer.PublicKey()
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: build transaction: %s", domain.ErrSubmission, err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("%w: sign transaction: %s", domain.ErrSubmission, err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: %w", err)
	}
	return sig, nil
}

func (c *solanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: empty response")
	}
	return res.Value.Blockhash, nil
}

func toAccountInfo(address solana.PublicKey, account *rpc.Account) domain.AccountInfo {
	info := domain.AccountInfo{
		Address:  address,
		Owner:    account.Owner,
		Lamports: account.Lamports,
	}
	if account.Data != nil {
		info.Data = account.Data.GetBinary()
	}
	return info
}

// toTxRecord flattens a getTransaction response. Lookup table keys are
// appended after the static keys, writable first, so that instruction account
// indices resolve against a single table.
func toTxRecord(signature solana.Signature, res *rpc.GetTransactionResult) (*domain.TxRecord, error) {
	record := &domain.TxRecord{
		Signature: signature,
		Slot:      res.Slot,
		BlockTime: unixTime(res.BlockTime),
	}

	if res.Transaction != nil {
		tx, err := res.Transaction.GetTransaction()
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
		}
		if tx != nil {
			record.AccountKeys = append(record.AccountKeys, tx.Message.AccountKeys...)
			for _, ix := range tx.Message.Instructions {
				record.Instructions = append(record.Instructions, domain.CompiledInstruction{
					ProgramIDIndex: ix.ProgramIDIndex,
					Accounts:       append([]uint16(nil), ix.Accounts...),
					Data:           append([]byte(nil), ix.Data...),
				})
			}
		}
	}

	if meta := res.Meta; meta != nil {
		if meta.Err != nil {
			record.Err = true
			record.ErrMessage = fmt.Sprintf("%v", meta.Err)
		}
		record.Logs = meta.LogMessages
		record.AccountKeys = append(record.AccountKeys, meta.LoadedAddresses.Writable...)
		record.AccountKeys = append(record.AccountKeys, meta.LoadedAddresses.ReadOnly...)
		record.PreBalances = meta.PreBalances
		record.PostBalances = meta.PostBalances
		record.PreTokenBalances = toTokenBalances(meta.PreTokenBalances)
		record.PostTokenBalances = toTokenBalances(meta.PostTokenBalances)
	}

	return record, nil
}

func toTokenBalances(balances []rpc.TokenBalance) []domain.TokenBalance {
	if len(balances) == 0 {
		return nil
	}
	out := make([]domain.TokenBalance, 0, len(balances))
	for _, b := range balances {
		tb := domain.TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Owner:        b.Owner,
			Amount:       "0",
		}
		if b.UiTokenAmount != nil {
			tb.Amount = b.UiTokenAmount.Amount
			tb.Decimals = b.UiTokenAmount.Decimals
		}
		out = append(out, tb)
	}
	return out
}

func unixTime(t *solana.UnixTimeSeconds) *int64 {
	if t == nil {
		return nil
	}
	v := int64(*t)
	return &v
}
