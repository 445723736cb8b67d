package capsule

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// NFTTransfer moves one NFT from the vault to a recipient.
type NFTTransfer struct {
	Mint      solana.PublicKey
	Recipient solana.PublicKey
}

type ExecuteOpts struct {
	ProgramID solana.PublicKey
	Addresses Addresses
	Owner     solana.PublicKey
	// Payer signs and pays for the transaction.
	Payer solana.PublicKey

	// Mint is set for fungible token intents, nil for native transfers.
	Mint          *solana.PublicKey
	Beneficiaries []solana.PublicKey

	NFTs []NFTTransfer
}

func (o ExecuteOpts) validate() error {
	if o.ProgramID.IsZero() {
		return fmt.Errorf("missing program id")
	}
	if o.Addresses.Capsule.IsZero() || o.Addresses.Vault.IsZero() || o.Addresses.FeeConfig.IsZero() {
		return fmt.Errorf("missing capsule addresses")
	}
	if o.Owner.IsZero() {
		return fmt.Errorf("missing owner")
	}
	if o.Payer.IsZero() {
		return fmt.Errorf("missing payer")
	}
	if len(o.Beneficiaries) == 0 && len(o.NFTs) == 0 {
		return fmt.Errorf("no beneficiaries")
	}
	if len(o.Beneficiaries) > 0 && len(o.NFTs) > 0 {
		return fmt.Errorf("token and nft transfers cannot be mixed")
	}
	return nil
}

// NewExecuteInstruction builds execute_intent. Beneficiary wallets, and their
// token accounts when a mint is involved, follow the fixed accounts as
// writable non-signer remaining accounts.
func NewExecuteInstruction(opts ExecuteOpts) (solana.Instruction, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(opts.Addresses.Capsule, true, false),
		solana.NewAccountMeta(opts.Addresses.Vault, true, false),
		solana.NewAccountMeta(opts.Owner, true, false),
		solana.NewAccountMeta(opts.Addresses.FeeConfig, false, false),
		solana.NewAccountMeta(opts.Payer, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	switch {
	case opts.Mint != nil:
		vaultATA, _, err := solana.FindAssociatedTokenAddress(opts.Addresses.Vault, *opts.Mint)
		if err != nil {
			return nil, fmt.Errorf("failed to derive vault token account: %w", err)
		}
		accounts = append(accounts,
			solana.NewAccountMeta(*opts.Mint, false, false),
			solana.NewAccountMeta(vaultATA, true, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		)
		for _, b := range opts.Beneficiaries {
			ata, _, err := solana.FindAssociatedTokenAddress(b, *opts.Mint)
			if err != nil {
				return nil, fmt.Errorf("failed to derive token account of %s: %w", b, err)
			}
			accounts = append(accounts,
				solana.NewAccountMeta(b, true, false),
				solana.NewAccountMeta(ata, true, false),
			)
		}

	case len(opts.NFTs) > 0:
		accounts = append(accounts,
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		)
		for _, nft := range opts.NFTs {
			vaultATA, _, err := solana.FindAssociatedTokenAddress(opts.Addresses.Vault, nft.Mint)
			if err != nil {
				return nil, fmt.Errorf("failed to derive vault account of nft %s: %w", nft.Mint, err)
			}
			recipientATA, _, err := solana.FindAssociatedTokenAddress(nft.Recipient, nft.Mint)
			if err != nil {
				return nil, fmt.Errorf("failed to derive recipient account of nft %s: %w", nft.Mint, err)
			}
			accounts = append(accounts,
				solana.NewAccountMeta(nft.Mint, false, false),
				solana.NewAccountMeta(vaultATA, true, false),
				solana.NewAccountMeta(nft.Recipient, true, false),
				solana.NewAccountMeta(recipientATA, true, false),
			)
		}

	default:
		for _, b := range opts.Beneficiaries {
			accounts = append(accounts, solana.NewAccountMeta(b, true, false))
		}
	}

	data := make([]byte, len(ExecuteIntentDiscriminator))
	copy(data, ExecuteIntentDiscriminator[:])

	return solana.NewInstruction(opts.ProgramID, accounts, data), nil
}
