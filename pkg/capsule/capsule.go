// Package capsule holds the client-side view of the intent capsule program:
// account discriminators, derived addresses and the execute instruction.
package capsule

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	CapsuleSeed   = "intent_capsule"
	VaultSeed     = "capsule_vault"
	FeeConfigSeed = "fee_config"

	capsuleAccountName = "IntentCapsule"
	executeIntentName  = "execute_intent"
)

var (
	// AccountDiscriminator prefixes the data of every capsule account.
	AccountDiscriminator = Discriminator("account", capsuleAccountName)
	// ExecuteIntentDiscriminator is the instruction data of execute_intent.
	ExecuteIntentDiscriminator = Discriminator("global", executeIntentName)
)

// Discriminator returns the 8-byte Anchor discriminator for namespace:name.
func Discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Addresses groups the program derived addresses of one capsule.
type Addresses struct {
	Capsule   solana.PublicKey
	Vault     solana.PublicKey
	FeeConfig solana.PublicKey
}

func DeriveAddresses(programID, owner solana.PublicKey) (*Addresses, error) {
	capsuleAddr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(CapsuleSeed), owner[:]}, programID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive capsule address: %w", err)
	}
	vault, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(VaultSeed), owner[:]}, programID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault address: %w", err)
	}
	feeConfig, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(FeeConfigSeed)}, programID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive fee config address: %w", err)
	}
	return &Addresses{
		Capsule:   capsuleAddr,
		Vault:     vault,
		FeeConfig: feeConfig,
	}, nil
}
