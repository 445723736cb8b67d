package config

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
)

const keypairLen = 64

// ParseSignerKey accepts a 64 byte keypair encoded as a JSON byte array (the
// solana-keygen file format), base58 or base64.
func ParseSignerKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: crank signer key not set", domain.ErrConfiguration)
	}

	var key []byte
	switch {
	case strings.HasPrefix(raw, "["):
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("%w: invalid signer key array: %s", domain.ErrConfiguration, err)
		}
		key = make([]byte, 0, len(ints))
		for _, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf(
					"%w: invalid signer key array: byte %d out of range", domain.ErrConfiguration, v,
				)
			}
			key = append(key, byte(v))
		}
	default:
		if decoded, err := solana.PrivateKeyFromBase58(raw); err == nil && len(decoded) == keypairLen {
			key = decoded
			break
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: signer key is neither base58 nor base64", domain.ErrConfiguration,
			)
		}
		key = decoded
	}

	if len(key) != keypairLen {
		return nil, fmt.Errorf(
			"%w: signer key must be %d bytes, got %d", domain.ErrConfiguration, keypairLen, len(key),
		)
	}

	// The second half of a keypair is the public key of the seed.
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived, key) {
		return nil, fmt.Errorf("%w: signer key does not match its public key", domain.ErrConfiguration)
	}
	return solana.PrivateKey(key), nil
}
