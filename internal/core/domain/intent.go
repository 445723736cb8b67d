package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type IntentType string

const (
	IntentTypeToken IntentType = "token"
	IntentTypeNFT   IntentType = "nft"
)

type AmountType string

const (
	AmountTypeFixed      AmountType = "fixed"
	AmountTypePercentage AmountType = "percentage"
)

// Amount accepts both JSON numbers and numeric strings.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" {
		return fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid amount %q: not a finite number", s)
	}
	*a = Amount(f)
	return nil
}

type Beneficiary struct {
	Address    solana.PublicKey
	Amount     float64
	AmountType AmountType
}

type NFTAssignment struct {
	Mint      solana.PublicKey
	Recipient solana.PublicKey
}

// IntentPayload is the validated form of a capsule's intent data. Exactly one
// of Token and NFT is set, matching Type.
type IntentPayload struct {
	Type           IntentType
	Intent         string
	InactivityDays float64
	DelayDays      float64
	Token          *TokenIntent
	NFT            *NFTIntent
}

type TokenIntent struct {
	// Mint is nil for native transfers.
	Mint          *solana.PublicKey
	Beneficiaries []Beneficiary
}

type NFTIntent struct {
	Assignments []NFTAssignment
}

// Recipients returns the distinct beneficiary wallets in payload order.
func (p IntentPayload) Recipients() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	out := make([]solana.PublicKey, 0)
	add := func(k solana.PublicKey) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	switch {
	case p.Token != nil:
		for _, b := range p.Token.Beneficiaries {
			add(b.Address)
		}
	case p.NFT != nil:
		for _, a := range p.NFT.Assignments {
			add(a.Recipient)
		}
	}
	return out
}

type rawBeneficiary struct {
	Address    string     `json:"address"`
	Amount     Amount     `json:"amount"`
	AmountType AmountType `json:"amountType"`
}

type rawAssignment struct {
	Mint      string `json:"mint"`
	Recipient string `json:"recipient"`
}

type rawIntent struct {
	Type           IntentType       `json:"type"`
	Intent         string           `json:"intent"`
	Beneficiaries  []rawBeneficiary `json:"beneficiaries"`
	TokenMint      string           `json:"tokenMint"`
	NFTMints       []string         `json:"nftMints"`
	NFTRecipients  []string         `json:"nftRecipients"`
	NFTAssignments []rawAssignment  `json:"nftAssignments"`
	InactivityDays float64          `json:"inactivityDays"`
	DelayDays      float64          `json:"delayDays"`
}

// ParseIntent validates the JSON intent payload stored in a capsule. Every
// failure wraps ErrIntentParse.
func ParseIntent(data []byte) (*IntentPayload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrIntentParse)
	}

	var raw rawIntent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIntentParse, err)
	}

	payload := &IntentPayload{
		Type:           raw.Type,
		Intent:         raw.Intent,
		InactivityDays: raw.InactivityDays,
		DelayDays:      raw.DelayDays,
	}

	switch raw.Type {
	case IntentTypeToken:
		token, err := parseTokenIntent(raw)
		if err != nil {
			return nil, err
		}
		payload.Token = token
	case IntentTypeNFT:
		nft, err := parseNFTIntent(raw)
		if err != nil {
			return nil, err
		}
		payload.NFT = nft
	default:
		return nil, fmt.Errorf("%w: unknown intent type %q", ErrIntentParse, raw.Type)
	}

	return payload, nil
}

func parseTokenIntent(raw rawIntent) (*TokenIntent, error) {
	if len(raw.Beneficiaries) == 0 {
		return nil, fmt.Errorf("%w: no beneficiaries", ErrIntentParse)
	}

	token := &TokenIntent{
		Beneficiaries: make([]Beneficiary, 0, len(raw.Beneficiaries)),
	}
	if raw.TokenMint != "" {
		mint, err := solana.PublicKeyFromBase58(raw.TokenMint)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid token mint: %s", ErrIntentParse, err)
		}
		token.Mint = &mint
	}

	for i, b := range raw.Beneficiaries {
		addr, err := solana.PublicKeyFromBase58(b.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: beneficiary %d address: %s", ErrIntentParse, i, err)
		}
		amountType := b.AmountType
		switch amountType {
		case "":
			amountType = AmountTypeFixed
		case AmountTypeFixed, AmountTypePercentage:
		default:
			return nil, fmt.Errorf(
				"%w: beneficiary %d amount type %q", ErrIntentParse, i, b.AmountType,
			)
		}
		if b.Amount <= 0 {
			return nil, fmt.Errorf("%w: beneficiary %d amount must be positive", ErrIntentParse, i)
		}
		if amountType == AmountTypePercentage && b.Amount > 100 {
			return nil, fmt.Errorf("%w: beneficiary %d percentage above 100", ErrIntentParse, i)
		}
		token.Beneficiaries = append(token.Beneficiaries, Beneficiary{
			Address:    addr,
			Amount:     float64(b.Amount),
			AmountType: amountType,
		})
	}

	return token, nil
}

// parseNFTIntent prefers explicit assignments and otherwise pairs mints with
// recipients by position.
func parseNFTIntent(raw rawIntent) (*NFTIntent, error) {
	pairs := raw.NFTAssignments
	if len(pairs) == 0 {
		if len(raw.NFTMints) != len(raw.NFTRecipients) {
			return nil, fmt.Errorf(
				"%w: %d nft mints but %d recipients",
				ErrIntentParse, len(raw.NFTMints), len(raw.NFTRecipients),
			)
		}
		for i := range raw.NFTMints {
			pairs = append(pairs, rawAssignment{
				Mint: raw.NFTMints[i], Recipient: raw.NFTRecipients[i],
			})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no nft assignments", ErrIntentParse)
	}

	nft := &NFTIntent{Assignments: make([]NFTAssignment, 0, len(pairs))}
	for i, p := range pairs {
		mint, err := solana.PublicKeyFromBase58(p.Mint)
		if err != nil {
			return nil, fmt.Errorf("%w: nft %d mint: %s", ErrIntentParse, i, err)
		}
		recipient, err := solana.PublicKeyFromBase58(p.Recipient)
		if err != nil {
			return nil, fmt.Errorf("%w: nft %d recipient: %s", ErrIntentParse, i, err)
		}
		nft.Assignments = append(nft.Assignments, NFTAssignment{Mint: mint, Recipient: recipient})
	}
	return nft, nil
}
