package domain_test

import (
	"fmt"
	"testing"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	alice := testKey(0x41)
	bob := testKey(0x42)
	mint := testKey(0x43)

	t.Run("valid", func(t *testing.T) {
		fixtures := []struct {
			name  string
			data  string
			check func(t *testing.T, p *domain.IntentPayload)
		}{
			{
				name: "native with numeric and string amounts",
				data: fmt.Sprintf(
					`{"type":"token","intent":"send","inactivityDays":30,"beneficiaries":[`+
						`{"address":"%s","amount":1.5},`+
						`{"address":"%s","amount":"40","amountType":"percentage"}]}`,
					alice, bob,
				),
				check: func(t *testing.T, p *domain.IntentPayload) {
					require.Equal(t, domain.IntentTypeToken, p.Type)
					require.Equal(t, "send", p.Intent)
					require.Equal(t, float64(30), p.InactivityDays)
					require.Nil(t, p.NFT)
					require.NotNil(t, p.Token)
					require.Nil(t, p.Token.Mint)
					require.Len(t, p.Token.Beneficiaries, 2)
					require.Equal(t, domain.AmountTypeFixed, p.Token.Beneficiaries[0].AmountType)
					require.Equal(t, 1.5, p.Token.Beneficiaries[0].Amount)
					require.Equal(t, domain.AmountTypePercentage, p.Token.Beneficiaries[1].AmountType)
					require.Equal(t, float64(40), p.Token.Beneficiaries[1].Amount)
				},
			},
			{
				name: "spl token",
				data: fmt.Sprintf(
					`{"type":"token","tokenMint":"%s","beneficiaries":[{"address":"%s","amount":10}]}`,
					mint, alice,
				),
				check: func(t *testing.T, p *domain.IntentPayload) {
					require.NotNil(t, p.Token.Mint)
					require.Equal(t, mint, *p.Token.Mint)
				},
			},
			{
				name: "nft with assignments",
				data: fmt.Sprintf(
					`{"type":"nft","nftAssignments":[{"mint":"%s","recipient":"%s"}],`+
						`"nftMints":["bogus"],"nftRecipients":[]}`,
					mint, bob,
				),
				check: func(t *testing.T, p *domain.IntentPayload) {
					require.Nil(t, p.Token)
					require.Equal(t, []domain.NFTAssignment{{Mint: mint, Recipient: bob}}, p.NFT.Assignments)
				},
			},
			{
				name: "nft with parallel lists",
				data: fmt.Sprintf(
					`{"type":"nft","nftMints":["%s","%s"],"nftRecipients":["%s","%s"]}`,
					mint, alice, bob, bob,
				),
				check: func(t *testing.T, p *domain.IntentPayload) {
					require.Len(t, p.NFT.Assignments, 2)
					require.Equal(t, alice, p.NFT.Assignments[1].Mint)
				},
			},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				p, err := domain.ParseIntent([]byte(f.data))
				require.NoError(t, err)
				f.check(t, p)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name string
			data string
		}{
			{name: "empty", data: ""},
			{name: "blank", data: "   "},
			{name: "not json", data: "{oops"},
			{name: "unknown type", data: `{"type":"sol"}`},
			{name: "zero beneficiaries", data: `{"type":"token","beneficiaries":[]}`},
			{
				name: "bad address",
				data: `{"type":"token","beneficiaries":[{"address":"nope","amount":1}]}`,
			},
			{
				name: "zero amount",
				data: fmt.Sprintf(`{"type":"token","beneficiaries":[{"address":"%s","amount":0}]}`, alice),
			},
			{
				name: "bad amount string",
				data: fmt.Sprintf(`{"type":"token","beneficiaries":[{"address":"%s","amount":"ten"}]}`, alice),
			},
			{
				name: "nan amount",
				data: fmt.Sprintf(
					`{"type":"token","beneficiaries":[{"address":"%s","amount":"NaN","amountType":"percentage"}]}`,
					alice,
				),
			},
			{
				name: "infinite amount",
				data: fmt.Sprintf(`{"type":"token","beneficiaries":[{"address":"%s","amount":"Inf"}]}`, alice),
			},
			{
				name: "percentage above 100",
				data: fmt.Sprintf(
					`{"type":"token","beneficiaries":[{"address":"%s","amount":101,"amountType":"percentage"}]}`,
					alice,
				),
			},
			{
				name: "unknown amount type",
				data: fmt.Sprintf(
					`{"type":"token","beneficiaries":[{"address":"%s","amount":1,"amountType":"share"}]}`,
					alice,
				),
			},
			{
				name: "bad mint",
				data: fmt.Sprintf(
					`{"type":"token","tokenMint":"x","beneficiaries":[{"address":"%s","amount":1}]}`, alice,
				),
			},
			{name: "nft without assignments", data: `{"type":"nft"}`},
			{
				name: "nft list mismatch",
				data: fmt.Sprintf(`{"type":"nft","nftMints":["%s"],"nftRecipients":[]}`, mint),
			},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				p, err := domain.ParseIntent([]byte(f.data))
				require.ErrorIs(t, err, domain.ErrIntentParse)
				require.Nil(t, p)
			})
		}
	})
}

func TestIntentRecipients(t *testing.T) {
	alice := testKey(0x51)
	bob := testKey(0x52)

	p := domain.IntentPayload{
		Type: domain.IntentTypeToken,
		Token: &domain.TokenIntent{Beneficiaries: []domain.Beneficiary{
			{Address: bob, Amount: 1},
			{Address: alice, Amount: 2},
			{Address: bob, Amount: 3},
		}},
	}
	require.Equal(t, []solana.PublicKey{bob, alice}, p.Recipients())
}
