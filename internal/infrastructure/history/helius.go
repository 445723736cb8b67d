package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/gagliardetto/solana-go"
)

// maxPageSize is the largest page the enhanced transactions API serves.
const maxPageSize = 100

// heliusService reads the enhanced transaction history of an address.
type heliusService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHeliusService(baseURL, apiKey string) ports.HistoryProvider {
	return &heliusService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type enhancedTx struct {
	Signature        string          `json:"signature"`
	Slot             uint64          `json:"slot"`
	Timestamp        *int64          `json:"timestamp"`
	TransactionError json.RawMessage `json:"transactionError"`
}

func (s *heliusService) MaxPageSize() int {
	return maxPageSize
}

func (s *heliusService) GetSignatures(
	ctx context.Context, address solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error) {
	query := url.Values{}
	if s.apiKey != "" {
		query.Set("api-key", s.apiKey)
	}
	if before != nil {
		query.Set("before", before.String())
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(min(limit, maxPageSize)))
	}

	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", s.baseURL, address)
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get address transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var txs []enhancedTx
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}

	sigs := make([]domain.SignatureInfo, 0, len(txs))
	for _, tx := range txs {
		sig, err := solana.SignatureFromBase58(tx.Signature)
		if err != nil {
			return nil, fmt.Errorf("invalid signature %q: %w", tx.Signature, err)
		}
		sigs = append(sigs, domain.SignatureInfo{
			Signature: sig,
			Slot:      tx.Slot,
			BlockTime: tx.Timestamp,
			Failed:    hasTxError(tx.TransactionError),
		})
	}
	return sigs, nil
}

func hasTxError(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}
