package domain

import (
	"math"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const lamportsPerSol = 1_000_000_000

type instructionPattern struct {
	name string
	kind EventKind
}

// instructionPatterns is matched against program logs in this order; the
// first pattern found anywhere in the logs decides the kind.
var instructionPatterns = []instructionPattern{
	{"create_capsule", EventCreated},
	{"execute_intent", EventExecuted},
	{"update_intent", EventIntentUpdated},
	{"update_activity", EventActivityUpdated},
	{"deactivate_capsule", EventDeactivated},
	{"recreate_capsule", EventRecreated},
}

// Classification is the outcome of looking at one transaction.
type Classification struct {
	Kind EventKind
	// Event is nil when no capsule instruction could be resolved. Events of
	// kind unknown are returned but are not part of a capsule history.
	Event *CapsuleEvent
	// ExecuteAttempt is a best-effort flag: any log line mentioning
	// execute_intent sets it, even without a resolved instruction.
	ExecuteAttempt bool
	// PayloadSize is the data size of the capsule instruction, 0 if none.
	PayloadSize int
}

// ClassifyLogs returns the instruction kind named by the logs.
func ClassifyLogs(logs []string) EventKind {
	normalized := make([]string, 0, len(logs))
	for _, line := range logs {
		normalized = append(normalized, normalizeLogText(line))
	}
	for _, p := range instructionPatterns {
		needle := normalizeLogText(p.name)
		for _, line := range normalized {
			if containsAtWordStart(line, needle) {
				return p.kind
			}
		}
	}
	return EventUnknown
}

// ClassifyTransaction turns a fetched transaction into at most one capsule
// event for the given program.
func ClassifyTransaction(tx TxRecord, programID solana.PublicKey) Classification {
	kind := ClassifyLogs(tx.Logs)
	result := Classification{
		Kind:           kind,
		ExecuteAttempt: kind == EventExecuted || mentionsExecute(tx.Logs),
	}
	for _, ix := range tx.Instructions {
		program, ok := resolveKey(tx.AccountKeys, ix.ProgramIDIndex)
		if !ok || !program.Equals(programID) {
			continue
		}
		accounts := make([]solana.PublicKey, 0, 2)
		for _, idx := range ix.Accounts {
			key, ok := resolveKey(tx.AccountKeys, idx)
			if !ok {
				continue
			}
			accounts = append(accounts, key)
			if len(accounts) == 2 {
				break
			}
		}
		if len(accounts) < 2 {
			continue
		}

		owner := accounts[1]
		status := EventStatusSuccess
		if tx.Err {
			status = EventStatusFailed
		}
		result.PayloadSize = len(ix.Data)
		result.Event = &CapsuleEvent{
			Signature:      tx.Signature,
			BlockTime:      tx.BlockTime,
			Status:         status,
			Kind:           kind,
			CapsuleAddress: accounts[0],
			OwnerAddress:   &owner,
			NativeDelta:    nativeDelta(tx, owner),
			TokenDelta:     tokenDelta(tx),
		}
		return result
	}

	return result
}

func resolveKey(keys []solana.PublicKey, idx uint16) (solana.PublicKey, bool) {
	if int(idx) >= len(keys) {
		return solana.PublicKey{}, false
	}
	return keys[idx], true
}

func mentionsExecute(logs []string) bool {
	needle := normalizeLogText("execute_intent")
	for _, line := range logs {
		if strings.Contains(normalizeLogText(line), needle) {
			return true
		}
	}
	return false
}

// normalizeLogText lowercases and drops underscores so that snake_case
// patterns match CamelCase instruction names.
func normalizeLogText(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "")
}

// containsAtWordStart reports whether needle occurs in s not preceded by a
// letter, so "recreatecapsule" does not match "createcapsule".
func containsAtWordStart(s, needle string) bool {
	for offset := 0; offset <= len(s)-len(needle); {
		i := strings.Index(s[offset:], needle)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 || !isLetter(s[pos-1]) {
			return true
		}
		offset = pos + 1
	}
	return false
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func nativeDelta(tx TxRecord, owner solana.PublicKey) *float64 {
	idx := -1
	for i, key := range tx.AccountKeys {
		if key.Equals(owner) {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(tx.PreBalances) || idx >= len(tx.PostBalances) {
		return nil
	}
	delta := (float64(tx.PostBalances[idx]) - float64(tx.PreBalances[idx])) / lamportsPerSol
	return &delta
}

type tokenBalanceKey struct {
	index uint16
	mint  solana.PublicKey
}

// tokenDelta returns the change of the first token balance that moved,
// looking at post balances first and then at accounts only present before.
func tokenDelta(tx TxRecord) *TokenDelta {
	pre := make(map[tokenBalanceKey]TokenBalance, len(tx.PreTokenBalances))
	for _, b := range tx.PreTokenBalances {
		pre[tokenBalanceKey{b.AccountIndex, b.Mint}] = b
	}

	seen := make(map[tokenBalanceKey]struct{}, len(tx.PostTokenBalances))
	for _, post := range tx.PostTokenBalances {
		key := tokenBalanceKey{post.AccountIndex, post.Mint}
		seen[key] = struct{}{}
		before := "0"
		if b, ok := pre[key]; ok {
			before = b.Amount
		}
		if d, ok := amountDelta(before, post.Amount, post.Decimals); ok {
			return &TokenDelta{Mint: post.Mint, Amount: d}
		}
	}
	for _, b := range tx.PreTokenBalances {
		key := tokenBalanceKey{b.AccountIndex, b.Mint}
		if _, ok := seen[key]; ok {
			continue
		}
		if d, ok := amountDelta(b.Amount, "0", b.Decimals); ok {
			return &TokenDelta{Mint: b.Mint, Amount: d}
		}
	}
	return nil
}

// amountDelta returns (after-before) in UI units, and false when the amounts
// are equal or unparsable.
func amountDelta(before, after string, decimals uint8) (float64, bool) {
	b, ok := new(big.Int).SetString(before, 10)
	if !ok {
		return 0, false
	}
	a, ok := new(big.Int).SetString(after, 10)
	if !ok {
		return 0, false
	}
	diff := new(big.Int).Sub(a, b)
	if diff.Sign() == 0 {
		return 0, false
	}
	f, _ := new(big.Float).SetInt(diff).Float64()
	return f / math.Pow10(int(decimals)), true
}
