package types

import (
	"encoding/json"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
)

type Error struct {
	Error string `json:"error"`
}

type CrankResult struct {
	EligibleCount int      `json:"eligibleCount"`
	ExecutedCount int      `json:"executedCount"`
	Errors        []string `json:"errors"`
	OK            bool     `json:"ok"`
}

type CrankRun struct {
	ID         string      `json:"id"`
	Trigger    string      `json:"trigger"`
	StartedAt  string      `json:"startedAt"`
	FinishedAt string      `json:"finishedAt"`
	DurationMs int64       `json:"durationMs"`
	Result     CrankResult `json:"result"`
}

type TokenDelta struct {
	Mint   string  `json:"mint"`
	Amount float64 `json:"amount"`
}

type Event struct {
	Signature   string      `json:"signature"`
	BlockTime   *int64      `json:"blockTime"`
	Status      string      `json:"status"`
	Kind        string      `json:"kind"`
	Capsule     string      `json:"capsuleAddress"`
	Owner       *string     `json:"ownerAddress,omitempty"`
	TokenDelta  *TokenDelta `json:"tokenDelta,omitempty"`
	NativeDelta *float64    `json:"nativeDelta,omitempty"`
}

type Capsule struct {
	Address          string `json:"address"`
	Owner            string `json:"owner"`
	Status           string `json:"status"`
	IsActive         bool   `json:"isActive"`
	InactivityPeriod int64  `json:"inactivityPeriod"`
	LastActivity     int64  `json:"lastActivity"`
	Deadline         int64  `json:"deadline"`
	ExecutedAt       *int64 `json:"executedAt"`
	// Intent is the raw intent document, null when it is not valid JSON.
	Intent json.RawMessage `json:"intent"`
	Events []Event         `json:"events"`
}

type IndexStats struct {
	Accounts          int `json:"accounts"`
	DecodeFailures    int `json:"decodeFailures"`
	Transactions      int `json:"transactions"`
	FetchFailures     int `json:"fetchFailures"`
	ExecuteAttempts   int `json:"executeAttempts"`
	ExecutePayloadSum int `json:"executePayloadSum"`
}

type Index struct {
	Capsules  []Capsule  `json:"capsules"`
	Activity  []Event    `json:"activity"`
	Stats     IndexStats `json:"stats"`
	Partial   bool       `json:"partial"`
	ScanError string     `json:"scanError,omitempty"`
}

type EligibleCapsule struct {
	Address     string `json:"address"`
	Owner       string `json:"owner"`
	Vault       string `json:"vault"`
	FeeConfig   string `json:"feeConfig"`
	Deadline    int64  `json:"deadline"`
	IntentType  string `json:"intentType,omitempty"`
	IntentError string `json:"intentError,omitempty"`
}

type Eligible struct {
	Capsules []EligibleCapsule `json:"capsules"`
	Errors   []string          `json:"errors"`
}

func NewCrankResult(r domain.CrankResult) CrankResult {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return CrankResult{
		EligibleCount: r.EligibleCount,
		ExecutedCount: r.ExecutedCount,
		Errors:        errs,
		OK:            r.OK(),
	}
}

func NewCrankRuns(runs []domain.CrankRun) []CrankRun {
	out := make([]CrankRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, CrankRun{
			ID:         run.ID,
			Trigger:    string(run.Trigger),
			StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
			DurationMs: run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
			Result:     NewCrankResult(run.Result),
		})
	}
	return out
}

func NewEvents(events []domain.CapsuleEvent) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		ev := Event{
			Signature:   e.Signature.String(),
			BlockTime:   e.BlockTime,
			Status:      string(e.Status),
			Kind:        string(e.Kind),
			Capsule:     e.CapsuleAddress.String(),
			NativeDelta: e.NativeDelta,
		}
		if e.OwnerAddress != nil {
			owner := e.OwnerAddress.String()
			ev.Owner = &owner
		}
		if e.TokenDelta != nil {
			ev.TokenDelta = &TokenDelta{
				Mint:   e.TokenDelta.Mint.String(),
				Amount: e.TokenDelta.Amount,
			}
		}
		out = append(out, ev)
	}
	return out
}

func NewCapsule(c domain.IndexedCapsule) Capsule {
	var intent json.RawMessage
	if json.Valid(c.Capsule.IntentData) {
		intent = json.RawMessage(c.Capsule.IntentData)
	}
	return Capsule{
		Address:          c.Address.String(),
		Owner:            c.Capsule.Owner.String(),
		Status:           c.Status.String(),
		IsActive:         c.Capsule.IsActive,
		InactivityPeriod: c.Capsule.InactivityPeriod,
		LastActivity:     c.Capsule.LastActivity,
		Deadline:         c.Capsule.Deadline(),
		ExecutedAt:       c.Capsule.ExecutedAt,
		Intent:           intent,
		Events:           NewEvents(c.Events),
	}
}

func NewIndex(r domain.IndexResult) Index {
	capsules := make([]Capsule, 0, len(r.Capsules))
	for _, c := range r.Capsules {
		capsules = append(capsules, NewCapsule(c))
	}
	return Index{
		Capsules: capsules,
		Activity: NewEvents(r.Activity),
		Stats: IndexStats{
			Accounts:          r.Stats.Accounts,
			DecodeFailures:    r.Stats.DecodeFailures,
			Transactions:      r.Stats.Transactions,
			FetchFailures:     r.Stats.FetchFailures,
			ExecuteAttempts:   r.Stats.ExecuteAttempts,
			ExecutePayloadSum: r.Stats.ExecutePayloadSum,
		},
		Partial:   r.Partial,
		ScanError: r.ScanError,
	}
}

func NewEligible(capsules []domain.EligibleCapsule, errs []string) Eligible {
	out := make([]EligibleCapsule, 0, len(capsules))
	for _, c := range capsules {
		view := EligibleCapsule{
			Address:   c.Address.String(),
			Owner:     c.Capsule.Owner.String(),
			Vault:     c.Vault.String(),
			FeeConfig: c.FeeConfig.String(),
			Deadline:  c.Capsule.Deadline(),
		}
		if c.Intent != nil {
			view.IntentType = string(c.Intent.Type)
		}
		if c.IntentErr != nil {
			view.IntentError = c.IntentErr.Error()
		}
		out = append(out, view)
	}
	if errs == nil {
		errs = []string{}
	}
	return Eligible{Capsules: out, Errors: errs}
}
