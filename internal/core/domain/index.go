package domain

import (
	"github.com/gagliardetto/solana-go"
)

// IndexedCapsule joins the present state of a capsule with its history.
type IndexedCapsule struct {
	Address solana.PublicKey
	Capsule Capsule
	Status  CapsuleStatus
	// Events holds every classified event, newest first.
	Events []CapsuleEvent
}

type IndexStats struct {
	Accounts          int
	DecodeFailures    int
	Transactions      int
	FetchFailures     int
	ExecuteAttempts   int
	ExecutePayloadSum int
}

type IndexResult struct {
	Capsules []IndexedCapsule
	// Activity lists created, recreated and executed events across all
	// capsules, newest first.
	Activity []CapsuleEvent
	Stats    IndexStats
	// Partial is set when the transaction scan stopped early; ScanError says
	// why.
	Partial   bool
	ScanError string
}
