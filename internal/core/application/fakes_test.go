package application_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/pkg/capsule"
	"github.com/gagliardetto/solana-go"
)

var (
	programID    = testKey(0xa0)
	delegationID = testKey(0xa1)
	crankKey     = newCrankKey()
)

func newCrankKey() solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return key
}

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func testSig(i int) solana.Signature {
	var sig solana.Signature
	binary.BigEndian.PutUint64(sig[:8], uint64(i)+1)
	return sig
}

func int64Ptr(v int64) *int64 {
	return &v
}

// fakeLedger is an in-memory ledger. Submitting an execution marks the
// capsule as executed at executeTime.
type fakeLedger struct {
	mu sync.Mutex

	accounts    map[solana.PublicKey]domain.AccountInfo
	signatures  []domain.SignatureInfo
	txs         map[solana.Signature]domain.TxRecord
	txErrs      map[solana.Signature]error
	sigErr      error
	infoErrs    map[solana.PublicKey]error
	submitErrs  map[solana.PublicKey]error
	executeTime int64

	signatureCalls int
	submitted      []solana.PublicKey

	// afterAccountInfo runs once an account read has been served.
	afterAccountInfo func(address solana.PublicKey)
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts:   make(map[solana.PublicKey]domain.AccountInfo),
		txs:        make(map[solana.Signature]domain.TxRecord),
		txErrs:     make(map[solana.Signature]error),
		infoErrs:   make(map[solana.PublicKey]error),
		submitErrs: make(map[solana.PublicKey]error),
	}
}

func (l *fakeLedger) putCapsule(address solana.PublicKey, c domain.Capsule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = domain.AccountInfo{
		Address:  address,
		Owner:    programID,
		Lamports: 1_000_000,
		Data:     domain.EncodeCapsule(capsule.AccountDiscriminator, c),
	}
}

func (l *fakeLedger) putRaw(address solana.PublicKey, owner solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = domain.AccountInfo{Address: address, Owner: owner, Data: data}
}

// addTx appends a transaction; calls must go from newest to oldest.
func (l *fakeLedger) addTx(tx domain.TxRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signatures = append(l.signatures, domain.SignatureInfo{
		Signature: tx.Signature, Slot: tx.Slot, BlockTime: tx.BlockTime, Failed: tx.Err,
	})
	l.txs[tx.Signature] = tx
}

// GetProgramAccounts also lists accounts already handed to the delegation
// program, like a lagging RPC node would.
func (l *fakeLedger) GetProgramAccounts(
	_ context.Context, program solana.PublicKey, discriminator []byte,
) ([]domain.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.AccountInfo, 0, len(l.accounts))
	for _, info := range l.accounts {
		if !info.Owner.Equals(program) && !info.Owner.Equals(delegationID) {
			continue
		}
		if !bytes.HasPrefix(info.Data, discriminator) {
			continue
		}
		info.Data = append([]byte(nil), info.Data...)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}

func (l *fakeLedger) GetSignatures(
	ctx context.Context, _ solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signatureCalls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.sigErr != nil {
		return nil, l.sigErr
	}
	return pageAfter(l.signatures, before, limit), nil
}

func pageAfter(sigs []domain.SignatureInfo, before *solana.Signature, limit int) []domain.SignatureInfo {
	start := 0
	if before != nil {
		start = len(sigs)
		for i, s := range sigs {
			if s.Signature == *before {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(sigs))
	return append([]domain.SignatureInfo(nil), sigs[start:end]...)
}

func (l *fakeLedger) GetTransaction(
	ctx context.Context, signature solana.Signature,
) (*domain.TxRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.txErrs[signature]; err != nil {
		return nil, err
	}
	tx, ok := l.txs[signature]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (l *fakeLedger) GetAccountInfo(
	ctx context.Context, address solana.PublicKey,
) (*domain.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.afterAccountInfo != nil {
		defer l.afterAccountInfo(address)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.infoErrs[address]; err != nil {
		return nil, err
	}
	info, ok := l.accounts[address]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (l *fakeLedger) SubmitTransaction(
	_ context.Context, instructions []solana.Instruction, signer solana.PrivateKey,
) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(instructions) != 1 {
		return solana.Signature{}, fmt.Errorf("expected one instruction, got %d", len(instructions))
	}
	accounts := instructions[0].Accounts()
	address := accounts[0].PublicKey
	if err := l.submitErrs[address]; err != nil {
		return solana.Signature{}, err
	}
	info, ok := l.accounts[address]
	if !ok {
		return solana.Signature{}, fmt.Errorf("account %s not found", address)
	}
	c, err := domain.DecodeCapsule(info.Data)
	if err != nil {
		return solana.Signature{}, err
	}
	if c.ExecutedAt != nil {
		return solana.Signature{}, fmt.Errorf("custom program error: AlreadyExecuted")
	}
	c.ExecutedAt = int64Ptr(l.executeTime)
	c.IsActive = false
	info.Data = domain.EncodeCapsule(capsule.AccountDiscriminator, *c)
	l.accounts[address] = info
	l.submitted = append(l.submitted, address)

	var sig solana.Signature
	copy(sig[:], address[:])
	return sig, nil
}

func (l *fakeLedger) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

// fakeHistory serves signatures that the ledger RPC may no longer have.
type fakeHistory struct {
	signatures []domain.SignatureInfo
	err        error
	// maxPage clamps every request like a provider with a page cap.
	maxPage int
	calls   atomic.Int32
}

func (h *fakeHistory) GetSignatures(
	_ context.Context, _ solana.PublicKey, before *solana.Signature, limit int,
) ([]domain.SignatureInfo, error) {
	h.calls.Add(1)
	if h.err != nil {
		return nil, h.err
	}
	if h.maxPage > 0 {
		limit = min(limit, h.maxPage)
	}
	return pageAfter(h.signatures, before, limit), nil
}

func (h *fakeHistory) MaxPageSize() int {
	return h.maxPage
}

type fakeRepoManager struct {
	runs *fakeCrankRuns
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{runs: &fakeCrankRuns{}}
}

func (m *fakeRepoManager) CrankRuns() domain.CrankRunRepository { return m.runs }
func (m *fakeRepoManager) Close()                                {}

type fakeCrankRuns struct {
	mu   sync.Mutex
	runs []domain.CrankRun
}

func (r *fakeCrankRuns) Add(_ context.Context, run domain.CrankRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeCrankRuns) GetByID(_ context.Context, id string) (*domain.CrankRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID == id {
			return &run, nil
		}
	}
	return nil, fmt.Errorf("crank run %s not found", id)
}

func (r *fakeCrankRuns) GetLatest(_ context.Context, limit int) ([]domain.CrankRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CrankRun, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

func (r *fakeCrankRuns) Close() {}
