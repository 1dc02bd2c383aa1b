// Package mock provides a deterministic in-memory ledger.Adapter used by
// the escrow and command package tests, grounded on the configurable
// test-double style of htlcswitch/mock.go (a struct holding injectable
// behavior plus a mutex-guarded view of state, rather than a live network
// client).
package mock

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/escrowd/coordinator/ledger"
)

// Tx is a pre-seeded or recorded transaction the Adapter can resolve.
type Tx struct {
	Destination string
	Asset       ledger.Asset
	Amount      *big.Int
	Validated   bool
	Successful  bool
}

// Adapter is a fully in-memory ledger.Adapter. Deposits are seeded via
// SeedTx before a test issues a Fund command; settlement transfers are
// recorded in Submitted for assertions.
type Adapter struct {
	mu sync.Mutex

	balances  map[string]map[ledger.Asset]*big.Int
	txs       map[string]Tx
	Submitted []SubmittedTransfer

	// FailSubmit, when set, makes every SubmitTransfer call fail with
	// this error instead of succeeding — used to exercise
	// SettlementFailed / reconciliation-warning paths.
	FailSubmit error

	nextTxID int
}

// SubmittedTransfer records one call to SubmitTransfer for test assertions.
type SubmittedTransfer struct {
	From, To string
	Asset    ledger.Asset
	Amount   *big.Int
	TxID     string
}

// New creates an empty mock Adapter.
func New() *Adapter {
	return &Adapter{
		balances: make(map[string]map[ledger.Asset]*big.Int),
		txs:      make(map[string]Tx),
	}
}

// SeedTx registers a transaction id as resolvable, simulating a deposit
// that already landed on-chain before the test issues a Fund command.
func (a *Adapter) SeedTx(txID string, tx Tx) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.txs[txID] = tx
}

// GenerateWallet returns a random hex address and a random 32-byte secret.
func (a *Adapter) GenerateWallet(ctx context.Context) (string, []byte, error) {
	var raw [20]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("mockaddr%x", raw), secret, nil
}

// EnsureFunded credits address with min of the native asset.
func (a *Adapter) EnsureFunded(ctx context.Context, address string, min *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.creditLocked(address, ledger.NativeAsset, min)
	return nil
}

// ResolveTx returns the pre-seeded or recorded transaction for txID.
func (a *Adapter) ResolveTx(ctx context.Context, txID string) (*ledger.ResolvedTx, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, ok := a.txs[txID]
	if !ok {
		return nil, fmt.Errorf("mock: unknown tx %s", txID)
	}

	return &ledger.ResolvedTx{
		Type:            ledger.ValueTransfer,
		Destination:     tx.Destination,
		Asset:           tx.Asset,
		DeliveredAmount: tx.Amount,
		Validated:       tx.Validated,
		Successful:      tx.Successful,
	}, nil
}

// ReadBalance returns the mock balance of address in asset.
func (a *Adapter) ReadBalance(ctx context.Context, address string, asset ledger.Asset) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bal := a.balanceLocked(address, asset)
	return new(big.Int).Set(bal), nil
}

// SubmitTransfer simulates a signed transfer: it debits from, credits to,
// records the call, and returns a synthetic tx id — unless FailSubmit is
// set, in which case it returns that error without mutating any balance.
func (a *Adapter) SubmitTransfer(ctx context.Context, secret []byte, from, to string, asset ledger.Asset, amount *big.Int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailSubmit != nil {
		return "", a.FailSubmit
	}

	a.debitLocked(from, asset, amount)
	a.creditLocked(to, asset, amount)

	a.nextTxID++
	txID := fmt.Sprintf("mocktx%d", a.nextTxID)

	a.Submitted = append(a.Submitted, SubmittedTransfer{
		From: from, To: to, Asset: asset, Amount: new(big.Int).Set(amount), TxID: txID,
	})

	return txID, nil
}

func (a *Adapter) balanceLocked(address string, asset ledger.Asset) *big.Int {
	byAsset, ok := a.balances[address]
	if !ok {
		return big.NewInt(0)
	}
	bal, ok := byAsset[asset]
	if !ok {
		return big.NewInt(0)
	}
	return bal
}

func (a *Adapter) creditLocked(address string, asset ledger.Asset, amount *big.Int) {
	byAsset, ok := a.balances[address]
	if !ok {
		byAsset = make(map[ledger.Asset]*big.Int)
		a.balances[address] = byAsset
	}
	cur := byAsset[asset]
	if cur == nil {
		cur = big.NewInt(0)
	}
	byAsset[asset] = new(big.Int).Add(cur, amount)
}

func (a *Adapter) debitLocked(address string, asset ledger.Asset, amount *big.Int) {
	cur := a.balanceLocked(address, asset)
	byAsset, ok := a.balances[address]
	if !ok {
		byAsset = make(map[ledger.Asset]*big.Int)
		a.balances[address] = byAsset
	}
	byAsset[asset] = new(big.Int).Sub(cur, amount)
}

var _ ledger.Adapter = (*Adapter)(nil)
