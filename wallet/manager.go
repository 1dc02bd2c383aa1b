// Package wallet implements the custodial wallet manager: per-escrow
// keypair generation and an isolated secret store, grounded on
// lnwallet/reservation.go's separation of a reservation's public state
// from its signing material, and on the Klingon swap-coordinator's
// wallet.Service usage (other_examples/...klingdex__internal-swap-coordinator_types.go.go)
// for the "one wallet per swap leg" shape.
package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/escrowd/coordinator/ledger"
)

// EscrowID identifies the escrow a wallet belongs to.
type EscrowID = codec.EscrowID

// Manager generates and holds custodial wallets, one per escrow. The
// secret store is intentionally a separate map from anything the escrow
// store exposes: no query path reachable from outside this package can
// ever return private_material, satisfying the specification's isolation
// invariant.
type Manager struct {
	adapter ledger.Adapter

	mu      sync.RWMutex
	secrets map[EscrowID][]byte
}

// NewManager creates a Manager backed by adapter for wallet generation and
// signing.
func NewManager(adapter ledger.Adapter) *Manager {
	return &Manager{
		adapter: adapter,
		secrets: make(map[EscrowID][]byte),
	}
}

// Create generates a fresh custodial wallet for id, storing its secret in
// isolation and returning only the public funding address.
func (m *Manager) Create(ctx context.Context, id EscrowID) (address string, err error) {
	m.mu.RLock()
	_, exists := m.secrets[id]
	m.mu.RUnlock()
	if exists {
		return "", escrowerr.New(escrowerr.InvalidState, "wallet already exists for escrow %x", id)
	}

	address, secret, err := m.adapter.GenerateWallet(ctx)
	if err != nil {
		return "", escrowerr.Wrap(escrowerr.LedgerUnavailable, err)
	}

	m.mu.Lock()
	m.secrets[id] = secret
	m.mu.Unlock()

	log.Debugf("generated wallet %s for escrow %x", address, id)

	return address, nil
}

// SignAndSubmit signs and submits a transfer on behalf of escrow id. This
// is the only code path in the process with access to the escrow's secret
// key material.
func (m *Manager) SignAndSubmit(ctx context.Context, id EscrowID, from, to string, asset ledger.Asset, amount *big.Int) (string, error) {
	m.mu.RLock()
	secret, ok := m.secrets[id]
	m.mu.RUnlock()
	if !ok {
		return "", escrowerr.New(escrowerr.NotFound, "no wallet for escrow %x", id)
	}

	txID, err := m.adapter.SubmitTransfer(ctx, secret, from, to, asset, amount)
	if err != nil {
		return "", escrowerr.Wrap(escrowerr.SettlementFailed, err)
	}
	return txID, nil
}

// Forget releases the secret material for id; a later SignAndSubmit for
// id fails with NotFound. The escrow state machine does not call it:
// secrets stay until process exit so that Rescue can still sign for a
// terminal escrow.
func (m *Manager) Forget(id EscrowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, id)
}
