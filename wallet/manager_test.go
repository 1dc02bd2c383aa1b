package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/ledger/mock"
)

func TestCreateGeneratesIsolatedSecret(t *testing.T) {
	adapter := mock.New()
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	address, err := m.Create(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, address)

	m.mu.RLock()
	_, ok := m.secrets[id]
	m.mu.RUnlock()
	require.True(t, ok, "secret must be stored under the escrow id")
}

func TestCreateRejectsDuplicate(t *testing.T) {
	adapter := mock.New()
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	_, err = m.Create(context.Background(), id)
	require.NoError(t, err)

	_, err = m.Create(context.Background(), id)
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InvalidState))
}

func TestSignAndSubmitUnknownEscrow(t *testing.T) {
	adapter := mock.New()
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	_, err = m.SignAndSubmit(context.Background(), id, "from", "to", ledger.NativeAsset, big.NewInt(1))
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotFound))
}

func TestSignAndSubmitMovesFunds(t *testing.T) {
	adapter := mock.New()
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	from, err := m.Create(context.Background(), id)
	require.NoError(t, err)

	txID, err := m.SignAndSubmit(context.Background(), id, from, "destination", ledger.NativeAsset, big.NewInt(42))
	require.NoError(t, err)
	require.NotEmpty(t, txID)

	require.Len(t, adapter.Submitted, 1)
	require.Equal(t, from, adapter.Submitted[0].From)
	require.Equal(t, "destination", adapter.Submitted[0].To)
	require.Equal(t, big.NewInt(42), adapter.Submitted[0].Amount)
}

func TestSignAndSubmitPropagatesAdapterFailure(t *testing.T) {
	adapter := mock.New()
	adapter.FailSubmit = escrowerr.New(escrowerr.LedgerUnavailable, "node unreachable")
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	from, err := m.Create(context.Background(), id)
	require.NoError(t, err)

	_, err = m.SignAndSubmit(context.Background(), id, from, "destination", ledger.NativeAsset, big.NewInt(1))
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.SettlementFailed))
}

func TestForgetDropsSecret(t *testing.T) {
	adapter := mock.New()
	m := NewManager(adapter)

	id, err := codec.NewEscrowID()
	require.NoError(t, err)

	_, err = m.Create(context.Background(), id)
	require.NoError(t, err)

	m.Forget(id)

	_, err = m.SignAndSubmit(context.Background(), id, "a", "b", ledger.NativeAsset, big.NewInt(1))
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotFound))
}
