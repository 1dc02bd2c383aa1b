package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/ledger/mock"
)

func TestRegistryLookupMiss(t *testing.T) {
	reg := ledger.NewRegistry()

	_, ok := reg.Lookup(ledger.XRPL)
	require.False(t, ok)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := ledger.NewRegistry()
	adapter := mock.New()

	reg.Register(ledger.XRPL, adapter)

	got, ok := reg.Lookup(ledger.XRPL)
	require.True(t, ok)
	require.Same(t, adapter, got)
}

func TestRegistryPrimaryUnset(t *testing.T) {
	reg := ledger.NewRegistry()

	_, ok := reg.Primary()
	require.False(t, ok)
}

func TestRegistrySetPrimary(t *testing.T) {
	reg := ledger.NewRegistry()
	reg.SetPrimary(ledger.Cardano)

	chain, ok := reg.Primary()
	require.True(t, ok)
	require.Equal(t, ledger.Cardano, chain)
}

func TestRegistryChains(t *testing.T) {
	reg := ledger.NewRegistry()
	reg.Register(ledger.XRPL, mock.New())
	reg.Register(ledger.Cardano, mock.New())

	chains := reg.Chains()
	require.Len(t, chains, 2)
	require.Contains(t, chains, ledger.XRPL)
	require.Contains(t, chains, ledger.Cardano)
}

func TestRegistryMustLookupPanicsOnMiss(t *testing.T) {
	reg := ledger.NewRegistry()

	require.Panics(t, func() {
		reg.MustLookup(ledger.XRPL)
	})
}

func TestRegistryMustLookupReturnsRegistered(t *testing.T) {
	reg := ledger.NewRegistry()
	adapter := mock.New()
	reg.Register(ledger.XRPL, adapter)

	require.NotPanics(t, func() {
		got := reg.MustLookup(ledger.XRPL)
		require.Same(t, adapter, got)
	})
}
