package command

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrow"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/ledger/mock"
	"github.com/escrowd/coordinator/store"
	"github.com/escrowd/coordinator/wallet"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *escrow.Machine {
	t.Helper()

	adapter := mock.New()
	reg := ledger.NewRegistry()
	reg.Register(ledger.XRPL, adapter)
	reg.SetPrimary(ledger.XRPL)

	wm := wallet.NewManager(adapter)
	st := store.New()

	return escrow.New(st, map[ledger.ChainCode]*wallet.Manager{ledger.XRPL: wm}, reg, 7*24*3600, 0, func() time.Time {
		return time.Unix(1_700_000_000, 0)
	})
}

func TestDispatchCreateDst(t *testing.T) {
	m := newMachine(t)

	result, err := Dispatch(context.Background(), m, CreateDst{escrow.CreateRequest{
		Chain:         ledger.XRPL,
		Hashlock:      codec.Hash32{0x01},
		Maker:         "rMaker",
		Taker:         "rTaker",
		Token:         ledger.NativeAsset,
		Amount:        big.NewInt(1_000_000),
		SafetyDeposit: big.NewInt(100_000),
		Offsets:       [7]uint32{0, 120, 121, 122, 10, 100, 101},
		Side:          store.Destination,
	}})
	require.NoError(t, err)

	created, ok := result.(*escrow.CreateResult)
	require.True(t, ok)
	require.NotEmpty(t, created.WalletAddress)
}

func TestDispatchHealth(t *testing.T) {
	m := newMachine(t)

	result, err := Dispatch(context.Background(), m, Health{})
	require.NoError(t, err)

	report, ok := result.(escrow.HealthReport)
	require.True(t, ok)
	require.True(t, report.Healthy)
	require.Equal(t, 0, report.ActiveEscrows)
}

func TestDispatchGetEscrowNotFound(t *testing.T) {
	m := newMachine(t)

	_, err := Dispatch(context.Background(), m, GetEscrow{EscrowID: codec.EscrowID{}})
	require.Error(t, err)
}

func TestTypeStringCoversAllCommands(t *testing.T) {
	cases := []Type{
		TypeCreateDst, TypeFund, TypeWithdraw, TypeCancel, TypeRescue, TypeGetEscrow, TypeHealth,
	}
	for _, c := range cases {
		require.NotEqual(t, "Unknown", c.String())
	}
}
