package escrow

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/ledger/mock"
	"github.com/escrowd/coordinator/store"
	"github.com/escrowd/coordinator/wallet"
	"github.com/stretchr/testify/require"
)

// testHarness wires a Machine against a single mock.Adapter with a
// controllable clock, mirroring scenario seeds 1-6 from spec.md §8.
type testHarness struct {
	machine *Machine
	adapter *mock.Adapter
	clock   time.Time
}

func newHarness(t *testing.T, rescueDelay int64) *testHarness {
	t.Helper()

	adapter := mock.New()
	reg := ledger.NewRegistry()
	reg.Register(ledger.XRPL, adapter)

	wm := wallet.NewManager(adapter)
	st := store.New()

	h := &testHarness{adapter: adapter, clock: time.Unix(1_700_000_000, 0)}
	h.machine = New(st, map[ledger.ChainCode]*wallet.Manager{ledger.XRPL: wm}, reg, rescueDelay, 0, func() time.Time {
		return h.clock
	})
	return h
}

func (h *testHarness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func genSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	return secret
}

func createFixture(t *testing.T, h *testHarness, secret []byte, amount, safety *big.Int) *CreateResult {
	t.Helper()

	hashlock := codec.Keccak256(secret)
	res, err := h.machine.Create(context.Background(), CreateRequest{
		Chain:         ledger.XRPL,
		Hashlock:      hashlock,
		Maker:         "rMaker",
		Taker:         "rTaker",
		Token:         ledger.NativeAsset,
		Amount:        amount,
		SafetyDeposit: safety,
		Offsets:       [7]uint32{0, 120, 121, 122, 10, 100, 101},
		Side:          store.Destination,
	})
	require.NoError(t, err)
	return res
}

// Scenario 1: happy-path destination withdrawal.
func TestHappyPathDestinationWithdrawal(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("fundtx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_100_000),
		Validated:   true,
		Successful:  true,
	})

	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"fundtx1"}})
	require.NoError(t, err)

	h.advance(11 * time.Second)

	res, err := h.machine.Withdraw(context.Background(), WithdrawRequest{
		EscrowID:      created.EscrowID,
		Secret:        secret,
		CallerAddress: "rTaker",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.PrincipalTxID)
	require.NotEmpty(t, res.SafetyTxID)
	require.Equal(t, secret, res.Secret)

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Withdrawn, rec.Status)
	require.Equal(t, secret, rec.Secret)
}

// Scenario 2: invalid secret.
func TestWithdrawInvalidSecret(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("fundtx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_100_000),
		Validated:   true,
		Successful:  true,
	})
	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"fundtx1"}})
	require.NoError(t, err)

	h.advance(11 * time.Second)

	wrong := genSecret(t)
	_, err = h.machine.Withdraw(context.Background(), WithdrawRequest{
		EscrowID:      created.EscrowID,
		Secret:        wrong,
		CallerAddress: "rTaker",
	})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InvalidSecret))

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Funded, rec.Status)
	require.Empty(t, h.adapter.Submitted)
}

// Scenario 3: premature withdrawal.
func TestWithdrawPremature(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("fundtx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_100_000),
		Validated:   true,
		Successful:  true,
	})
	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"fundtx1"}})
	require.NoError(t, err)

	h.advance(5 * time.Second)

	_, err = h.machine.Withdraw(context.Background(), WithdrawRequest{
		EscrowID:      created.EscrowID,
		Secret:        secret,
		CallerAddress: "rTaker",
	})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotYetOpen))

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Funded, rec.Status)
}

// Scenario 4: cancellation path (destination escrow).
func TestCancelDestination(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("fundtx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_100_000),
		Validated:   true,
		Successful:  true,
	})
	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"fundtx1"}})
	require.NoError(t, err)

	h.advance(125 * time.Second)

	res, err := h.machine.Cancel(context.Background(), CancelRequest{
		EscrowID:      created.EscrowID,
		CallerAddress: "rTaker",
	})
	require.NoError(t, err)
	require.Len(t, res.CancelTxIDs, 1)
	require.Equal(t, big.NewInt(1_100_000), res.TotalRefunded)

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Cancelled, rec.Status)
}

// Scenario 5: multi-tx funding.
func TestMultiTxFunding(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("tx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_099_999),
		Validated:   true,
		Successful:  true,
	})

	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"tx1"}})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InsufficientFunding))

	h.adapter.SeedTx("tx2", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1),
		Validated:   true,
		Successful:  true,
	})

	res, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"tx1", "tx2"}})
	require.NoError(t, err)
	require.Len(t, res.VerifiedTxs, 2)
	require.Equal(t, big.NewInt(1_100_000), res.NativeReceived)

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Funded, rec.Status)
}

// Scenario 6: rescue guard.
func TestRescueGuard(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	created := createFixture(t, h, secret, big.NewInt(1_000_000), big.NewInt(100_000))

	h.adapter.SeedTx("fundtx1", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(1_100_000),
		Validated:   true,
		Successful:  true,
	})
	_, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"fundtx1"}})
	require.NoError(t, err)

	_, err = h.machine.Rescue(context.Background(), RescueRequest{
		EscrowID:      created.EscrowID,
		CallerAddress: "rTaker",
		Amount:        big.NewInt(1_100_000),
	})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.NotYetOpen))

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Funded, rec.Status)

	h.advance(7*24*time.Hour + time.Second)

	res, err := h.machine.Rescue(context.Background(), RescueRequest{
		EscrowID:      created.EscrowID,
		CallerAddress: "rTaker",
		Amount:        big.NewInt(1_100_000),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.TxID)

	rec, err = h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Rescued, rec.Status)
}

// Fund on a non-native-token escrow requires both legs of required_deposit:
// the safety deposit in native currency and the principal in the token.
func TestFundNonNativeTokenRequiresBothLegs(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	secret := genSecret(t)
	hashlock := codec.Keccak256(secret)

	const usdLike ledger.Asset = "USD.rIssuer"

	created, err := h.machine.Create(context.Background(), CreateRequest{
		Chain:         ledger.XRPL,
		Hashlock:      hashlock,
		Maker:         "rMaker",
		Taker:         "rTaker",
		Token:         usdLike,
		Amount:        big.NewInt(500_000),
		SafetyDeposit: big.NewInt(100_000),
		Offsets:       [7]uint32{0, 120, 121, 122, 10, 100, 101},
		Side:          store.Destination,
	})
	require.NoError(t, err)

	// Only the token leg lands: the safety deposit is still missing, so
	// Fund must not move the escrow to Funded.
	h.adapter.SeedTx("tokentx", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       usdLike,
		Amount:      big.NewInt(500_000),
		Validated:   true,
		Successful:  true,
	})
	_, err = h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"tokentx"}})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InsufficientFunding))

	rec, err := h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Created, rec.Status)

	// The native safety-deposit leg lands too: now both legs are met.
	h.adapter.SeedTx("nativetx", mock.Tx{
		Destination: created.WalletAddress,
		Asset:       ledger.NativeAsset,
		Amount:      big.NewInt(100_000),
		Validated:   true,
		Successful:  true,
	})
	res, err := h.machine.Fund(context.Background(), FundRequest{EscrowID: created.EscrowID, TxIDs: []string{"tokentx", "nativetx"}})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100_000), res.NativeReceived)
	require.Equal(t, big.NewInt(500_000), res.TokenReceived)

	rec, err = h.machine.Get(created.EscrowID)
	require.NoError(t, err)
	require.Equal(t, store.Funded, rec.Status)
}

func TestCreateRejectsUnregisteredChain(t *testing.T) {
	h := newHarness(t, 7*24*3600)
	_, err := h.machine.Create(context.Background(), CreateRequest{
		Chain:         ledger.Cardano,
		Hashlock:      codec.Hash32{},
		Maker:         "addrA",
		Taker:         "addrB",
		Token:         ledger.NativeAsset,
		Amount:        big.NewInt(1),
		SafetyDeposit: big.NewInt(0),
		Offsets:       [7]uint32{0, 1, 2, 3, 4, 5, 6},
	})
	require.Error(t, err)
	require.True(t, escrowerr.Is(err, escrowerr.InvalidParameters))
}
