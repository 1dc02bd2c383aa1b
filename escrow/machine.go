// Package escrow implements the escrow state machine: Create, Fund,
// Withdraw, Cancel, and Rescue, each a typed request/result pair operating
// against the store, wallet, and ledger packages. Per-escrow mutation is
// serialized by the store record's own mutex, acquired for the duration of
// one transition and released before any other escrow's operation can
// proceed — the same per-link concurrency shape as htlcswitch.Switch,
// generalized from a channel-keyed map to an escrow-keyed one. Status is
// mutated only after the corresponding ledger.Adapter call returns,
// matching contractcourt/htlc_timeout_resolver.go's "decide, then act,
// then persist" ordering.
package escrow

import (
	"context"
	"math/big"
	"time"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/phase"
	"github.com/escrowd/coordinator/store"
	"github.com/escrowd/coordinator/wallet"
)

// Machine holds the shared state every escrow operation acts against: the
// record store, one custodial wallet manager per registered chain (each
// wallet.Manager already wraps the ledger.Adapter it signs through, so
// secret material never has to cross back out to this package), and the
// registry of ledger adapters used directly for read-only calls like
// resolve_tx.
type Machine struct {
	store   *store.Store
	wallets map[ledger.ChainCode]*wallet.Manager
	ledgers *ledger.Registry

	// rescueDelaySeconds is the configured delay (spec.md §4.9) before
	// Rescue becomes callable; default 7 days, overridable for
	// integration builds.
	rescueDelaySeconds int64

	// slackSeconds is the clock-skew compensation handed to every
	// phase.ValidateWindow call.
	slackSeconds int64

	now func() time.Time
}

// New creates a Machine. wallets must carry one wallet.Manager per chain
// registered in reg. now defaults to the real wall clock if nil; tests may
// inject a fixed or advancing clock to exercise phase windows without
// sleeping.
func New(st *store.Store, wallets map[ledger.ChainCode]*wallet.Manager, reg *ledger.Registry, rescueDelaySeconds, slackSeconds int64, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		store:              st,
		wallets:            wallets,
		ledgers:            reg,
		rescueDelaySeconds: rescueDelaySeconds,
		slackSeconds:       slackSeconds,
		now:                now,
	}
}

// adapterFor looks up the ledger.Adapter registered for a record's chain.
func (m *Machine) adapterFor(rec *store.Record) (ledger.Adapter, bool) {
	return m.ledgers.Lookup(rec.Chain)
}

// walletFor looks up the wallet.Manager responsible for a record's chain.
func (m *Machine) walletFor(rec *store.Record) (*wallet.Manager, bool) {
	wm, ok := m.wallets[rec.Chain]
	return wm, ok
}

// CreateRequest carries the inputs to Create (spec.md §4.5).
type CreateRequest struct {
	Chain         ledger.ChainCode
	OrderHash     codec.Hash32
	Hashlock      codec.Hash32
	Maker         string
	Taker         string
	Token         ledger.Asset
	Amount        *big.Int
	SafetyDeposit *big.Int
	Offsets       [7]uint32
	Side          store.Side
}

// RequiredDeposit is the split deposit amount Create reports back, per
// spec.md §4.5's native/token split rule.
type RequiredDeposit struct {
	Native *big.Int
	Token  *big.Int
}

// CreateResult is the typed result of Create.
type CreateResult struct {
	EscrowID      codec.EscrowID
	WalletAddress string
	Required      RequiredDeposit
	Timelocks     [7]int64
}

// Create generates a fresh custodial wallet, derives absolute timelocks
// from the supplied offsets and a freshly captured deploy timestamp (per
// DESIGN.md's Open Question 2 resolution — the embedded packed-timelocks
// epoch is never trusted), and stores a new Created record.
func (m *Machine) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Amount == nil || req.Amount.Sign() < 0 || req.SafetyDeposit == nil || req.SafetyDeposit.Sign() < 0 {
		return nil, escrowerr.New(escrowerr.InvalidParameters, "amount and safety_deposit must be non-negative")
	}
	if !codec.NonDecreasing(req.Offsets) {
		return nil, escrowerr.New(escrowerr.InvalidParameters, "phase offsets %v are not non-decreasing within the source and destination tracks", req.Offsets)
	}

	wm, ok := m.wallets[req.Chain]
	if !ok {
		return nil, escrowerr.New(escrowerr.InvalidParameters, "no wallet manager registered for chain %s", req.Chain)
	}

	id, err := codec.NewEscrowID()
	if err != nil {
		return nil, escrowerr.Wrap(escrowerr.InvalidParameters, err)
	}

	address, err := wm.Create(ctx, id)
	if err != nil {
		return nil, err
	}

	deployedAt := m.now().Unix()
	timelocks := codec.DeriveAbsolute(req.Offsets, deployedAt)

	rec := &store.Record{
		ID:            id,
		OrderHash:     req.OrderHash,
		Hashlock:      req.Hashlock,
		Maker:         req.Maker,
		Taker:         req.Taker,
		Token:         req.Token,
		Amount:        new(big.Int).Set(req.Amount),
		SafetyDeposit: new(big.Int).Set(req.SafetyDeposit),
		Timelocks:     timelocks,
		DeployedAt:    deployedAt,
		WalletAddress: address,
		Chain:         req.Chain,
		Side:          req.Side,
		Status:        store.Created,
	}
	if err := m.store.Insert(rec); err != nil {
		return nil, err
	}

	log.Infof("created escrow %s on %s wallet=%s deployed_at=%d", id, req.Chain, address, deployedAt)

	return &CreateResult{
		EscrowID:      id,
		WalletAddress: address,
		Required:      requiredDeposit(req.Token, req.Amount, req.SafetyDeposit),
		Timelocks:     timelocks,
	}, nil
}

// requiredDeposit implements spec.md §4.5's split rule: the native amount
// is amount+safety_deposit when token is the native sentinel, else just
// safety_deposit; the token amount is amount when token is non-native,
// else zero.
func requiredDeposit(token ledger.Asset, amount, safetyDeposit *big.Int) RequiredDeposit {
	if token == ledger.NativeAsset {
		return RequiredDeposit{
			Native: new(big.Int).Add(amount, safetyDeposit),
			Token:  big.NewInt(0),
		}
	}
	return RequiredDeposit{
		Native: new(big.Int).Set(safetyDeposit),
		Token:  new(big.Int).Set(amount),
	}
}

// FundRequest carries the inputs to Fund (spec.md §4.6).
type FundRequest struct {
	EscrowID codec.EscrowID
	TxIDs    []string
}

// FundResult is the typed result of Fund.
type FundResult struct {
	NativeReceived *big.Int
	TokenReceived  *big.Int
	VerifiedTxs    []string
}

// Fund verifies each claimed deposit transaction against the ledger
// adapter, sums delivered amounts per asset, and advances status to Funded
// once required_deposit is met on every leg: the native-currency leg always,
// and — for a non-native Token escrow — the token leg as well, since
// required_deposit there splits into a safety deposit paid in the chain's
// native currency and a principal paid in the escrow's token (spec.md
// §4.5/§4.6). Already-recorded tx ids are deduped so a repeat submission
// cannot double-count (spec.md §4.6 idempotence).
func (m *Machine) Fund(ctx context.Context, req FundRequest) (*FundResult, error) {
	rec, err := m.store.Get(req.EscrowID)
	if err != nil {
		return nil, err
	}

	rec.Lock()
	defer rec.Unlock()

	if rec.Status != store.Created {
		return nil, escrowerr.New(escrowerr.InvalidState, "escrow %s is %s, expected Created", rec.ID, rec.Status)
	}

	adapter, ok := m.adapterFor(rec)
	if !ok {
		return nil, escrowerr.New(escrowerr.LedgerUnavailable, "no adapter available")
	}

	seen := make(map[string]struct{}, len(rec.FundingTxIDs))
	for _, id := range rec.FundingTxIDs {
		seen[id] = struct{}{}
	}

	required := requiredDeposit(rec.Token, rec.Amount, rec.SafetyDeposit)

	verified := append([]string{}, rec.FundingTxIDs...)

	for _, txID := range req.TxIDs {
		if _, dup := seen[txID]; dup {
			continue
		}

		resolved, err := adapter.ResolveTx(ctx, txID)
		if err != nil {
			return nil, escrowerr.Wrap(escrowerr.LedgerUnavailable, err)
		}
		if !resolved.Validated || !resolved.Successful || resolved.Type != ledger.ValueTransfer ||
			resolved.Destination != rec.WalletAddress {
			return nil, escrowerr.New(escrowerr.InvalidTransaction, "tx %s is not a validated transfer to %s", txID, rec.WalletAddress)
		}
		if resolved.Asset != ledger.NativeAsset && resolved.Asset != rec.Token {
			return nil, escrowerr.New(escrowerr.InvalidTransaction, "tx %s delivers asset %s, escrow expects %s or native", txID, resolved.Asset, rec.Token)
		}

		seen[txID] = struct{}{}
		verified = append(verified, txID)
	}

	// Re-sum every verified tx's delivered amount fresh each call rather
	// than trusting an incrementally maintained running total, so the
	// idempotence rule (resubmission MUST NOT double-count) holds even
	// if ResolveTx's answer for a previously-seen tx id were to change.
	// Native and token legs are tallied separately: a non-native escrow's
	// required_deposit has two independent components and both must clear.
	nativeTotal := big.NewInt(0)
	tokenTotal := big.NewInt(0)
	for _, txID := range verified {
		resolved, err := adapter.ResolveTx(ctx, txID)
		if err != nil {
			return nil, escrowerr.Wrap(escrowerr.LedgerUnavailable, err)
		}
		if resolved.Asset == ledger.NativeAsset {
			nativeTotal.Add(nativeTotal, resolved.DeliveredAmount)
		} else {
			tokenTotal.Add(tokenTotal, resolved.DeliveredAmount)
		}
	}

	nativeShort := nativeTotal.Cmp(required.Native) < 0
	tokenShort := rec.Token != ledger.NativeAsset && tokenTotal.Cmp(required.Token) < 0

	if nativeShort || tokenShort {
		rec.FundingTxIDs = verified
		return nil, escrowerr.New(escrowerr.InsufficientFunding,
			"received native=%s token=%s of required native=%s token=%s", nativeTotal, tokenTotal, required.Native, required.Token)
	}

	rec.FundingTxIDs = verified
	rec.Status = store.Funded
	log.Infof("escrow %s funded, native received %s token received %s", rec.ID, nativeTotal, tokenTotal)

	return &FundResult{NativeReceived: nativeTotal, TokenReceived: tokenTotal, VerifiedTxs: verified}, nil
}

// WithdrawRequest carries the inputs to Withdraw (spec.md §4.7).
type WithdrawRequest struct {
	EscrowID      codec.EscrowID
	Secret        []byte
	CallerAddress string
	IsPublic      bool
}

// WithdrawResult is the typed result of Withdraw.
type WithdrawResult struct {
	PrincipalTxID string
	SafetyTxID    string
	Secret        []byte
	Amount        *big.Int
}

// Withdraw validates the hashlock, authorization, and timing window, then
// settles the principal to the maker and (if non-zero) the safety deposit
// to the caller, per spec.md §4.7's best-effort-atomic ordering.
func (m *Machine) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error) {
	rec, err := m.store.Get(req.EscrowID)
	if err != nil {
		return nil, err
	}

	rec.Lock()
	defer rec.Unlock()

	if rec.Status != store.Funded {
		return nil, escrowerr.New(escrowerr.InvalidState, "escrow %s is %s, expected Funded", rec.ID, rec.Status)
	}

	if len(req.Secret) != 32 {
		return nil, escrowerr.New(escrowerr.InvalidParameters, "secret must be 32 bytes")
	}
	digest := codec.Keccak256(req.Secret)
	if !codec.HexEqual(digest[:], rec.Hashlock[:]) {
		return nil, escrowerr.New(escrowerr.InvalidSecret, "keccak256(secret) does not match hashlock")
	}

	var start, end codec.Phase
	if req.IsPublic {
		start, end = codec.DstPublicWithdrawal, codec.DstCancellation
	} else {
		if req.CallerAddress != rec.Taker {
			return nil, escrowerr.New(escrowerr.Unauthorized, "caller %s is not the taker", req.CallerAddress)
		}
		start, end = codec.DstWithdrawal, codec.DstCancellation
	}

	if err := phase.ValidateWindow(rec.Timelocks, start, &end, m.now(), time.Duration(m.slackSeconds)*time.Second); err != nil {
		return nil, err
	}

	wm, ok := m.walletFor(rec)
	if !ok {
		return nil, escrowerr.New(escrowerr.LedgerUnavailable, "no wallet manager available")
	}

	principalTxID, err := wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, rec.Maker, rec.Token, rec.Amount)
	if err != nil {
		return nil, escrowerr.Wrap(escrowerr.SettlementFailed, err)
	}

	var safetyTxID string
	if rec.SafetyDeposit.Sign() > 0 {
		safetyTxID, err = wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, req.CallerAddress, ledger.NativeAsset, rec.SafetyDeposit)
		if err != nil {
			// Principal already settled; leave status Withdrawn per
			// spec.md §4.7 and surface the reconciliation-worthy
			// partial outcome rather than rolling back.
			rec.Status = store.Withdrawn
			rec.Secret = append([]byte(nil), req.Secret...)
			rec.SettlementTxIDs = append(rec.SettlementTxIDs, principalTxID)
			log.Warnf("escrow %s principal settled but safety deposit transfer failed: %v", rec.ID, err)
			return &WithdrawResult{PrincipalTxID: principalTxID, Secret: req.Secret, Amount: rec.Amount}, escrowerr.Wrap(escrowerr.SettlementFailed, err)
		}
	}

	rec.Status = store.Withdrawn
	rec.Secret = append([]byte(nil), req.Secret...)
	rec.SettlementTxIDs = append(rec.SettlementTxIDs, principalTxID)
	if safetyTxID != "" {
		rec.SettlementTxIDs = append(rec.SettlementTxIDs, safetyTxID)
	}

	// The secret is intentionally not forgotten here: spec.md §5 keeps the
	// wallet-secret store read-only after create, dropped only on process
	// exit, so a later Rescue on this escrow can still sign.

	return &WithdrawResult{
		PrincipalTxID: principalTxID,
		SafetyTxID:    safetyTxID,
		Secret:        req.Secret,
		Amount:        rec.Amount,
	}, nil
}

// CancelRequest carries the inputs to Cancel (spec.md §4.8).
type CancelRequest struct {
	EscrowID      codec.EscrowID
	CallerAddress string
}

// CancelResult is the typed result of Cancel.
type CancelResult struct {
	CancelTxIDs   []string
	TotalRefunded *big.Int
}

// Cancel refunds the escrow per its side's policy once the cancellation
// window has opened, requiring the taker as caller (spec.md §4.8; source-
// side and public-cancellation phases are decoded but not separately
// driven by this coordinator, per DESIGN.md's Open Question 3).
func (m *Machine) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	rec, err := m.store.Get(req.EscrowID)
	if err != nil {
		return nil, err
	}

	rec.Lock()
	defer rec.Unlock()

	if rec.Status != store.Funded {
		return nil, escrowerr.New(escrowerr.InvalidState, "escrow %s is %s, expected Funded", rec.ID, rec.Status)
	}
	if req.CallerAddress != rec.Taker {
		return nil, escrowerr.New(escrowerr.Unauthorized, "caller %s is not the taker", req.CallerAddress)
	}

	if err := phase.ValidateWindow(rec.Timelocks, codec.DstCancellation, nil, m.now(), time.Duration(m.slackSeconds)*time.Second); err != nil {
		return nil, err
	}

	wm, ok := m.walletFor(rec)
	if !ok {
		return nil, escrowerr.New(escrowerr.LedgerUnavailable, "no wallet manager available")
	}

	var txIDs []string
	var total *big.Int

	switch rec.Side {
	case store.Destination:
		amount := new(big.Int).Add(rec.Amount, rec.SafetyDeposit)
		txID, err := wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, rec.Taker, rec.Token, amount)
		if err != nil {
			return nil, escrowerr.Wrap(escrowerr.SettlementFailed, err)
		}
		txIDs = []string{txID}
		total = amount

	case store.Source:
		principalTxID, err := wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, rec.Maker, rec.Token, rec.Amount)
		if err != nil {
			return nil, escrowerr.Wrap(escrowerr.SettlementFailed, err)
		}
		safetyTxID, err := wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, rec.Taker, ledger.NativeAsset, rec.SafetyDeposit)
		if err != nil {
			rec.Status = store.Cancelled
			rec.SettlementTxIDs = append(rec.SettlementTxIDs, principalTxID)
			return nil, escrowerr.Wrap(escrowerr.SettlementFailed, err)
		}
		txIDs = []string{principalTxID, safetyTxID}
		total = new(big.Int).Add(rec.Amount, rec.SafetyDeposit)

	default:
		return nil, escrowerr.New(escrowerr.InvalidState, "unknown escrow side %d", rec.Side)
	}

	rec.Status = store.Cancelled
	rec.SettlementTxIDs = append(rec.SettlementTxIDs, txIDs...)

	return &CancelResult{CancelTxIDs: txIDs, TotalRefunded: total}, nil
}

// RescueRequest carries the inputs to Rescue (spec.md §4.9).
type RescueRequest struct {
	EscrowID      codec.EscrowID
	CallerAddress string
	Amount        *big.Int
}

// RescueResult is the typed result of Rescue.
type RescueResult struct {
	TxID   string
	Amount *big.Int
}

// Rescue is the emergency escape hatch: after rescueDelaySeconds have
// elapsed since deployed_at, the taker may sweep amount from the escrow
// wallet. Status becomes Rescued; a rescue after a terminal status
// (Withdrawn/Cancelled) is left as-is rather than regressed, documenting
// the choice spec.md §4.9 leaves open.
func (m *Machine) Rescue(ctx context.Context, req RescueRequest) (*RescueResult, error) {
	rec, err := m.store.Get(req.EscrowID)
	if err != nil {
		return nil, err
	}

	rec.Lock()
	defer rec.Unlock()

	if rec.Status == store.Rescued {
		return nil, escrowerr.New(escrowerr.InvalidState, "escrow %s already rescued", rec.ID)
	}
	if req.CallerAddress != rec.Taker {
		return nil, escrowerr.New(escrowerr.Unauthorized, "caller %s is not the taker", req.CallerAddress)
	}

	rescueAt := rec.DeployedAt + m.rescueDelaySeconds
	if m.now().Unix() < rescueAt {
		return nil, escrowerr.New(
			escrowerr.NotYetOpen,
			"rescue not available until %s",
			time.Unix(rescueAt, 0).UTC().Format(time.RFC3339),
		)
	}

	wm, ok := m.walletFor(rec)
	if !ok {
		return nil, escrowerr.New(escrowerr.LedgerUnavailable, "no wallet manager available")
	}

	txID, err := wm.SignAndSubmit(ctx, rec.ID, rec.WalletAddress, req.CallerAddress, ledger.NativeAsset, req.Amount)
	if err != nil {
		return nil, escrowerr.Wrap(escrowerr.SettlementFailed, err)
	}

	// A terminal escrow (Withdrawn/Cancelled) already settled its funds;
	// a rescue reaching this point is sweeping residual dust, so its
	// status is left as-is rather than regressed to Rescued. Only a
	// non-terminal escrow (Created/Funded) transitions to Rescued.
	if rec.Status == store.Created || rec.Status == store.Funded {
		rec.Status = store.Rescued
	}
	rec.SettlementTxIDs = append(rec.SettlementTxIDs, txID)

	return &RescueResult{TxID: txID, Amount: req.Amount}, nil
}

// Health reports the coordinator's liveness for the Health command: the
// number of tracked escrows and, per registered chain, whether a non-nil
// adapter is registered for it. No ledger call is made.
func (m *Machine) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		ActiveEscrows: m.store.Len(),
		Connected:     make(map[string]bool),
	}
	for _, chain := range m.ledgers.Chains() {
		adapter, ok := m.ledgers.Lookup(chain)
		report.Connected[chain.String()] = ok && adapter != nil
	}
	report.Healthy = true
	for _, ok := range report.Connected {
		if !ok {
			report.Healthy = false
		}
	}
	return report
}

// HealthReport is the typed result of the Health command.
type HealthReport struct {
	Healthy       bool
	Connected     map[string]bool
	ActiveEscrows int
}

// Get returns the public view of an escrow record: every field the
// GetEscrow command exposes, deliberately excluding wallet secret
// material (the wallet package's secret map is never reachable from here).
// The returned record is a snapshot taken under the record's own lock, so a
// concurrent Fund/Withdraw/Cancel/Rescue transition can never be observed
// torn.
func (m *Machine) Get(id codec.EscrowID) (*store.Record, error) {
	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.Snapshot(), nil
}
