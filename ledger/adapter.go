// Package ledger defines the capability interface the escrow state machine
// depends on for all external-chain interaction, plus the registry that
// binds a ChainCode to a concrete Adapter. This is the integration seam
// that lets the same escrow core target XRPL or Cardano, grounded on
// chainregistry.go's chainControl/chainRegistry split in the teacher
// daemon.
package ledger

import (
	"context"
	"math/big"
)

// ChainCode names the external ledger an Adapter targets.
type ChainCode uint32

const (
	// XRPL is the reference target: the XRP Ledger.
	XRPL ChainCode = iota
	// Cardano is the second variant named in the specification.
	Cardano
)

// String renders the chain code for logs.
func (c ChainCode) String() string {
	switch c {
	case XRPL:
		return "xrpl"
	case Cardano:
		return "cardano"
	default:
		return "unknown"
	}
}

// NativeAsset is the sentinel Asset value selecting the chain's native
// currency (XRP drops, ADA lovelace) rather than an issued/native token.
const NativeAsset = ""

// Asset selects the currency a transfer moves. The empty string is the
// chain's native asset; any other value is a chain-native asset identifier
// (an XRPL issued-currency triple, a Cardano policy-id.asset-name pair).
type Asset = string

// TxType enumerates the kinds of transaction resolve_tx can report. Only
// ValueTransfer is ever acceptable as a funding or settlement transaction.
type TxType int

const (
	UnknownTxType TxType = iota
	ValueTransfer
)

// ResolvedTx is the capability-interface result of resolve_tx: enough
// information to decide whether a claimed deposit transaction id is a
// validated, successful transfer to the expected destination.
type ResolvedTx struct {
	Type             TxType
	Destination      string
	Asset            Asset
	DeliveredAmount  *big.Int
	Validated        bool
	Successful       bool
}

// Adapter is the capability set the escrow state machine requires from an
// external ledger client. Exactly the five operations named in the
// specification; no adapter method may do anything the state machine
// doesn't explicitly ask for (e.g. no adapter exposes raw key export).
type Adapter interface {
	// GenerateWallet creates a fresh keypair with cryptographically
	// secure entropy and returns its public address plus opaque signing
	// material. The opaque secret is never logged or returned from any
	// other Adapter method.
	GenerateWallet(ctx context.Context) (address string, secret []byte, err error)

	// EnsureFunded tops up address to at least min of the chain's native
	// asset via a faucet or operator-funded reserve. Testnet-only; an
	// Adapter MUST refuse this call when configured for mainnet.
	EnsureFunded(ctx context.Context, address string, min *big.Int) error

	// ResolveTx looks up a transaction by chain-native id and reports its
	// type, destination, delivered amount, and validation status.
	ResolveTx(ctx context.Context, txID string) (*ResolvedTx, error)

	// ReadBalance returns the confirmed balance of address in asset.
	ReadBalance(ctx context.Context, address string, asset Asset) (*big.Int, error)

	// SubmitTransfer signs and submits a value transfer of amount in
	// asset from the account controlled by secret to the destination
	// address, blocking until the transfer reaches validated inclusion
	// with a ledger-native success result. It returns the transaction id.
	SubmitTransfer(ctx context.Context, secret []byte, from, to string, asset Asset, amount *big.Int) (txID string, err error)
}
