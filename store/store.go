// Package store implements the in-memory escrow record store: a mapping
// from escrow id to escrow record, mutated only through typed
// transitions, grounded on channeldb/db.go's bucket/lookup shape
// (durability itself is dropped per the specification's non-goals — no
// disk-backed bucket DB is needed for a single in-memory map).
package store

import (
	"math/big"
	"sync"

	"github.com/escrowd/coordinator/codec"
	"github.com/escrowd/coordinator/escrowerr"
	"github.com/escrowd/coordinator/ledger"
)

// Status is the escrow lifecycle state.
type Status int

const (
	Created Status = iota
	Funded
	Withdrawn
	Cancelled
	Rescued
)

// String names a Status for logs and wire responses.
func (s Status) String() string {
	switch s {
	case Created:
		return "Created"
	case Funded:
		return "Funded"
	case Withdrawn:
		return "Withdrawn"
	case Cancelled:
		return "Cancelled"
	case Rescued:
		return "Rescued"
	default:
		return "Unknown"
	}
}

// Side selects the refund policy on cancellation.
type Side int

const (
	Destination Side = iota
	Source
)

// Record is one escrow's full state. ID, OrderHash, Hashlock, Maker, Taker,
// Token, Amount, SafetyDeposit, Timelocks, DeployedAt, WalletAddress,
// Chain, and Side are set at creation, with Status Created; transitions
// update Status and populate the remaining fields.
type Record struct {
	ID            codec.EscrowID
	OrderHash     codec.Hash32
	Hashlock      codec.Hash32
	Maker         string
	Taker         string
	Token         string
	Amount        *big.Int
	SafetyDeposit *big.Int
	Timelocks     [7]int64
	DeployedAt    int64
	WalletAddress string
	Chain         ledger.ChainCode
	Side          Side

	Status          Status
	FundingTxIDs    []string
	Secret          []byte
	SettlementTxIDs []string

	// mu serializes every transition against this one escrow, satisfying
	// the per-escrow mutual-exclusion requirement without blocking
	// operations on other escrows.
	mu sync.Mutex
}

// Lock acquires the escrow's per-record mutex. Callers must Unlock before
// returning.
func (r *Record) Lock() { r.mu.Lock() }

// Unlock releases the escrow's per-record mutex.
func (r *Record) Unlock() { r.mu.Unlock() }

// Snapshot returns a deep copy of the record's fields taken under its own
// lock, safe for a caller to read or serialize without racing an in-flight
// transition (Fund/Withdraw/Cancel/Rescue all hold this same lock while
// mutating Status, FundingTxIDs, Secret, and SettlementTxIDs).
func (r *Record) Snapshot() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &Record{
		ID:              r.ID,
		OrderHash:       r.OrderHash,
		Hashlock:        r.Hashlock,
		Maker:           r.Maker,
		Taker:           r.Taker,
		Token:           r.Token,
		Amount:          new(big.Int).Set(r.Amount),
		SafetyDeposit:   new(big.Int).Set(r.SafetyDeposit),
		Timelocks:       r.Timelocks,
		DeployedAt:      r.DeployedAt,
		WalletAddress:   r.WalletAddress,
		Chain:           r.Chain,
		Side:            r.Side,
		Status:          r.Status,
		FundingTxIDs:    append([]string(nil), r.FundingTxIDs...),
		Secret:          append([]byte(nil), r.Secret...),
		SettlementTxIDs: append([]string(nil), r.SettlementTxIDs...),
	}
}

// Store is the in-memory escrow record table.
type Store struct {
	mu      sync.RWMutex
	records map[codec.EscrowID]*Record
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[codec.EscrowID]*Record)}
}

// Insert adds a newly created record. Fails if the id already exists.
func (s *Store) Insert(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ID]; exists {
		return escrowerr.New(escrowerr.InvalidState, "escrow %s already exists", r.ID)
	}
	s.records[r.ID] = r
	return nil
}

// Get returns the record for id, or NotFound.
func (s *Store) Get(id codec.EscrowID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, escrowerr.New(escrowerr.NotFound, "escrow %s not found", id)
	}
	return r, nil
}

// Len returns the number of escrows currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
