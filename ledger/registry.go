package ledger

import (
	"fmt"
	"sync"
)

// Registry maps a ChainCode to its constructed Adapter, mirroring the
// teacher daemon's chainRegistry (chainregistry.go): RegisterChain /
// LookupChain / PrimaryChain, generalized from Bitcoin/Litecoin chainCode
// values to the escrow coordinator's XRPL/Cardano ChainCode values.
type Registry struct {
	mu sync.RWMutex

	adapters map[ChainCode]Adapter
	primary  ChainCode
	hasPrimary bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[ChainCode]Adapter),
	}
}

// Register assigns an Adapter instance to a target chain.
func (r *Registry) Register(chain ChainCode, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[chain] = adapter
}

// Lookup returns the Adapter registered for chain, if any.
func (r *Registry) Lookup(chain ChainCode) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[chain]
	return a, ok
}

// MustLookup returns the Adapter registered for chain, panicking if none
// was registered — intended for call sites where the chain was already
// validated at escrow-create time and an unregistered adapter would be a
// wiring bug, not a runtime condition.
func (r *Registry) MustLookup(chain ChainCode) Adapter {
	a, ok := r.Lookup(chain)
	if !ok {
		panic(fmt.Sprintf("ledger: no adapter registered for chain %s", chain))
	}
	return a
}

// SetPrimary marks chain as the coordinator's home chain.
func (r *Registry) SetPrimary(chain ChainCode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.primary = chain
	r.hasPrimary = true
}

// Primary returns the coordinator's home chain and whether one was set.
func (r *Registry) Primary() (ChainCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.primary, r.hasPrimary
}

// Chains returns every chain currently registered.
func (r *Registry) Chains() []ChainCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChainCode, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	return out
}
