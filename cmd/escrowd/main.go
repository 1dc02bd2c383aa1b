// escrowd is the coordinator daemon: it wires the escrow state machine to
// a single configured ledger (XRPL or Cardano) and serves commands over a
// minimal net/http + encoding/json transport, per the specification's
// explicit choice to leave the wire transport out of scope and let the
// reference daemon's ambient stack (btclog, go-flags) fill in everything
// around it.
package main

import (
	"fmt"
	"os"

	"github.com/escrowd/coordinator/build"
	"github.com/escrowd/coordinator/escrow"
	"github.com/escrowd/coordinator/ledger"
	"github.com/escrowd/coordinator/ledger/cardano"
	"github.com/escrowd/coordinator/ledger/xrpl"
	"github.com/escrowd/coordinator/store"
	"github.com/escrowd/coordinator/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "escrowd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := build.ParseLevel(cfg.DebugLevel)
	escrow.UseLogger(build.NewSubLogger("ESCR", level))
	wallet.UseLogger(build.NewSubLogger("WLLT", level))
	xrpl.UseLogger(build.NewSubLogger("XRPL", level))
	cardano.UseLogger(build.NewSubLogger("CRDN", level))

	chain, err := cfg.chainCode()
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(chain, cfg)
	if err != nil {
		return fmt.Errorf("build ledger adapter: %w", err)
	}

	reg := ledger.NewRegistry()
	reg.Register(chain, adapter)
	reg.SetPrimary(chain)

	wallets := map[ledger.ChainCode]*wallet.Manager{
		chain: wallet.NewManager(adapter),
	}

	st := store.New()
	machine := escrow.New(st, wallets, reg, cfg.RescueDelaySeconds, cfg.SlackSeconds, nil)

	srv := newServer(machine)

	log := build.NewSubLogger("ESCD", level)
	log.Infof("escrowd listening on %s (chain=%s network=%s rescue_delay=%ds)",
		cfg.ListenAddr, chain, cfg.Network, cfg.RescueDelaySeconds)

	return srv.ListenAndServe(cfg.ListenAddr)
}

// buildAdapter constructs the ledger.Adapter named by chain, pointed at
// the configured network endpoint.
func buildAdapter(chain ledger.ChainCode, cfg *config) (ledger.Adapter, error) {
	network := xrpl.Mainnet
	cardanoNetwork := cardano.Mainnet
	if cfg.Network == "testnet" {
		network = xrpl.Testnet
		cardanoNetwork = cardano.Testnet
	}

	switch chain {
	case ledger.XRPL:
		return xrpl.New(xrpl.Config{
			Endpoint: cfg.NetworkEndpoint,
			Network:  network,
		})
	case ledger.Cardano:
		return cardano.New(cardano.Config{
			APIEndpoint: cfg.NetworkEndpoint,
			Network:     cardanoNetwork,
		}), nil
	default:
		return nil, fmt.Errorf("no adapter constructor for chain %s", chain)
	}
}
