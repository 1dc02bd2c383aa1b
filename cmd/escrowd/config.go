package main

import (
	"fmt"
	"os"

	flags "github.com/btcsuite/go-flags"

	"github.com/escrowd/coordinator/ledger"
)

const (
	defaultConfigFilename = "escrowd.conf"
	defaultListenAddr     = "localhost:8421"

	// defaultRescueDelaySeconds is spec.md §4.9's production default: 7
	// days.
	defaultRescueDelaySeconds = 7 * 24 * 3600

	// integrationRescueDelaySeconds is the override spec.md §9 allows for
	// integration builds: 30 minutes.
	integrationRescueDelaySeconds = 30 * 60
)

// config holds every process-scoped setting named in spec.md §6, parsed
// from the command line and an optional config file via btcsuite/go-flags,
// the same flags library the reference daemon's entry point uses.
type config struct {
	ConfigFile string `long:"configfile" description:"path to configuration file"`

	NetworkEndpoint string `long:"networkendpoint" description:"JSON-RPC/REST endpoint of the target ledger node"`
	ListenAddr      string `long:"listenaddr" description:"address the command transport listens on"`
	Chain           string `long:"chain" description:"target chain: xrpl or cardano" default:"xrpl"`
	Network         string `long:"network" description:"mainnet or testnet" default:"testnet"`

	RescueDelaySeconds int64 `long:"rescuedelayseconds" description:"seconds after deployed_at before rescue becomes callable"`
	Integration        bool  `long:"integration" description:"use the shortened integration-build rescue delay"`
	SlackSeconds       int64 `long:"slackseconds" description:"clock-skew compensation handed to the phase validator"`

	DebugLevel string `long:"debuglevel" description:"logging level: trace, debug, info, warn, error, critical" default:"info"`
}

// loadConfig parses command-line flags, applying config-file values first
// when --configfile names an existing file, mirroring lnd's loadConfig
// layering (defaults, then file, then flags).
func loadConfig() (*config, error) {
	cfg := config{
		ListenAddr:         defaultListenAddr,
		RescueDelaySeconds: defaultRescueDelaySeconds,
	}

	preCfg := cfg
	if _, err := flags.NewParser(&preCfg, flags.Default).Parse(); err != nil {
		return nil, err
	}

	if preCfg.ConfigFile != "" {
		if _, err := os.Stat(preCfg.ConfigFile); err == nil {
			parser := flags.NewParser(&cfg, flags.Default)
			if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.Integration {
		cfg.RescueDelaySeconds = integrationRescueDelaySeconds
	}

	if cfg.NetworkEndpoint == "" {
		return nil, fmt.Errorf("networkendpoint is required")
	}

	return &cfg, nil
}

// chainCode resolves the configured chain name to a ledger.ChainCode.
func (c *config) chainCode() (ledger.ChainCode, error) {
	switch c.Chain {
	case "xrpl":
		return ledger.XRPL, nil
	case "cardano":
		return ledger.Cardano, nil
	default:
		return 0, fmt.Errorf("unknown chain %q", c.Chain)
	}
}
