package config

import (
	"encoding/json"
	"os"
)

// GameConfig holds the staking parameters written to state on first boot.
// After that they live in state and are changed via set_params actions.
type GameConfig struct {
	MinStake    uint64 `json:"min_stake"`
	SeedValue   uint64 `json:"seed_value"`
	StakePeriod int64  `json:"stake_period"` // seconds
}

// TLSConfig holds PEM file paths for the RPC listener. All empty → plain TCP.
type TLSConfig struct {
	CACert   string `json:"ca_cert"`
	NodeCert string `json:"node_cert"`
	NodeKey  string `json:"node_key"`
}

// Config holds all node configuration.
type Config struct {
	NodeID       string            `json:"node_id"`
	DataDir      string            `json:"data_dir"`
	RPCPort      int               `json:"rpc_port"`
	RPCAuthToken string            `json:"rpc_auth_token,omitempty"` // non-empty → Bearer auth required
	Network      string            `json:"network"`
	Owner        string            `json:"owner"`      // operator pubkey hex; empty → node's own key
	EngineURL    string            `json:"engine_url"` // chess rules service
	OracleURL    string            `json:"oracle_url"` // AI move service
	Alloc        map[string]uint64 `json:"alloc"`      // pubkey hex → initial balance
	Game         GameConfig        `json:"game"`
	TLS          *TLSConfig        `json:"tls,omitempty"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:    "node0",
		DataDir:   "./data",
		RPCPort:   8545,
		Network:   "plurality-dev",
		EngineURL: "http://localhost:9100",
		OracleURL: "http://localhost:9200",
		Alloc:     map[string]uint64{},
		Game: GameConfig{
			MinStake:    10,
			SeedValue:   100,
			StakePeriod: 300,
		},
	}
}

// Load reads a JSON config file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
