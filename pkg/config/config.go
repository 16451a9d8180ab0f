package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gnoclaim/pkg/codec"
)

const ConfigFileName = ".gnoclaim.json"

// Gnosis Chain deployment constants. Fixed per deployment, never
// derived at runtime.
const (
	DefaultChainID       = 100
	DefaultRPCURL        = "https://rpc.gnosischain.com"
	DefaultExplorerURL   = "https://gnosisscan.io"
	DefaultIndexerURL    = "https://gnosis.beaconcha.in/api/v1"
	DefaultClaimContract = "0x0B98057eA310F4d31F2a452B414647007d1645d9"
	DefaultTokenContract = "0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb"
)

// Chain holds the metadata a wallet needs to add or switch to the
// target chain.
type Chain struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	CurrencyName     string `json:"currency_name"`
	CurrencySymbol   string `json:"currency_symbol"`
	CurrencyDecimals int    `json:"currency_decimals"`
	RPCURL           string `json:"rpc_url"`
	ExplorerURL      string `json:"explorer_url"`
}

// HexID returns the chain ID in the 0x-prefixed form wallets expect.
func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", c.ID)
}

// Config holds everything the client needs for one session.
type Config struct {
	Chain           Chain  `json:"chain"`
	IndexerURL      string `json:"indexer_url"`
	ClaimContract   string `json:"claim_contract"`
	TokenContract   string `json:"token_contract"`
	WalletBridgeURL string `json:"wallet_bridge_url,omitempty"`
	SafeHostURL     string `json:"safe_host_url,omitempty"`
	DemoMode        bool   `json:"demo_mode,omitempty"`
}

// Default returns the stock Gnosis Chain configuration.
func Default() Config {
	return Config{
		Chain: Chain{
			ID:               DefaultChainID,
			Name:             "Gnosis Chain",
			CurrencyName:     "xDAI",
			CurrencySymbol:   "XDAI",
			CurrencyDecimals: 18,
			RPCURL:           DefaultRPCURL,
			ExplorerURL:      DefaultExplorerURL,
		},
		IndexerURL:    DefaultIndexerURL,
		ClaimContract: DefaultClaimContract,
		TokenContract: DefaultTokenContract,
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadFromFile reads the config at path, falling back to Default when
// no file exists. The Safe host URL can always be supplied through the
// GNOCLAIM_SAFE_HOST environment variable, which is how an embedding
// wrapper announces itself.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err == nil {
		defer func() { _ = f.Close() }()
		cfg, err = Load(f)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if host := os.Getenv("GNOCLAIM_SAFE_HOST"); host != "" {
		cfg.SafeHostURL = host
	}
	return cfg, nil
}

// Load decodes a config, filling unset fields with defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configs the client can't operate with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		return fmt.Errorf("validation failed: no RPC URL configured")
	}
	if c.Chain.ID <= 0 {
		return fmt.Errorf("validation failed: invalid chain ID %d", c.Chain.ID)
	}
	if !codec.IsValidAddress(c.ClaimContract) {
		return fmt.Errorf("validation failed: invalid claim contract %q", c.ClaimContract)
	}
	if !codec.IsValidAddress(c.TokenContract) {
		return fmt.Errorf("validation failed: invalid token contract %q", c.TokenContract)
	}
	if strings.TrimSpace(c.IndexerURL) == "" {
		return fmt.Errorf("validation failed: no indexer URL configured")
	}
	return nil
}

// Save writes the config atomically via a temp file rename.
func Save(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
