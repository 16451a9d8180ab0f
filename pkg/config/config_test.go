package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Chain.ID != 100 {
		t.Errorf("default chain ID = %d; want 100", cfg.Chain.ID)
	}
	if cfg.Chain.HexID() != "0x64" {
		t.Errorf("default hex chain ID = %q; want %q", cfg.Chain.HexID(), "0x64")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	input := `{
		"chain": {
			"id": 10200,
			"name": "Chiado",
			"currency_symbol": "XDAI",
			"currency_decimals": 18,
			"rpc_url": "https://rpc.chiadochain.net",
			"explorer_url": "https://blockscout.chiadochain.net"
		},
		"demo_mode": true
	}`
	cfg, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Chain.ID != 10200 {
		t.Errorf("chain ID = %d; want 10200", cfg.Chain.ID)
	}
	if !cfg.DemoMode {
		t.Error("demo_mode not loaded")
	}
	// Fields absent from the file keep their defaults.
	if cfg.ClaimContract != DefaultClaimContract {
		t.Errorf("claim contract = %q; want default", cfg.ClaimContract)
	}
	if cfg.IndexerURL != DefaultIndexerURL {
		t.Errorf("indexer URL = %q; want default", cfg.IndexerURL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad json", `{`},
		{"empty rpc", `{"chain": {"id": 100, "rpc_url": " "}}`},
		{"bad chain id", `{"chain": {"id": -1, "rpc_url": "https://rpc.gnosischain.com"}}`},
		{"empty claim contract", `{"claim_contract": ""}`},
	}
	for _, tt := range tests {
		if _, err := Load(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: Load accepted invalid config", tt.name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got error: %v", err)
	}
	if cfg.Chain.RPCURL != DefaultRPCURL {
		t.Errorf("rpc URL = %q; want default", cfg.Chain.RPCURL)
	}
}

func TestSafeHostEnvOverride(t *testing.T) {
	t.Setenv("GNOCLAIM_SAFE_HOST", "http://localhost:9321")
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFromFile returned error: %v", err)
	}
	if cfg.SafeHostURL != "http://localhost:9321" {
		t.Errorf("safe host URL = %q; want env value", cfg.SafeHostURL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := Default()
	cfg.DemoMode = true
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile returned error: %v", err)
	}
	if !loaded.DemoMode {
		t.Error("demo_mode lost in round trip")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Save")
	}
}
