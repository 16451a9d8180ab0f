package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gnoclaim/pkg/config"
	"gnoclaim/pkg/connection"
	"gnoclaim/pkg/contract"
	"gnoclaim/pkg/rpc"
	"gnoclaim/pkg/safeapp"
	"gnoclaim/pkg/server"
	"gnoclaim/pkg/session"
	"gnoclaim/pkg/tui"
	"gnoclaim/pkg/validators"
	"gnoclaim/pkg/wallet"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	demoFlag := flag.Bool("demo", false, "Serve canned read results when no provider or RPC is reachable")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 8080, "Port for API server")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("gnoclaim version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}
	if *demoFlag {
		cfg.DemoMode = true
	}

	if *testFlag || *testLongFlag {
		os.Exit(runConfigTest(cfg, path, *jsonFlag))
	}

	log := newLogger()

	ctx := context.Background()

	// The wallet bridge is optional; without one the wallet path just
	// reports unavailable and Safe mode or demo mode can still work.
	var bridge wallet.Bridge
	if cfg.WalletBridgeURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		bridge, err = wallet.DialBridge(dialCtx, cfg.WalletBridgeURL)
		cancel()
		if err != nil {
			log.Warn("wallet bridge unreachable", "url", cfg.WalletBridgeURL, "err", err)
			bridge = nil
		}
	}
	walletConn := wallet.NewConnector(bridge, cfg.Chain, log)

	safeConn := safeapp.NewConnector(safeapp.NewHostClient(cfg.SafeHostURL), log)

	embedding := connection.TopLevel
	if cfg.SafeHostURL != "" {
		embedding = connection.Embedded
	}
	adapter := connection.NewAdapter(connection.FixedProbe(embedding), walletConn, safeConn, log)

	rpcClient := rpc.NewClient(cfg.Chain.RPCURL, cfg.DemoMode, log)
	rpcClient.SetProvider(adapter)
	defer rpcClient.Close()

	contracts := contract.NewService(rpcClient, log)
	vals := validators.NewClient(cfg.IndexerURL, log)

	sess := session.New(cfg, adapter, session.NewDataSource(contracts, vals), log)
	defer sess.Close()
	if err := sess.Watch(ctx); err != nil {
		log.Warn("wallet change events unavailable", "err", err)
	}

	srv := server.NewServer(sess, log)
	go func() {
		if err := srv.Start(*portFlag); err != nil {
			log.Error("server error", "err", err)
		}
	}()

	if *serverFlag {
		fmt.Printf("Running in server mode on port %d...\n", *portFlag)
		select {} // Keep alive
	}

	tui.Start(sess, Version)
}

// newLogger writes to a file next to the config; stdout belongs to the
// TUI. GNOCLAIM_LOG_LEVEL=debug turns on debug logging.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("GNOCLAIM_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}

	var w io.Writer = io.Discard
	if home, err := os.UserHomeDir(); err == nil {
		f, err := os.OpenFile(filepath.Join(home, ".gnoclaim.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			w = f
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type testReport struct {
	ConfigPath      string   `json:"config_path"`
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors,omitempty"`
	RPCStatus       string   `json:"rpc_status"`
	ObservedChainID int64    `json:"observed_chain_id,omitempty"`
	IndexerStatus   string   `json:"indexer_status"`
}

// runConfigTest validates the config and probes the RPC endpoint and
// the validator indexer, mirroring what a session would depend on.
func runConfigTest(cfg config.Config, path string, asJSON bool) int {
	report := testReport{ConfigPath: path, Valid: true}

	if !asJSON {
		fmt.Printf("Testing configuration at: %s\n", path)
	}

	if err := cfg.Validate(); err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, err.Error())
		if !asJSON {
			fmt.Printf("Error: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !asJSON {
		fmt.Printf("  RPC: %s ... ", cfg.Chain.RPCURL)
	}
	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		report.RPCStatus = "error"
		report.Errors = append(report.Errors, err.Error())
		if !asJSON {
			fmt.Printf("Failed: %v\n", err)
		}
	} else {
		id, err := client.ChainID(ctx)
		switch {
		case err != nil:
			report.RPCStatus = "error"
			report.Errors = append(report.Errors, err.Error())
			if !asJSON {
				fmt.Printf("Failed to get ChainID: %v\n", err)
			}
		case id.Int64() != cfg.Chain.ID:
			report.RPCStatus = "mismatch"
			report.ObservedChainID = id.Int64()
			report.Valid = false
			if !asJSON {
				fmt.Printf("MISMATCH! Expected %d, got %s\n", cfg.Chain.ID, id.String())
			}
		default:
			report.RPCStatus = "ok"
			report.ObservedChainID = id.Int64()
			if !asJSON {
				fmt.Printf("OK (ChainID: %s)\n", id.String())
			}
		}
		client.Close()
	}

	if !asJSON {
		fmt.Printf("  Indexer: %s ... ", cfg.IndexerURL)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, cfg.IndexerURL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		report.IndexerStatus = "error"
		report.Errors = append(report.Errors, err.Error())
		if !asJSON {
			fmt.Printf("Failed: %v\n", err)
		}
	} else {
		resp.Body.Close()
		report.IndexerStatus = "ok"
		if !asJSON {
			fmt.Printf("OK (%s)\n", resp.Status)
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}

	if !report.Valid {
		return 1
	}
	return 0
}
