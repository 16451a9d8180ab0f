package safeapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable means the host-provided SDK never became reachable
// within the init timeout.
var ErrUnavailable = errors.New("safeapp: host sdk not reachable")

// ErrNotInitialized is returned for operations that require a prior
// successful Init.
var ErrNotInitialized = errors.New("safeapp: connector not initialized")

// Info is the Safe identity reported by the host.
type Info struct {
	SafeAddress string `json:"safeAddress"`
	ChainID     int64  `json:"chainId"`
	Network     string `json:"network"`
}

// Tx is a single transaction for the Safe's queue.
type Tx struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// SDK is the host-provided multisig SDK surface the connector relies on.
type SDK interface {
	GetInfo(ctx context.Context) (Info, error)
	SendTransactions(ctx context.Context, txs []Tx) (string, error)
}

// HostClient talks to the embedding host's SDK endpoint over HTTP.
type HostClient struct {
	baseURL string
	http    *http.Client
}

func NewHostClient(baseURL string) *HostClient {
	return &HostClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HostClient) GetInfo(ctx context.Context) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/info", nil)
	if err != nil {
		return Info{}, err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("safeapp: host returned %s", resp.Status)
	}
	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("safeapp: decoding info: %w", err)
	}
	return info, nil
}

func (h *HostClient) SendTransactions(ctx context.Context, txs []Tx) (string, error) {
	body, err := json.Marshal(map[string]any{"txs": txs})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("safeapp: host returned %s", resp.Status)
	}
	var out struct {
		SafeTxHash string `json:"safeTxHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("safeapp: decoding tx response: %w", err)
	}
	return out.SafeTxHash, nil
}

// Connector initializes the host SDK and caches the Safe identity for
// the session. A Safe's address and chain never change while embedded,
// so there are no change subscriptions.
type Connector struct {
	sdk          SDK
	log          *slog.Logger
	pollInterval time.Duration
	initTimeout  time.Duration

	mu          sync.Mutex
	initialized bool
	info        Info
}

func NewConnector(sdk SDK, log *slog.Logger) *Connector {
	if log == nil {
		log = slog.Default()
	}
	return &Connector{
		sdk:          sdk,
		log:          log,
		pollInterval: 500 * time.Millisecond,
		initTimeout:  8 * time.Second,
	}
}

// Init polls the host SDK until it answers or the timeout elapses,
// then caches the Safe's address and chain ID. On failure the cached
// state is reset so a later retry starts clean.
func (c *Connector) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	var lastErr error
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		info, err := c.sdk.GetInfo(ctx)
		if err == nil {
			c.mu.Lock()
			c.initialized = true
			c.info = info
			c.mu.Unlock()
			c.log.Info("safe host connected", "safe", info.SafeAddress, "chain", info.ChainID)
			return nil
		}
		lastErr = err
		c.log.Debug("safe host not ready", "err", err)

		select {
		case <-ctx.Done():
			c.reset()
			return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
		case <-ticker.C:
		}
	}
}

func (c *Connector) reset() {
	c.mu.Lock()
	c.initialized = false
	c.info = Info{}
	c.mu.Unlock()
}

// Address returns the Safe's address, lazily initializing first.
func (c *Connector) Address(ctx context.Context) (string, error) {
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.SafeAddress, nil
}

// ChainID returns the Safe's chain ID, lazily initializing first.
func (c *Connector) ChainID(ctx context.Context) (int64, error) {
	if err := c.Init(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.ChainID, nil
}

// SendTransaction queues a single transaction with the Safe and
// returns the Safe transaction hash. That hash is not an on-chain tx
// hash: the transaction may still need co-signer confirmations.
func (c *Connector) SendTransaction(ctx context.Context, tx Tx) (string, error) {
	c.mu.Lock()
	ok := c.initialized
	c.mu.Unlock()
	if !ok {
		return "", ErrNotInitialized
	}
	return c.sdk.SendTransactions(ctx, []Tx{tx})
}

// SubscribeToChanges matches the wallet connector's shape. The Safe's
// identity is fixed for the embedding session, so the callbacks never
// fire and the unsubscribe is a no-op.
func (c *Connector) SubscribeToChanges(func([]string), func(string)) (func(), error) {
	return func() {}, nil
}
