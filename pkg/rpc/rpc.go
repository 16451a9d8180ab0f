package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// ErrNoProvider is returned when a write is attempted with no wallet
// or Safe provider connected. Writes have no fallback tier: fabricating
// a transaction hash would be unsafe.
var ErrNoProvider = errors.New("rpc: no active provider for transaction")

// Provider is an account-bearing connection (wallet or Safe) that can
// serve reads and submit transactions on the user's behalf.
type Provider interface {
	Call(ctx context.Context, to, data string) (string, error)
	SendTransaction(ctx context.Context, to, data, from string) (string, error)
}

// ethCallArg mirrors the JSON encoding of an eth_call message.
type ethCallArg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// Client performs read-only contract calls with a provider-then-direct
// fallback chain, plus an explicit opt-in demo tier that fabricates
// plausible values when everything is offline.
type Client struct {
	endpoint string
	demoMode bool
	log      *slog.Logger

	mu       sync.Mutex
	provider Provider
	direct   *gethrpc.Client
}

func NewClient(endpoint string, demoMode bool, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{endpoint: endpoint, demoMode: demoMode, log: log}
}

// SetProvider installs the active provider once the connection adapter
// has resolved one. A nil provider drops back to direct-RPC reads only.
func (c *Client) SetProvider(p Provider) {
	c.mu.Lock()
	c.provider = p
	c.mu.Unlock()
}

func (c *Client) activeProvider() Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

// Call executes a read-only contract call. The active provider is
// tried first, then the configured RPC endpoint; each tier's failure
// is logged and swallowed. In demo mode a final mock tier always
// answers, so the dashboard can render without any network at all.
func (c *Client) Call(ctx context.Context, to, data string) (string, error) {
	if p := c.activeProvider(); p != nil {
		result, err := p.Call(ctx, to, data)
		if err == nil {
			return result, nil
		}
		c.log.Warn("provider call failed, falling back to direct rpc", "to", to, "err", err)
	}

	result, err := c.directCall(ctx, to, data)
	if err == nil {
		return result, nil
	}
	c.log.Warn("direct rpc call failed", "endpoint", c.endpoint, "to", to, "err", err)

	if c.demoMode {
		return mockResult(data), nil
	}
	return "", err
}

// SendTransaction submits a transaction through the active provider.
// Unlike reads, a failed submit always surfaces to the caller.
func (c *Client) SendTransaction(ctx context.Context, to, data, from string) (string, error) {
	p := c.activeProvider()
	if p == nil {
		return "", ErrNoProvider
	}
	return p.SendTransaction(ctx, to, data, from)
}

func (c *Client) directCall(ctx context.Context, to, data string) (string, error) {
	client, err := c.directClient(ctx)
	if err != nil {
		return "", err
	}
	var out hexutil.Bytes
	if err := client.CallContext(ctx, &out, "eth_call", ethCallArg{To: to, Data: data}, "latest"); err != nil {
		return "", err
	}
	return hexutil.Encode(out), nil
}

func (c *Client) directClient(ctx context.Context) (*gethrpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.direct != nil {
		return c.direct, nil
	}
	client, err := gethrpc.DialContext(ctx, c.endpoint)
	if err != nil {
		return nil, err
	}
	c.direct = client
	return client, nil
}

// Close releases the direct RPC connection, if one was ever dialed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.direct != nil {
		c.direct.Close()
		c.direct = nil
	}
}
