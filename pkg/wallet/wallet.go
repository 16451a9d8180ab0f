package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gnoclaim/pkg/config"
)

var (
	// ErrUnavailable means no wallet bridge is reachable at all.
	ErrUnavailable = errors.New("wallet: no provider available")
	// ErrNoAccounts means the wallet granted access but exposed nothing.
	ErrNoAccounts = errors.New("wallet: provider returned no accounts")
)

// errChainNotAdded is the provider error code for a chain the wallet
// does not know yet; the connector follows up with wallet_addEthereumChain.
const errChainNotAdded = 4902

// BridgeError is a JSON-RPC error returned by the wallet provider.
type BridgeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("wallet: provider error %d: %s", e.Code, e.Message)
}

// Bridge is the transport to an injected wallet provider. It speaks
// the standard provider request protocol plus an event channel for
// accountsChanged / chainChanged notifications.
type Bridge interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	Subscribe(event string, handler func(json.RawMessage)) (func(), error)
	Close() error
}

// Connector wraps a Bridge with the account and chain operations the
// dashboard needs.
type Connector struct {
	bridge Bridge
	chain  config.Chain
	log    *slog.Logger
}

func NewConnector(bridge Bridge, chain config.Chain, log *slog.Logger) *Connector {
	if log == nil {
		log = slog.Default()
	}
	return &Connector{bridge: bridge, chain: chain, log: log}
}

// Available reports whether a bridge is connected at all.
func (c *Connector) Available() bool {
	return c.bridge != nil
}

// RequestAccounts asks the wallet for account access, prompting the
// user if needed. A user rejection surfaces verbatim.
func (c *Connector) RequestAccounts(ctx context.Context) ([]string, error) {
	if c.bridge == nil {
		return nil, ErrUnavailable
	}
	raw, err := c.bridge.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("wallet: decoding accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

// Accounts passively queries already-authorized accounts. It never
// fails: any error yields an empty list, which is what the silent
// reconnect on startup wants.
func (c *Connector) Accounts(ctx context.Context) []string {
	if c.bridge == nil {
		return nil
	}
	raw, err := c.bridge.Request(ctx, "eth_accounts")
	if err != nil {
		c.log.Debug("passive account query failed", "err", err)
		return nil
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil
	}
	return accounts
}

// SwitchChain requests the target chain; if the wallet reports the
// chain as unknown, it is added with full metadata and any other error
// propagates.
func (c *Connector) SwitchChain(ctx context.Context) error {
	if c.bridge == nil {
		return ErrUnavailable
	}
	_, err := c.bridge.Request(ctx, "wallet_switchEthereumChain",
		map[string]string{"chainId": c.chain.HexID()})
	if err == nil {
		return nil
	}
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) && bridgeErr.Code == errChainNotAdded {
		c.log.Info("chain unknown to wallet, adding it", "chain", c.chain.Name)
		return c.addChain(ctx)
	}
	return err
}

func (c *Connector) addChain(ctx context.Context) error {
	_, err := c.bridge.Request(ctx, "wallet_addEthereumChain", map[string]any{
		"chainId":   c.chain.HexID(),
		"chainName": c.chain.Name,
		"nativeCurrency": map[string]any{
			"name":     c.chain.CurrencyName,
			"symbol":   c.chain.CurrencySymbol,
			"decimals": c.chain.CurrencyDecimals,
		},
		"rpcUrls":           []string{c.chain.RPCURL},
		"blockExplorerUrls": []string{c.chain.ExplorerURL},
	})
	return err
}

// SubscribeToChanges registers for account and chain change events and
// returns a single unsubscribe for both. An empty account list means
// the wallet disconnected. By caller contract a chain change triggers
// a full session restart rather than in-place renegotiation.
func (c *Connector) SubscribeToChanges(onAccounts func([]string), onChain func(string)) (func(), error) {
	if c.bridge == nil {
		return func() {}, ErrUnavailable
	}
	unsubAccounts, err := c.bridge.Subscribe("accountsChanged", func(raw json.RawMessage) {
		var accounts []string
		if err := json.Unmarshal(raw, &accounts); err != nil {
			c.log.Warn("malformed accountsChanged payload", "err", err)
			return
		}
		onAccounts(accounts)
	})
	if err != nil {
		return func() {}, err
	}
	unsubChain, err := c.bridge.Subscribe("chainChanged", func(raw json.RawMessage) {
		var params []string
		if err := json.Unmarshal(raw, &params); err != nil || len(params) == 0 {
			c.log.Warn("malformed chainChanged payload", "err", err)
			return
		}
		onChain(params[0])
	})
	if err != nil {
		unsubAccounts()
		return func() {}, err
	}
	return func() {
		unsubAccounts()
		unsubChain()
	}, nil
}

// Call performs a read through the wallet provider.
func (c *Connector) Call(ctx context.Context, to, data string) (string, error) {
	if c.bridge == nil {
		return "", ErrUnavailable
	}
	raw, err := c.bridge.Request(ctx, "eth_call",
		map[string]string{"to": to, "data": data}, "latest")
	if err != nil {
		return "", err
	}
	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("wallet: decoding call result: %w", err)
	}
	return result, nil
}

// SendTransaction submits a transaction through the wallet provider
// and returns the transaction hash.
func (c *Connector) SendTransaction(ctx context.Context, to, data, from string) (string, error) {
	if c.bridge == nil {
		return "", ErrUnavailable
	}
	raw, err := c.bridge.Request(ctx, "eth_sendTransaction",
		map[string]string{"from": from, "to": to, "data": data})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("wallet: decoding tx hash: %w", err)
	}
	return hash, nil
}
