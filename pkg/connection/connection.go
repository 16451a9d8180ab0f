package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"gnoclaim/pkg/safeapp"
)

// Mode is the resolved connection context for the session.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeWallet
	ModeSafe
)

func (m Mode) String() string {
	switch m {
	case ModeWallet:
		return "wallet"
	case ModeSafe:
		return "safe"
	default:
		return "unknown"
	}
}

// Embedding describes how the session is hosted. An embedded context
// whose host we cannot inspect (cross-origin in the browser original)
// is routed exactly like a plain embedded one.
type Embedding int

const (
	TopLevel Embedding = iota
	Embedded
	EmbeddedCrossOrigin
)

// Probe reports the session's embedding. Implementations must be
// cheap; the result is only consulted once per session.
type Probe interface {
	Detect() Embedding
}

// FixedProbe is a Probe with a predetermined answer.
type FixedProbe Embedding

func (p FixedProbe) Detect() Embedding { return Embedding(p) }

// ErrNoReadPath is returned for reads in Safe mode: the host SDK has
// no call surface, so reads must go over direct RPC instead.
var ErrNoReadPath = errors.New("connection: safe host has no read path")

// WalletConnector is the wallet-side surface the adapter routes to.
type WalletConnector interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	Accounts(ctx context.Context) []string
	SwitchChain(ctx context.Context) error
	Call(ctx context.Context, to, data string) (string, error)
	SendTransaction(ctx context.Context, to, data, from string) (string, error)
	SubscribeToChanges(onAccounts func([]string), onChain func(string)) (func(), error)
}

// SafeConnector is the Safe-side surface the adapter routes to.
type SafeConnector interface {
	Init(ctx context.Context) error
	Address(ctx context.Context) (string, error)
	ChainID(ctx context.Context) (int64, error)
	SendTransaction(ctx context.Context, tx safeapp.Tx) (string, error)
	SubscribeToChanges(onAccounts func([]string), onChain func(string)) (func(), error)
}

// Adapter resolves the connection context once per session and routes
// every account, call and transaction operation accordingly.
type Adapter struct {
	probe  Probe
	wallet WalletConnector
	safe   SafeConnector
	log    *slog.Logger

	mu       sync.Mutex
	mode     Mode
	inflight chan struct{}
}

func NewAdapter(probe Probe, wallet WalletConnector, safe SafeConnector, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{probe: probe, wallet: wallet, safe: safe, log: log}
}

// Resolve determines the connection mode, memoizing both the final
// value and the in-flight attempt: concurrent callers before the first
// resolution completes all wait on the same Safe init instead of
// triggering duplicates.
func (a *Adapter) Resolve(ctx context.Context) (Mode, error) {
	a.mu.Lock()
	if a.mode != ModeUnknown {
		mode := a.mode
		a.mu.Unlock()
		return mode, nil
	}
	if a.inflight != nil {
		done := a.inflight
		a.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ModeUnknown, ctx.Err()
		}
		a.mu.Lock()
		mode := a.mode
		a.mu.Unlock()
		return mode, nil
	}
	done := make(chan struct{})
	a.inflight = done
	a.mu.Unlock()

	mode := a.resolve(ctx)

	a.mu.Lock()
	a.mode = mode
	a.inflight = nil
	close(done)
	a.mu.Unlock()
	return mode, nil
}

func (a *Adapter) resolve(ctx context.Context) Mode {
	if a.probe.Detect() == TopLevel {
		return ModeWallet
	}
	// Embedded is a hint, not a guarantee: the frame may not be a Safe
	// host at all, so an init failure downgrades gracefully.
	if err := a.safe.Init(ctx); err != nil {
		a.log.Warn("embedded but safe init failed, downgrading to wallet", "err", err)
		return ModeWallet
	}
	return ModeSafe
}

// RequestAccounts connects interactively: the Safe's fixed address in
// Safe mode, a wallet permission prompt otherwise.
func (a *Adapter) RequestAccounts(ctx context.Context) ([]string, error) {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if mode == ModeSafe {
		addr, err := a.safe.Address(ctx)
		if err != nil {
			return nil, err
		}
		return []string{addr}, nil
	}
	return a.wallet.RequestAccounts(ctx)
}

// Accounts queries accounts without prompting; empty means none.
func (a *Adapter) Accounts(ctx context.Context) []string {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return nil
	}
	if mode == ModeSafe {
		addr, err := a.safe.Address(ctx)
		if err != nil {
			return nil
		}
		return []string{addr}
	}
	return a.wallet.Accounts(ctx)
}

// SwitchChain ensures the wallet is on the target chain. A Safe's
// chain is fixed by the host, so Safe mode is a no-op.
func (a *Adapter) SwitchChain(ctx context.Context) error {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return err
	}
	if mode == ModeSafe {
		return nil
	}
	return a.wallet.SwitchChain(ctx)
}

// Call routes a read to the wallet provider; in Safe mode it reports
// ErrNoReadPath so the RPC client falls through to direct RPC.
func (a *Adapter) Call(ctx context.Context, to, data string) (string, error) {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if mode == ModeSafe {
		return "", ErrNoReadPath
	}
	return a.wallet.Call(ctx, to, data)
}

// SendTransaction routes a write to whichever provider is active. In
// Safe mode the returned identifier is the Safe transaction hash, not
// an on-chain one.
func (a *Adapter) SendTransaction(ctx context.Context, to, data, from string) (string, error) {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if mode == ModeSafe {
		return a.safe.SendTransaction(ctx, safeapp.Tx{To: to, Value: "0", Data: data})
	}
	return a.wallet.SendTransaction(ctx, to, data, from)
}

// SubscribeToChanges wires change callbacks to the active connector.
func (a *Adapter) SubscribeToChanges(ctx context.Context, onAccounts func([]string), onChain func(string)) (func(), error) {
	mode, err := a.Resolve(ctx)
	if err != nil {
		return func() {}, err
	}
	if mode == ModeSafe {
		return a.safe.SubscribeToChanges(onAccounts, onChain)
	}
	return a.wallet.SubscribeToChanges(onAccounts, onChain)
}
