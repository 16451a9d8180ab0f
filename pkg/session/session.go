package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"gnoclaim/pkg/codec"
	"gnoclaim/pkg/config"
	"gnoclaim/pkg/connection"
	"gnoclaim/pkg/contract"
	"gnoclaim/pkg/validators"
)

// ErrNotConnected is returned by account-bound operations before a
// successful connect.
var ErrNotConnected = errors.New("session: no account connected")

// ErrInvalidAddress rejects malformed lookup input before it reaches
// the contract service, which does no validation of its own.
var ErrInvalidAddress = errors.New("session: invalid address")

// historyLimit caps the retained withdrawable-amount history.
const historyLimit = 288

// Rewards is one account's fetched dashboard data. Amounts are
// display-unit decimal strings, already formatted.
type Rewards struct {
	Account      string `json:"account"`
	Withdrawable string `json:"withdrawable"`
	Balance      string `json:"balance"`
	Validators   int    `json:"validators"`
}

// DataSource is the fetch-and-claim surface the session drives,
// injectable for tests.
type DataSource interface {
	WithdrawableAmount(ctx context.Context, contract, account string) (string, error)
	TokenBalance(ctx context.Context, token, account string) (string, error)
	ValidatorCount(ctx context.Context, account string) int
	Claim(ctx context.Context, contract, account string) (string, error)
}

// realDataSource implements DataSource with the contract service and
// the validator indexer client.
type realDataSource struct {
	contracts  *contract.Service
	validators *validators.Client
}

func (d *realDataSource) WithdrawableAmount(ctx context.Context, contractAddr, account string) (string, error) {
	return d.contracts.WithdrawableAmount(ctx, contractAddr, account)
}

func (d *realDataSource) TokenBalance(ctx context.Context, token, account string) (string, error) {
	return d.contracts.TokenBalance(ctx, token, account)
}

func (d *realDataSource) ValidatorCount(ctx context.Context, account string) int {
	return d.validators.Count(ctx, account)
}

func (d *realDataSource) Claim(ctx context.Context, contractAddr, account string) (string, error) {
	return d.contracts.Claim(ctx, contractAddr, account)
}

// NewDataSource builds the production DataSource.
func NewDataSource(contracts *contract.Service, validators *validators.Client) DataSource {
	return &realDataSource{contracts: contracts, validators: validators}
}

// Session holds one dashboard session's mutable state: the connected
// account, the latest fetched rewards and their history. All service
// orchestration goes through it, and every state change is broadcast
// to subscribers. State lives and dies with the process.
type Session struct {
	cfg     config.Config
	adapter *connection.Adapter
	ds      DataSource
	log     *slog.Logger

	mu          sync.RWMutex
	account     string
	rewards     Rewards
	history     []float64
	subscribers []Subscriber
	unwatch     func()
}

func New(cfg config.Config, adapter *connection.Adapter, ds DataSource, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{cfg: cfg, adapter: adapter, ds: ds, log: log}
}

// Mode reports which provider the session resolved to.
func (s *Session) Mode(ctx context.Context) connection.Mode {
	mode, err := s.adapter.Resolve(ctx)
	if err != nil {
		return connection.ModeUnknown
	}
	return mode
}

// Connect interactively requests an account and ensures the wallet is
// on the target chain.
func (s *Session) Connect(ctx context.Context) (string, error) {
	accounts, err := s.adapter.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	if err := s.adapter.SwitchChain(ctx); err != nil {
		return "", err
	}
	s.setAccount(accounts[0])
	return accounts[0], nil
}

// Reconnect attempts a silent reconnection using already-authorized
// accounts. It never fails; an empty result means no session.
func (s *Session) Reconnect(ctx context.Context) string {
	accounts := s.adapter.Accounts(ctx)
	if len(accounts) == 0 {
		return ""
	}
	s.setAccount(accounts[0])
	return accounts[0]
}

// Watch subscribes to provider change events: an account change
// reconnects or disconnects the session, a chain change is broadcast
// for the controller to restart on.
func (s *Session) Watch(ctx context.Context) error {
	unwatch, err := s.adapter.SubscribeToChanges(ctx,
		func(accounts []string) {
			if len(accounts) == 0 {
				s.clearAccount()
				return
			}
			s.setAccount(accounts[0])
		},
		func(chainID string) {
			s.notify(Event{Type: EventChainChanged, Data: chainID})
		},
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unwatch = unwatch
	s.mu.Unlock()
	return nil
}

// Refresh fetches the withdrawable amount, token balance and validator
// count for the connected account concurrently. The three fetches are
// joined with first-rejection-wins semantics: if any fails, no field
// is updated.
func (s *Session) Refresh(ctx context.Context) (Rewards, error) {
	s.mu.RLock()
	account := s.account
	s.mu.RUnlock()
	if account == "" {
		return Rewards{}, ErrNotConnected
	}

	rewards, err := s.fetch(ctx, account)
	if err != nil {
		return Rewards{}, err
	}

	s.mu.Lock()
	s.rewards = rewards
	if v, perr := strconv.ParseFloat(rewards.Withdrawable, 64); perr == nil {
		s.history = append(s.history, v)
		if len(s.history) > historyLimit {
			s.history = s.history[len(s.history)-historyLimit:]
		}
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventRewardsUpdated, Data: rewards})
	return rewards, nil
}

// Lookup fetches the same dashboard data for an arbitrary address
// without touching the connected account's state. This is the one path
// where the address comes from free text, so it is validated here.
func (s *Session) Lookup(ctx context.Context, address string) (Rewards, error) {
	if !codec.IsValidAddress(address) {
		return Rewards{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return s.fetch(ctx, address)
}

func (s *Session) fetch(ctx context.Context, account string) (Rewards, error) {
	var amountHex, balanceHex string
	var count int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		amountHex, err = s.ds.WithdrawableAmount(ctx, s.cfg.ClaimContract, account)
		return err
	})
	g.Go(func() error {
		var err error
		balanceHex, err = s.ds.TokenBalance(ctx, s.cfg.TokenContract, account)
		return err
	})
	g.Go(func() error {
		// The count degrades to zero internally instead of failing.
		count = s.ds.ValidatorCount(ctx, account)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Rewards{}, err
	}

	return Rewards{
		Account:      account,
		Withdrawable: codec.FormatAmount(amountHex),
		Balance:      codec.FormatAmount(balanceHex),
		Validators:   count,
	}, nil
}

// Claim submits the claim transaction for the connected account and
// returns the transaction identifier (an on-chain hash via a wallet, a
// Safe transaction hash when embedded).
func (s *Session) Claim(ctx context.Context) (string, error) {
	s.mu.RLock()
	account := s.account
	s.mu.RUnlock()
	if account == "" {
		return "", ErrNotConnected
	}
	hash, err := s.ds.Claim(ctx, s.cfg.ClaimContract, account)
	if err != nil {
		return "", err
	}
	s.notify(Event{Type: EventClaimSubmitted, Data: hash})
	return hash, nil
}

// Account returns the connected account, empty when disconnected.
func (s *Session) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// Snapshot returns the current rewards and withdrawable history.
func (s *Session) Snapshot() (Rewards, []float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]float64, len(s.history))
	copy(history, s.history)
	return s.rewards, history
}

// Config returns the session's deployment configuration.
func (s *Session) Config() config.Config {
	return s.cfg
}

func (s *Session) setAccount(account string) {
	s.mu.Lock()
	changed := s.account != account
	s.account = account
	s.mu.Unlock()
	if changed {
		s.notify(Event{Type: EventConnected, Data: account})
	}
}

func (s *Session) clearAccount() {
	s.mu.Lock()
	changed := s.account != ""
	s.account = ""
	s.rewards = Rewards{}
	s.mu.Unlock()
	if changed {
		s.notify(Event{Type: EventDisconnected})
	}
}

// Close drops the provider change subscription.
func (s *Session) Close() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
}

// Subscribe adds a subscriber and returns its event channel.
func (s *Session) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Session) Unsubscribe(ch Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Session) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			// Slow subscriber, drop the event.
		}
	}
}
