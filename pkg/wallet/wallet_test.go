package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gnoclaim/pkg/config"
)

type fakeBridge struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	requests  []string
	handlers  map[string]func(json.RawMessage)
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		responses: make(map[string]json.RawMessage),
		errs:      make(map[string]error),
		handlers:  make(map[string]func(json.RawMessage)),
	}
}

func (f *fakeBridge) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	f.requests = append(f.requests, method)
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	return f.responses[method], nil
}

func (f *fakeBridge) Subscribe(event string, handler func(json.RawMessage)) (func(), error) {
	f.handlers[event] = handler
	return func() { delete(f.handlers, event) }, nil
}

func (f *fakeBridge) Close() error { return nil }

func testChain() config.Chain {
	return config.Default().Chain
}

func TestRequestAccounts(t *testing.T) {
	bridge := newFakeBridge()
	bridge.responses["eth_requestAccounts"] = json.RawMessage(`["0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"]`)
	c := NewConnector(bridge, testChain(), nil)

	accounts, err := c.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts returned error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts; want 1", len(accounts))
	}
}

func TestRequestAccountsNoBridge(t *testing.T) {
	c := NewConnector(nil, testChain(), nil)
	if _, err := c.RequestAccounts(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v; want ErrUnavailable", err)
	}
}

func TestRequestAccountsEmptyList(t *testing.T) {
	bridge := newFakeBridge()
	bridge.responses["eth_requestAccounts"] = json.RawMessage(`[]`)
	c := NewConnector(bridge, testChain(), nil)

	if _, err := c.RequestAccounts(context.Background()); !errors.Is(err, ErrNoAccounts) {
		t.Errorf("err = %v; want ErrNoAccounts", err)
	}
}

func TestRequestAccountsUserRejection(t *testing.T) {
	rejection := &BridgeError{Code: 4001, Message: "User rejected the request"}
	bridge := newFakeBridge()
	bridge.errs["eth_requestAccounts"] = rejection
	c := NewConnector(bridge, testChain(), nil)

	_, err := c.RequestAccounts(context.Background())
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) || bridgeErr.Code != 4001 {
		t.Errorf("err = %v; want the rejection surfaced verbatim", err)
	}
}

func TestAccountsNeverFails(t *testing.T) {
	bridge := newFakeBridge()
	bridge.errs["eth_accounts"] = errors.New("boom")
	c := NewConnector(bridge, testChain(), nil)

	if got := c.Accounts(context.Background()); got != nil {
		t.Errorf("Accounts = %v; want nil on error", got)
	}

	c = NewConnector(nil, testChain(), nil)
	if got := c.Accounts(context.Background()); got != nil {
		t.Errorf("Accounts = %v; want nil without bridge", got)
	}
}

func TestSwitchChainAddsUnknownChain(t *testing.T) {
	bridge := newFakeBridge()
	bridge.errs["wallet_switchEthereumChain"] = &BridgeError{Code: 4902, Message: "Unrecognized chain ID"}
	c := NewConnector(bridge, testChain(), nil)

	if err := c.SwitchChain(context.Background()); err != nil {
		t.Fatalf("SwitchChain returned error: %v", err)
	}
	want := []string{"wallet_switchEthereumChain", "wallet_addEthereumChain"}
	if len(bridge.requests) != len(want) {
		t.Fatalf("requests = %v; want %v", bridge.requests, want)
	}
	for i := range want {
		if bridge.requests[i] != want[i] {
			t.Errorf("request %d = %s; want %s", i, bridge.requests[i], want[i])
		}
	}
}

func TestSwitchChainOtherErrorPropagates(t *testing.T) {
	bridge := newFakeBridge()
	bridge.errs["wallet_switchEthereumChain"] = &BridgeError{Code: 4001, Message: "User rejected the request"}
	c := NewConnector(bridge, testChain(), nil)

	if err := c.SwitchChain(context.Background()); err == nil {
		t.Fatal("expected rejection to propagate")
	}
	if len(bridge.requests) != 1 {
		t.Errorf("requests = %v; add-chain must not run after rejection", bridge.requests)
	}
}

func TestSubscribeToChanges(t *testing.T) {
	bridge := newFakeBridge()
	c := NewConnector(bridge, testChain(), nil)

	var gotAccounts []string
	var gotChain string
	unsub, err := c.SubscribeToChanges(
		func(accounts []string) { gotAccounts = accounts },
		func(chainID string) { gotChain = chainID },
	)
	if err != nil {
		t.Fatalf("SubscribeToChanges returned error: %v", err)
	}

	bridge.handlers["accountsChanged"](json.RawMessage(`["0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"]`))
	if len(gotAccounts) != 1 {
		t.Errorf("accounts handler got %v", gotAccounts)
	}
	bridge.handlers["accountsChanged"](json.RawMessage(`[]`))
	if len(gotAccounts) != 0 {
		t.Error("empty account list (disconnect) not delivered")
	}

	bridge.handlers["chainChanged"](json.RawMessage(`["0x64"]`))
	if gotChain != "0x64" {
		t.Errorf("chain handler got %q; want 0x64", gotChain)
	}

	unsub()
	if len(bridge.handlers) != 0 {
		t.Errorf("%d handlers left after unsubscribe", len(bridge.handlers))
	}
}

func TestCallDecodesResult(t *testing.T) {
	bridge := newFakeBridge()
	bridge.responses["eth_call"] = json.RawMessage(`"0x6f05b59d3b20000"`)
	c := NewConnector(bridge, testChain(), nil)

	got, err := c.Call(context.Background(), "0x0B98057eA310F4d31F2a452B414647007d1645d9", "0x70a08231")
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if got != "0x6f05b59d3b20000" {
		t.Errorf("result = %q", got)
	}
}
