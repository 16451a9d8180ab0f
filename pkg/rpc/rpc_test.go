package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gnoclaim/pkg/codec"
)

const (
	testContract = "0x0B98057eA310F4d31F2a452B414647007d1645d9"
	testData     = "0x70a08231000000000000000000000000ab5801a7d398351b8be11c439e05c5b3259aec9b"
)

type fakeProvider struct {
	callResult string
	callErr    error
	sendResult string
	sendErr    error
	callCount  int
	sendCount  int
}

func (f *fakeProvider) Call(ctx context.Context, to, data string) (string, error) {
	f.callCount++
	return f.callResult, f.callErr
}

func (f *fakeProvider) SendTransaction(ctx context.Context, to, data, from string) (string, error) {
	f.sendCount++
	return f.sendResult, f.sendErr
}

// newRPCServer serves eth_call with a fixed result, or JSON-RPC errors
// when result is empty.
func newRPCServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if result == "" {
			resp["error"] = map[string]interface{}{"code": -32000, "message": "execution reverted"}
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestCallPrefersProvider(t *testing.T) {
	server := newRPCServer(t, "0x01")
	defer server.Close()

	provider := &fakeProvider{callResult: "0x6f05b59d3b20000"}
	client := NewClient(server.URL, false, nil)
	client.SetProvider(provider)
	defer client.Close()

	got, err := client.Call(context.Background(), testContract, testData)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if got != "0x6f05b59d3b20000" {
		t.Errorf("result = %q; want provider result", got)
	}
	if provider.callCount != 1 {
		t.Errorf("provider called %d times; want 1", provider.callCount)
	}
}

func TestCallFallsBackToDirect(t *testing.T) {
	server := newRPCServer(t, "0x00000000000000000000000000000000000000000000000006f05b59d3b20000")
	defer server.Close()

	provider := &fakeProvider{callErr: errors.New("provider gone")}
	client := NewClient(server.URL, false, nil)
	client.SetProvider(provider)
	defer client.Close()

	got, err := client.Call(context.Background(), testContract, testData)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if codec.FormatAmount(got) != "0.500000" {
		t.Errorf("direct result = %q; want 0.5 tokens worth of wei", got)
	}
}

func TestCallWithoutProviderUsesDirect(t *testing.T) {
	server := newRPCServer(t, "0x02")
	defer server.Close()

	client := NewClient(server.URL, false, nil)
	defer client.Close()

	got, err := client.Call(context.Background(), testContract, testData)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if got != "0x02" {
		t.Errorf("result = %q; want %q", got, "0x02")
	}
}

func TestCallTotalFailurePropagates(t *testing.T) {
	server := newRPCServer(t, "")
	defer server.Close()

	client := NewClient(server.URL, false, nil)
	defer client.Close()

	if _, err := client.Call(context.Background(), testContract, testData); err == nil {
		t.Fatal("expected error when provider and direct rpc both fail")
	}
}

func TestCallDemoModeMocks(t *testing.T) {
	server := newRPCServer(t, "")
	defer server.Close()

	client := NewClient(server.URL, true, nil)
	defer client.Close()

	got, err := client.Call(context.Background(), testContract, testData)
	if err != nil {
		t.Fatalf("Call returned error in demo mode: %v", err)
	}
	if codec.FormatAmount(got) != "10.250000" {
		t.Errorf("mock balanceOf = %q; want 10.25 tokens", got)
	}

	// Unknown selector degrades to a zero word, not an error.
	got, err = client.Call(context.Background(), testContract, "0xdeadbeef")
	if err != nil {
		t.Fatalf("Call returned error for unknown selector: %v", err)
	}
	if codec.FormatAmount(got) != codec.ZeroAmount {
		t.Errorf("unknown selector mock = %q; want zero", got)
	}
}

func TestSendTransactionRequiresProvider(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", false, nil)
	defer client.Close()

	_, err := client.SendTransaction(context.Background(), testContract, "0x4e71d92d", testContract)
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("err = %v; want ErrNoProvider", err)
	}
}

func TestSendTransactionNeverMocked(t *testing.T) {
	// Demo mode must not fabricate transaction hashes.
	client := NewClient("http://127.0.0.1:0", true, nil)
	defer client.Close()

	if _, err := client.SendTransaction(context.Background(), testContract, "0x4e71d92d", testContract); err == nil {
		t.Fatal("expected error: writes have no mock tier")
	}

	provider := &fakeProvider{sendErr: errors.New("user rejected")}
	client.SetProvider(provider)
	if _, err := client.SendTransaction(context.Background(), testContract, "0x4e71d92d", testContract); err == nil {
		t.Fatal("expected provider error to surface")
	}
}
