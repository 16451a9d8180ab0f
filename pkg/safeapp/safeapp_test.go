package safeapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newHostServer(t *testing.T, failFirst int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var infoCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/info":
			n := infoCalls.Add(1)
			if int(n) <= failFirst {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(Info{
				SafeAddress: "0x5aFE3855358E112B5647B952709E6165e1c1eEEe",
				ChainID:     100,
				Network:     "gnosis",
			})
		case "/transactions":
			var body struct {
				Txs []Tx `json:"txs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Txs) != 1 {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"safeTxHash": "0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	return server, &infoCalls
}

func fastConnector(sdk SDK) *Connector {
	c := NewConnector(sdk, nil)
	c.pollInterval = 10 * time.Millisecond
	c.initTimeout = 300 * time.Millisecond
	return c
}

func TestInitRetriesUntilHostReady(t *testing.T) {
	server, infoCalls := newHostServer(t, 2)
	defer server.Close()

	c := fastConnector(NewHostClient(server.URL))
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if got := infoCalls.Load(); got != 3 {
		t.Errorf("host polled %d times; want 3", got)
	}

	addr, err := c.Address(context.Background())
	if err != nil {
		t.Fatalf("Address returned error: %v", err)
	}
	if addr != "0x5aFE3855358E112B5647B952709E6165e1c1eEEe" {
		t.Errorf("address = %q", addr)
	}
	chainID, err := c.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID returned error: %v", err)
	}
	if chainID != 100 {
		t.Errorf("chain ID = %d; want 100", chainID)
	}

	// Cached: no further host round-trips.
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("second Init returned error: %v", err)
	}
	if got := infoCalls.Load(); got != 3 {
		t.Errorf("host polled %d times after cache; want 3", got)
	}
}

func TestInitTimesOutAndResets(t *testing.T) {
	server, _ := newHostServer(t, 1<<30)
	defer server.Close()

	c := fastConnector(NewHostClient(server.URL))
	err := c.Init(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v; want ErrUnavailable", err)
	}

	// Failed init leaves the connector clean for a retry.
	if _, err := c.SendTransaction(context.Background(), Tx{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v; want ErrNotInitialized", err)
	}
}

func TestLazyInitThroughAddress(t *testing.T) {
	server, infoCalls := newHostServer(t, 0)
	defer server.Close()

	c := fastConnector(NewHostClient(server.URL))
	if _, err := c.Address(context.Background()); err != nil {
		t.Fatalf("Address returned error: %v", err)
	}
	if got := infoCalls.Load(); got != 1 {
		t.Errorf("host polled %d times; want 1", got)
	}
}

func TestSendTransaction(t *testing.T) {
	server, _ := newHostServer(t, 0)
	defer server.Close()

	c := fastConnector(NewHostClient(server.URL))
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	hash, err := c.SendTransaction(context.Background(), Tx{
		To:    "0x0B98057eA310F4d31F2a452B414647007d1645d9",
		Value: "0",
		Data:  "0x4e71d92d",
	})
	if err != nil {
		t.Fatalf("SendTransaction returned error: %v", err)
	}
	if hash == "" {
		t.Error("empty safe tx hash")
	}
}

func TestSubscribeIsNoOp(t *testing.T) {
	c := NewConnector(NewHostClient("http://127.0.0.1:0"), nil)
	unsub, err := c.SubscribeToChanges(nil, nil)
	if err != nil {
		t.Fatalf("SubscribeToChanges returned error: %v", err)
	}
	unsub()
}
