package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// wsBridge speaks JSON-RPC 2.0 over a websocket to a local wallet
// bridge endpoint (Frame and similar wallets expose one). Responses
// are matched to requests by id; messages without an id are treated as
// provider event notifications.
type wsBridge struct {
	conn   *websocket.Conn
	nextID atomic.Uint64

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[uint64]chan wsResponse
	handlers map[string]map[uint64]func(json.RawMessage)
	nextSub  uint64
	closed   bool
}

type wsResponse struct {
	result json.RawMessage
	err    *BridgeError
}

type wsMessage struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *BridgeError    `json:"error,omitempty"`
}

// DialBridge connects to a wallet bridge websocket endpoint.
func DialBridge(ctx context.Context, url string) (Bridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet: dialing bridge %s: %w", url, err)
	}
	b := &wsBridge{
		conn:     conn,
		pending:  make(map[uint64]chan wsResponse),
		handlers: make(map[string]map[uint64]func(json.RawMessage)),
	}
	go b.readLoop()
	return b, nil
}

func (b *wsBridge) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	id := b.nextID.Add(1)
	ch := make(chan wsResponse, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrUnavailable
	}
	b.pending[id] = ch
	b.mu.Unlock()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	b.writeMu.Lock()
	err := b.conn.WriteJSON(req)
	b.writeMu.Unlock()
	if err != nil {
		b.dropPending(id)
		return nil, fmt.Errorf("wallet: sending %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, resp.err
		}
		return resp.result, nil
	case <-ctx.Done():
		b.dropPending(id)
		return nil, ctx.Err()
	}
}

func (b *wsBridge) Subscribe(event string, handler func(json.RawMessage)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}, ErrUnavailable
	}
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[uint64]func(json.RawMessage))
	}
	b.nextSub++
	id := b.nextSub
	b.handlers[event][id] = handler
	return func() {
		b.mu.Lock()
		delete(b.handlers[event], id)
		b.mu.Unlock()
	}, nil
}

func (b *wsBridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.conn.Close()
}

func (b *wsBridge) readLoop() {
	for {
		var msg wsMessage
		if err := b.conn.ReadJSON(&msg); err != nil {
			b.failAll()
			return
		}
		if msg.ID != nil {
			b.mu.Lock()
			ch, ok := b.pending[*msg.ID]
			delete(b.pending, *msg.ID)
			b.mu.Unlock()
			if ok {
				ch <- wsResponse{result: msg.Result, err: msg.Error}
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		b.mu.Lock()
		var hs []func(json.RawMessage)
		for _, h := range b.handlers[msg.Method] {
			hs = append(hs, h)
		}
		b.mu.Unlock()
		for _, h := range hs {
			h(msg.Params)
		}
	}
}

func (b *wsBridge) dropPending(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// failAll rejects every in-flight request after the connection breaks.
func (b *wsBridge) failAll() {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[uint64]chan wsResponse)
	b.closed = true
	b.mu.Unlock()
	for _, ch := range pending {
		ch <- wsResponse{err: &BridgeError{Code: -1, Message: "bridge connection lost"}}
	}
}
