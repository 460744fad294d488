package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/afashi/funding-rate-arbitrage/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// readWait is the time allowed between server messages. OKX closes
	// idle connections after 30 seconds without traffic, so the client
	// pings well inside that window.
	readWait = 40 * time.Second

	// pingPeriod sends the OKX text ping at this interval.
	pingPeriod = 20 * time.Second
)

// FundingRateHandler is called for each funding-rate push.
type FundingRateHandler func(domain.FundingRate)

// WSClient is a client for the OKX v5 public WebSocket. It manages the
// connection lifecycle, channel subscriptions, and dispatches funding-rate
// pushes to registered handlers.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Subscriptions to restore on reconnect.
	subscriptions []wsCommand

	fundingHandlers []FundingRateHandler
	handlerMu       sync.RWMutex

	// done is closed when the client is shut down.
	done chan struct{}

	// dropped is closed when the read loop exits.
	dropped  chan struct{}
	dropOnce sync.Once
}

// wsCommand is the subscribe/unsubscribe frame of the OKX v5 WebSocket.
type wsCommand struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// wsPush is an incoming data frame.
type wsPush struct {
	Event string           `json:"event"`
	Arg   wsArg            `json:"arg"`
	Data  []APIFundingRate `json:"data"`
}

// NewWSClient creates a new public WebSocket client.
//
// wsURL is the public endpoint, e.g. "wss://ws.okx.com:8443/ws/v5/public".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL:   wsURL,
		done:    make(chan struct{}),
		dropped: make(chan struct{}),
	}
}

// OnFundingRate registers a handler for funding-rate pushes.
func (w *WSClient) OnFundingRate(h FundingRateHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.fundingHandlers = append(w.fundingHandlers, h)
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Previously registered subscriptions are restored.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("okx/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("okx/ws: connect: %w", err)
	}

	w.conn = conn
	w.conn.SetReadDeadline(time.Now().Add(readWait))

	go w.readLoop()
	go w.pingLoop()

	for _, cmd := range w.subscriptions {
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("okx/ws: restore subscription: %w", err)
		}
	}

	return nil
}

// SubscribeFundingRates subscribes to the funding-rate channel for the given
// swap instrument IDs.
func (w *WSClient) SubscribeFundingRates(ctx context.Context, instIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("okx/ws: not connected")
	}

	args := make([]wsArg, 0, len(instIDs))
	for _, id := range instIDs {
		args = append(args, wsArg{Channel: "funding-rate", InstID: id})
	}
	cmd := wsCommand{Op: "subscribe", Args: args}

	if err := w.sendCommand(cmd); err != nil {
		return fmt.Errorf("okx/ws: subscribe: %w", err)
	}
	w.subscriptions = append(w.subscriptions, cmd)
	return nil
}

func (w *WSClient) sendCommand(cmd wsCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(cmd)
}

// Dropped is closed when the connection read loop exits, either because the
// peer went away or the client was closed.
func (w *WSClient) Dropped() <-chan struct{} {
	return w.dropped
}

// readLoop dispatches incoming frames until the connection drops or the
// client is closed.
func (w *WSClient) readLoop() {
	defer w.dropOnce.Do(func() { close(w.dropped) })
	for {
		select {
		case <-w.done:
			return
		default:
		}

		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readWait))

		// OKX answers the text ping with a bare "pong".
		if string(data) == "pong" {
			continue
		}

		var push wsPush
		if err := json.Unmarshal(data, &push); err != nil {
			continue
		}
		if push.Event != "" || push.Arg.Channel != "funding-rate" {
			continue
		}

		w.handlerMu.RLock()
		handlers := w.fundingHandlers
		w.handlerMu.RUnlock()

		for _, entry := range push.Data {
			fr, err := entry.ToDomain()
			if err != nil {
				continue
			}
			for _, h := range handlers {
				h(fr)
			}
		}
	}
}

// pingLoop keeps the connection alive with the OKX text-frame ping.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Close shuts the client down. It is safe to call multiple times.
func (w *WSClient) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	close(w.done)
	if w.conn != nil {
		w.conn.Close()
	}
}
