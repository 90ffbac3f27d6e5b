package graphql

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gqlwire/internal/shared/constants"
	"gqlwire/internal/shared/protocol"
	"gqlwire/internal/shared/recovery"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned after Close; a closed client never reconnects.
	ErrClosed = errors.New("subscription client closed")

	// ErrNotConnected is returned when a message cannot be sent because no
	// transport is live.
	ErrNotConnected = errors.New("not connected")
)

// ConnState identifies the lifecycle state of the subscription connection.
type ConnState int32

const (
	// StateDisconnected means no transport is live and none is being opened.
	StateDisconnected ConnState = iota
	// StateConnecting means a transport is being opened.
	StateConnecting
	// StateConnected means the transport is open and messages flow.
	StateConnected
	// StateClosed is terminal; only explicit Close reaches it.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Operation is the query and variables of one subscription.
type Operation struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

// Handlers receives the results of one subscription. All fields are optional.
type Handlers struct {
	OnNext     func(payload json.RawMessage)
	OnError    func(err error)
	OnComplete func()
}

type subscription struct {
	id       string
	op       Operation
	handlers Handlers
}

// SubscriptionClient owns one logical WebSocket transport and multiplexes
// any number of GraphQL subscriptions over it. The transport is destroyed
// and recreated wholesale on every reconnect.
type SubscriptionClient struct {
	url          string
	subprotocols []string
	logger       *zap.Logger

	keepAliveInterval time.Duration
	reconnectBase     time.Duration
	maxReconnects     int

	dial      dialFunc
	afterFunc func(time.Duration, func()) *time.Timer

	mu             sync.Mutex
	state          ConnState
	conn           wsConn
	connDone       chan struct{} // closed to stop this connection's loops
	sendCh         chan []byte
	connecting     chan struct{} // closed when the in-flight connect settles
	connErr        error
	connParams     map[string]any
	autoReconnect  bool
	attempts       int
	reconnectTimer *time.Timer

	nextID atomic.Uint64
	subs   map[string]*subscription
}

// SubscriptionOption configures a SubscriptionClient.
type SubscriptionOption func(*SubscriptionClient)

// WithConnectionParams sets the opaque payload sent with connection_init.
func WithConnectionParams(params map[string]any) SubscriptionOption {
	return func(c *SubscriptionClient) { c.connParams = params }
}

// WithKeepAliveInterval sets the ping interval on a live connection.
func WithKeepAliveInterval(d time.Duration) SubscriptionOption {
	return func(c *SubscriptionClient) { c.keepAliveInterval = d }
}

// WithReconnectBaseDelay sets the initial reconnection delay; the delay
// doubles on each consecutive attempt.
func WithReconnectBaseDelay(d time.Duration) SubscriptionOption {
	return func(c *SubscriptionClient) { c.reconnectBase = d }
}

// WithMaxReconnectAttempts caps automatic reconnection. Zero disables it.
func WithMaxReconnectAttempts(n int) SubscriptionOption {
	return func(c *SubscriptionClient) { c.maxReconnects = n }
}

// WithSubscriptionLogger sets the logger. The default discards everything.
func WithSubscriptionLogger(logger *zap.Logger) SubscriptionOption {
	return func(c *SubscriptionClient) { c.logger = logger }
}

// WithSubprotocols overrides the WebSocket subprotocols offered on dial.
func WithSubprotocols(subprotocols ...string) SubscriptionOption {
	return func(c *SubscriptionClient) { c.subprotocols = subprotocols }
}

// NewSubscriptionClient creates a client for the given WebSocket endpoint.
// No connection is opened until Connect or the first Subscribe.
func NewSubscriptionClient(url string, opts ...SubscriptionOption) *SubscriptionClient {
	c := &SubscriptionClient{
		url: url,
		subprotocols: []string{
			protocol.SubprotocolGraphQLTransportWS,
			protocol.SubprotocolGraphQLWS,
		},
		logger:            zap.NewNop(),
		keepAliveInterval: constants.KeepAliveInterval,
		reconnectBase:     constants.ReconnectBaseDelay,
		maxReconnects:     constants.MaxReconnectAttempts,
		dial:              gorillaDial,
		afterFunc:         time.AfterFunc,
		autoReconnect:     true,
		subs:              make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the transport if needed. If a connect is already in flight
// it waits for that one to settle and returns its outcome; if the transport
// is already open it returns immediately.
func (c *SubscriptionClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		wait := c.connecting
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StateConnected {
			return nil
		}
		if c.connErr != nil {
			return c.connErr
		}
		return ErrNotConnected
	}

	c.state = StateConnecting
	settle := make(chan struct{})
	c.connecting = settle
	c.mu.Unlock()

	return c.doConnect(ctx, settle)
}

func (c *SubscriptionClient) doConnect(ctx context.Context, settle chan struct{}) error {
	defer close(settle)

	conn, err := c.dial(ctx, c.url, c.subprotocols)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return ErrClosed
	}
	if err != nil {
		c.state = StateDisconnected
		c.connErr = err
		c.mu.Unlock()
		c.logger.Warn("connect failed", zap.Error(err))
		c.scheduleReconnect()
		return err
	}

	done := make(chan struct{})
	sendCh := make(chan []byte, constants.SendQueueSize)

	// connection_init is queued while the lock is held so no start message
	// from a racing Subscribe can get ahead of it.
	init, initErr := protocol.NewMessage(protocol.TypeConnectionInit, "", paramsPayload(c.connParams))
	if initErr == nil {
		if data, encErr := init.Encode(); encErr == nil {
			sendCh <- data
		}
	}

	c.conn = conn
	c.connDone = done
	c.sendCh = sendCh
	c.connErr = nil
	c.state = StateConnected
	c.mu.Unlock()

	go c.writeLoop(conn, sendCh, done)
	go c.readLoop(conn, done)
	go c.keepAliveLoop(done)

	c.logger.Info("connected", zap.String("url", c.url))
	return nil
}

// paramsPayload returns nil for empty params so connection_init carries no
// payload field at all.
func paramsPayload(params map[string]any) any {
	if len(params) == 0 {
		return nil
	}
	return params
}

// Subscribe registers the handlers, sends a start message and returns an
// unsubscribe closure. It waits only for the transport to open, not for the
// peer's connection_ack.
func (c *SubscriptionClient) Subscribe(ctx context.Context, op Operation, h Handlers) (func(), error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	id := strconv.FormatUint(c.nextID.Add(1), 10)
	sub := &subscription{id: id, op: op, handlers: h}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.subs[id] = sub
	c.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeStart, id, protocol.OperationPayload{
		Query:         op.Query,
		OperationName: op.OperationName,
		Variables:     op.Variables,
	})
	if err == nil {
		err = c.enqueue(msg)
	}
	if err != nil {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
		return nil, err
	}

	c.logger.Debug("subscribed", zap.String("id", id))

	unsubscribe := func() {
		c.mu.Lock()
		_, live := c.subs[id]
		delete(c.subs, id)
		c.mu.Unlock()
		if !live {
			return
		}
		stop, _ := protocol.NewMessage(protocol.TypeStop, id, nil)
		if err := c.enqueue(stop); err != nil {
			c.logger.Debug("stop not sent", zap.String("id", id), zap.Error(err))
		}
	}
	return unsubscribe, nil
}

// Reconnect tears the transport down, resets the attempt counter and opens a
// fresh connection immediately. Registered subscriptions are kept.
func (c *SubscriptionClient) Reconnect() error {
	for {
		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.state != StateConnecting {
			break
		}
		wait := c.connecting
		c.mu.Unlock()
		<-wait
	}
	c.stopReconnectTimerLocked()
	c.attempts = 0
	c.teardownLocked()
	c.mu.Unlock()

	return c.Connect(context.Background())
}

// Close tears everything down and disables reconnection. Active subscribers
// receive no completion or error callback; close is an abrupt, silent
// teardown. Closing twice is a no-op.
func (c *SubscriptionClient) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.autoReconnect = false
	c.stopReconnectTimerLocked()
	c.teardownLocked()
	c.subs = make(map[string]*subscription)
	c.state = StateClosed
	c.mu.Unlock()

	c.logger.Debug("subscription client closed")
	return nil
}

// IsConnected reports whether the transport is currently open.
func (c *SubscriptionClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *SubscriptionClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdateConnectionParams merges patch into the stored connection parameters.
// The merged payload is used on the next connection_init; a live connection
// is not affected until a reconnect happens.
func (c *SubscriptionClient) UpdateConnectionParams(patch map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connParams == nil {
		c.connParams = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		c.connParams[k] = v
	}
}

// enqueue serializes msg onto the outbound queue of the live connection.
func (c *SubscriptionClient) enqueue(msg *protocol.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	ch, done := c.sendCh, c.connDone
	c.mu.Unlock()

	select {
	case ch <- data:
		return nil
	case <-done:
		return ErrNotConnected
	}
}

// writeLoop is the single writer of the socket; gorilla connections support
// one concurrent writer only.
func (c *SubscriptionClient) writeLoop(conn wsConn, sendCh <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-sendCh:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				c.transportFailed(conn)
				return
			}
		}
	}
}

func (c *SubscriptionClient) readLoop(conn wsConn, done <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// Deliberate teardown, not a transport failure.
			default:
				c.logger.Debug("read failed", zap.Error(err))
				c.transportFailed(conn)
			}
			return
		}

		msg, err := protocol.DecodeMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		c.route(msg)
	}
}

func (c *SubscriptionClient) keepAliveLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ping, _ := protocol.NewMessage(protocol.TypePing, "", nil)
			if err := c.enqueue(ping); err != nil {
				return
			}
		}
	}
}

// route dispatches one inbound message. Messages whose id has no registry
// entry are dropped harmlessly.
func (c *SubscriptionClient) route(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeConnectionAck:
		c.logger.Debug("connection acknowledged")

	case protocol.TypePing:
		pong, _ := protocol.NewMessage(protocol.TypePong, "", nil)
		if err := c.enqueue(pong); err != nil {
			c.logger.Debug("pong not sent", zap.Error(err))
		}

	case protocol.TypePong, protocol.TypeKeepAlive:
		// Liveness is keyed to transport events; replies carry no signal.

	case protocol.TypeNext, protocol.TypeData:
		sub := c.lookup(msg.ID)
		if sub == nil || sub.handlers.OnNext == nil {
			return
		}
		payload := msg.Payload
		recovery.Safe(c.logger, "onNext", func() { sub.handlers.OnNext(payload) })

	case protocol.TypeError:
		// The entry stays registered: a later complete for the same id
		// must still fire onComplete and remove it.
		sub := c.lookup(msg.ID)
		if sub == nil || sub.handlers.OnError == nil {
			return
		}
		err := errors.New(protocol.ErrorMessageText(msg.Payload))
		recovery.Safe(c.logger, "onError", func() { sub.handlers.OnError(err) })

	case protocol.TypeComplete:
		c.mu.Lock()
		sub := c.subs[msg.ID]
		delete(c.subs, msg.ID)
		c.mu.Unlock()
		if sub == nil || sub.handlers.OnComplete == nil {
			return
		}
		recovery.Safe(c.logger, "onComplete", func() { sub.handlers.OnComplete() })

	default:
		c.logger.Debug("dropping unroutable message",
			zap.String("type", string(msg.Type)),
			zap.String("id", msg.ID),
		)
	}
}

func (c *SubscriptionClient) lookup(id string) *subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[id]
}

// transportFailed handles a read or write error on conn. Stale connections
// that were already replaced or torn down are ignored.
func (c *SubscriptionClient) transportFailed(conn wsConn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.mu.Unlock()

	c.scheduleReconnect()
}

// teardownLocked closes the live transport and stops its loops. Callers hold
// c.mu.
func (c *SubscriptionClient) teardownLocked() {
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.sendCh = nil
	if c.state != StateClosed {
		c.state = StateDisconnected
	}
}

func (c *SubscriptionClient) stopReconnectTimerLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// scheduleReconnect arms a single-shot timer with exponential backoff:
// base × 2^(attempts−1), no jitter. A failed attempt schedules the next one
// itself, up to the configured ceiling.
func (c *SubscriptionClient) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed || !c.autoReconnect {
		return
	}
	if c.attempts >= c.maxReconnects {
		c.logger.Warn("reconnect attempts exhausted", zap.Int("attempts", c.attempts))
		return
	}

	c.attempts++
	delay := c.reconnectBase << (c.attempts - 1)
	c.logger.Info("scheduling reconnect",
		zap.Int("attempt", c.attempts),
		zap.Duration("delay", delay),
	)
	c.reconnectTimer = c.afterFunc(delay, func() {
		if err := c.Connect(context.Background()); err != nil {
			c.logger.Debug("reconnect attempt failed", zap.Error(err))
		}
	})
}
