// Package wsconn provides a WebSocket client with keepalive pings and
// automatic reconnection, used for streaming venue order books.
package wsconn

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	DialTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns defaults tuned for exchange market-data streams.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		DialTimeout:    10 * time.Second,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound data frame.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler is notified on every state transition; err is the cause of a
// drop, if any.
type StateHandler func(state State, err error)

// Client is a reconnecting WebSocket client. Handlers must be registered
// before Connect.
type Client struct {
	config Config

	stateMu sync.RWMutex
	state   State

	connMu sync.Mutex
	conn   *websocket.Conn

	onMessage MessageHandler
	onState   StateHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup

	lastMessage atomic.Int64
}

// New creates a client; it does not dial.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("websocket url is empty"))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage registers the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.onMessage = h
}

// OnStateChange registers the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.onState = h
}

// Connect dials once. Reconnection only kicks in for connections that were
// established and later dropped.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithVenue(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithVenue(c.config.Name),
			apperror.WithContext(c.config.URL),
			apperror.WithCause(err),
		)
	}

	c.attach(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

// attach installs conn and starts its reader and pinger.
func (c *Client) attach(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected, nil)

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(conn)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			if c.closed.Load() {
				return
			}
			conn.CloseNow()
			c.setState(StateReconnecting, err)
			c.wg.Add(1)
			go c.reconnect()
			return
		}

		c.lastMessage.Store(time.Now().UnixNano())
		if c.onMessage != nil {
			c.onMessage(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// The read loop observes the close and reconnects.
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) reconnect() {
	defer c.wg.Done()

	backoff := c.config.InitialBackoff
	for attempt := 1; c.config.MaxReconnects == 0 || attempt <= c.config.MaxReconnects; attempt++ {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			if c.closed.Load() {
				conn.CloseNow()
				return
			}
			c.attach(conn)
			return
		}

		c.setState(StateReconnecting, err)
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}

	c.setState(StateDisconnected, apperror.New(apperror.CodeWebSocketConnectionError,
		apperror.WithVenue(c.config.Name),
		apperror.WithContext("reconnect attempts exhausted"),
	))
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithVenue(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// SendJSON encodes v as JSON and writes it as a text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, v); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithVenue(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

func (c *Client) current() (*websocket.Conn, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil || c.State() != StateConnected {
		return nil, apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithVenue(c.config.Name),
			apperror.WithContext("not connected"),
		)
	}
	return c.conn, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// LastMessageAt is the receive time of the newest frame, zero if none yet.
func (c *Client) LastMessageAt() time.Time {
	ns := c.lastMessage.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Close shuts the connection down and stops reconnecting. Safe to call more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "client closing")
		}

		c.cancel()
		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(state, err)
	}
}
