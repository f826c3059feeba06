package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sudooom.storefront/internal/eventloop"
	"sudooom.storefront/internal/metrics"
	appErrors "sudooom.storefront/pkg/errors"
)

// Handler receives the data of one event. Handlers of a connection run one
// at a time, in the order the server sent the events.
type Handler func(data json.RawMessage)

// TokenSource returns the credential for the next handshake.
type TokenSource func(ctx context.Context) (string, error)

// Channel what the chat and notification sessions need from a connection.
type Channel interface {
	On(event string, h Handler) (off func())
	State() State
	Domain() Domain
	Close() error
}

// Options per-connection settings
type Options struct {
	Domain           Domain
	URL              string
	HandshakeTimeout time.Duration
	ReconnectWait    time.Duration
	MaxReconnects    int // 0 = unlimited
	PingInterval     time.Duration
	QueueSize        int
	Token            TokenSource
	Logger           *slog.Logger
	OnStateChange    func(d Domain, s State)
}

type registration struct {
	id uint64
	h  Handler
}

// Conn one live socket for one domain.
type Conn struct {
	opts    Options
	dialer  *websocket.Dialer
	logger  *slog.Logger
	loop    *eventloop.Loop
	limiter *rate.Limiter

	mu       sync.Mutex // guards ws and handlers
	ws       *websocket.Conn
	handlers map[string][]registration
	nextID   uint64

	writeMu sync.Mutex
	state   atomic.Int32

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{} // closed when the read loop exits
	closeOnce sync.Once
}

// Dial opens a connection. On failure nothing is left running.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	c := newConn(opts)
	c.setState(StateConnecting)

	ws, err := c.dial(ctx)
	if err != nil {
		c.release()
		c.setState(StateDisconnected)
		return nil, appErrors.ErrHandshakeFailure.Wrap(err)
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	c.setState(StateConnected)

	go c.readLoop()
	if c.opts.PingInterval > 0 {
		go c.pingLoop()
	}
	return c, nil
}

func newConn(opts Options) *Conn {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("domain", string(opts.Domain))

	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		opts:     opts,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		logger:   logger,
		loop:     eventloop.New(opts.QueueSize, logger),
		limiter:  rate.NewLimiter(rate.Every(opts.ReconnectWait), 1),
		handlers: make(map[string][]registration),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// release frees what newConn started when Dial fails
func (c *Conn) release() {
	c.cancel()
	c.loop.Shutdown()
	close(c.done)
}

// dial performs one handshake. The token goes in the Authorization header and
// the token query parameter; a missing token is sent as an empty credential.
func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	tok := ""
	if c.opts.Token != nil {
		t, err := c.opts.Token(ctx)
		if err != nil {
			c.logger.Warn("Failed to read auth token, connecting without it", "error", err)
		} else {
			tok = t
		}
	}

	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	ws, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return ws, nil
}

// On registers h for event. The returned func removes exactly this
// registration and is safe to call more than once.
func (c *Conn) On(event string, h Handler) (off func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[event] = append(c.handlers[event], registration{id: id, h: h})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.removeLocked(event, id)
	}
}

func (c *Conn) removeLocked(event string, id uint64) {
	regs := c.handlers[event]
	for i, r := range regs {
		if r.id == id {
			c.handlers[event] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(c.handlers[event]) == 0 {
		delete(c.handlers, event)
	}
}

func (c *Conn) registered(event string, id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.handlers[event] {
		if r.id == id {
			return true
		}
	}
	return false
}

// HandlerCount number of live registrations, all events.
func (c *Conn) HandlerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, regs := range c.handlers {
		n += len(regs)
	}
	return n
}

// State current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Domain the feature this connection serves.
func (c *Conn) Domain() Domain {
	return c.opts.Domain
}

func (c *Conn) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	metrics.ObserveState(string(c.opts.Domain), s.String())
	c.logger.Info("Realtime state changed", "state", s.String())
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(c.opts.Domain, s)
	}
}

func (c *Conn) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws
}

// readLoop reads frames until Close, reconnecting on transport errors
func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		ws := c.current()
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Warn("Realtime connection dropped", "error", err)
			if !c.reconnect() {
				if c.ctx.Err() == nil {
					c.setState(StateDisconnected)
				}
				return
			}
			continue
		}
		c.dispatch(frame)
	}
}

// reconnect redials, paced by the limiter. False when attempts run out or the
// connection is being closed.
func (c *Conn) reconnect() bool {
	c.setState(StateReconnecting)

	for attempt := 1; c.opts.MaxReconnects <= 0 || attempt <= c.opts.MaxReconnects; attempt++ {
		if err := c.limiter.Wait(c.ctx); err != nil {
			return false
		}

		ws, err := c.dial(c.ctx)
		if err != nil {
			c.logger.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		if c.ctx.Err() != nil {
			c.mu.Unlock()
			ws.Close()
			return false
		}
		old := c.ws
		c.ws = ws
		c.mu.Unlock()
		if old != nil {
			old.Close()
		}

		c.logger.Info("Reconnected", "attempt", attempt)
		c.setState(StateConnected)
		return true
	}

	c.logger.Error("Giving up reconnecting", "max_reconnects", c.opts.MaxReconnects)
	return false
}

// dispatch queues the handlers of one frame on the event loop
func (c *Conn) dispatch(frame []byte) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		metrics.ObserveMalformed(string(c.opts.Domain))
		c.logger.Warn("Dropping malformed frame", "error", err, "size", len(frame))
		return
	}
	c.mu.Lock()
	regs := append([]registration(nil), c.handlers[env.Event]...)
	c.mu.Unlock()

	if len(regs) == 0 {
		metrics.ObserveEvent(string(c.opts.Domain), metrics.OtherEvent)
		c.logger.Debug("No handler for event", "event", env.Event)
		return
	}
	metrics.ObserveEvent(string(c.opts.Domain), env.Event)

	for _, r := range regs {
		r := r
		c.loop.Submit(func() {
			// skip handlers removed after the frame arrived
			if !c.registered(env.Event, r.id) {
				return
			}
			r.h(env.Data)
		})
	}
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ws := c.current()
			c.writeMu.Lock()
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.HandshakeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("Ping failed", "error", err)
			}
		}
	}
}

// Close removes every handler, stops reconnecting, closes the socket and
// waits for in-flight handlers. Idempotent.
func (c *Conn) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		c.handlers = make(map[string][]registration)
		ws := c.ws
		c.mu.Unlock()

		if ws != nil {
			c.writeMu.Lock()
			err := ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("Close frame not sent", "error", err)
			}
			closeErr = ws.Close()
		}

		<-c.done
		c.loop.Shutdown()
		c.setState(StateDisconnected)
	})
	return closeErr
}
