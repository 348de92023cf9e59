// Package cdp is a minimal Chrome DevTools Protocol client over a single
// WebSocket connection to one target.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const wsWriteBufferSize = 1 << 20

// ErrClosed is returned by calls made after the connection went away.
var ErrClosed = errors.New("cdp: connection closed")

// Error is a protocol-level error returned by the browser.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp: %s (%d): %s", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("cdp: %s (%d)", e.Message, e.Code)
}

type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Client sends commands and dispatches events for one DevTools target.
//
// Responses are matched to calls by id on the receive goroutine. Events are
// queued and handed to their handlers one at a time, in arrival order, on a
// separate dispatch goroutine, so a handler may itself issue calls.
type Client struct {
	conn  *websocket.Conn
	log   logrus.FieldLogger
	msgID atomic.Int64

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[int64]chan *message
	handlers map[string][]func(json.RawMessage)
	err      error

	queueMu sync.Mutex
	queue   []*message
	wake    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for protocol tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Dial connects to a target's WebSocket debugger URL.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Client, error) {
	wsd := websocket.Dialer{
		HandshakeTimeout: 30 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
		WriteBufferSize:  wsWriteBufferSize,
	}
	conn, _, err := wsd.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cdp: dial %s: %w", wsURL, err)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		conn:     conn,
		log:      discard,
		pending:  make(map[int64]chan *message),
		handlers: make(map[string][]func(json.RawMessage)),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.recvLoop()
	go c.dispatchLoop()
	return c, nil
}

// On registers fn for every event named method. Handlers run on the
// dispatch goroutine.
func (c *Client) On(method string, fn func(params json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = append(c.handlers[method], fn)
}

// Call sends a command and waits for its result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	msg := &message{ID: c.msgID.Add(1), Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("cdp: encode %s params: %w", method, err)
		}
		msg.Params = raw
	}
	buf, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("cdp: encode %s: %w", method, err)
	}

	ch := make(chan *message, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[msg.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	c.log.WithField("cdp", "send").Tracef("-> %s", buf)
	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, buf)
	c.writeMu.Unlock()
	if err != nil {
		c.fail(err)
		return nil, fmt.Errorf("cdp: send %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.Err()
	}
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the reason the connection ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		err = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.shutdown(ErrClosed)
	})
	return err
}

func (c *Client) fail(err error) {
	c.closeOnce.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = ErrClosed
		} else {
			err = fmt.Errorf("%w: %v", ErrClosed, err)
		}
		c.shutdown(err)
	})
}

func (c *Client) shutdown(reason error) {
	c.mu.Lock()
	c.err = reason
	c.mu.Unlock()
	_ = c.conn.Close()
	close(c.done)
}

func (c *Client) recvLoop() {
	for {
		_, buf, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		c.log.WithField("cdp", "recv").Tracef("<- %s", buf)

		var msg message
		if err := json.Unmarshal(buf, &msg); err != nil {
			c.log.WithError(err).Warn("cdp: ignoring malformed message")
			continue
		}

		switch {
		case msg.ID != 0:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			c.mu.Unlock()
			if ok {
				ch <- &msg
			}
		case msg.Method != "":
			c.enqueue(&msg)
		default:
			c.log.Warnf("cdp: ignoring message without id or method: %s", buf)
		}
	}
}

func (c *Client) enqueue(msg *message) {
	c.queueMu.Lock()
	c.queue = append(c.queue, msg)
	c.queueMu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) dispatchLoop() {
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}
		for {
			c.queueMu.Lock()
			if len(c.queue) == 0 {
				c.queueMu.Unlock()
				break
			}
			msg := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.queueMu.Unlock()

			c.mu.Lock()
			handlers := slices.Clone(c.handlers[msg.Method])
			c.mu.Unlock()
			for _, fn := range handlers {
				fn(msg.Params)
			}
		}
	}
}
