package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const DefaultWriteTimeout = 10 * time.Second
const DefaultReadTimeout = 30 * time.Second
const DefaultPingInterval = 15 * time.Second

const DefaultMinBackoff = time.Second
const DefaultMaxBackoff = 30 * time.Second

var ErrConnectionLost = errors.New("connection lost")

var MaxReconnectRate = rate.Limit(1 / DefaultMinBackoff.Seconds())

// MessageHandler receives every text or binary message in arrival order.
// Returning an error drops the connection and reconnects, unless the error
// is wrapped with backoff.Permanent, which stops the client.
type MessageHandler func(message []byte) error

// Client is a websocket client that keeps reconnecting until its context is
// canceled.
// ConnectHandler is called on every new connection before any message is read
type ConnectHandler func(c *Client) error

type DisconnectHandler func(c *Client, err error)

type Client struct {
	// Url is the websocket connection location, start with ws:// or wss://
	Url string

	// Dialer is used for creating the websocket connection
	Dialer *websocket.Dialer

	requestHeader http.Header

	readTimeout  time.Duration
	writeTimeout time.Duration
	pingInterval time.Duration

	minBackoff, maxBackoff time.Duration

	limiter *rate.Limiter

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	onConnect    []ConnectHandler
	onDisconnect []DisconnectHandler

	logger logrus.FieldLogger
}

type Option func(c *Client)

func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.readTimeout = timeout }
}

func WithPingInterval(interval time.Duration) Option {
	return func(c *Client) { c.pingInterval = interval }
}

func WithBackoff(minInterval, maxInterval time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = minInterval
		c.maxBackoff = maxInterval
	}
}

// WithReconnectLimiter bounds how often a new connection can be dialed
func WithReconnectLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(url string, requestHeader http.Header, options ...Option) *Client {
	c := &Client{
		Url:           url,
		Dialer:        websocket.DefaultDialer,
		requestHeader: requestHeader,
		readTimeout:   DefaultReadTimeout,
		writeTimeout:  DefaultWriteTimeout,
		pingInterval:  DefaultPingInterval,
		minBackoff:    DefaultMinBackoff,
		maxBackoff:    DefaultMaxBackoff,
		limiter:       rate.NewLimiter(MaxReconnectRate, 1),
		logger:        logrus.WithField("component", "websocket"),
	}

	for _, o := range options {
		o(c)
	}

	return c
}

// OnConnect registers a callback called on every new connection, before
// any message is read. Subscriptions are sent from here.
func (c *Client) OnConnect(f ConnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, f)
}

func (c *Client) OnDisconnect(f DisconnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = append(c.onDisconnect, f)
}

func (c *Client) IsConnected() (ret bool) {
	c.mu.Lock()
	ret = c.connected
	c.mu.Unlock()
	return ret
}

func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrConnectionLost
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// WriteJSON writes the JSON encoding of v as a text message.
func (c *Client) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.WriteMessage(websocket.TextMessage, data)
}

// Run dials the server and dispatches the messages to handler. Lost
// connections are re-dialed with exponential backoff. Run returns when ctx is
// canceled or a permanent error occurs.
func (c *Client) Run(ctx context.Context, handler MessageHandler) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.minBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		connected, err := c.session(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}

		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		c.logger.WithError(err).Warnf("[websocket] connection to %s lost, reconnecting in %s", c.Url, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// session runs one connection until it fails
func (c *Client) session(ctx context.Context, handler MessageHandler) (connected bool, err error) {
	conn, resp, err := c.Dialer.DialContext(ctx, c.Url, c.requestHeader)
	if err != nil {
		if resp != nil {
			return false, errors.Wrapf(err, "dial %s failed with status %s", c.Url, resp.Status)
		}
		return false, errors.Wrapf(err, "dial %s failed", c.Url)
	}

	c.setConn(conn)
	c.setPingHandler(conn)
	c.logger.Infof("[websocket] connected to %s", c.Url)

	defer func() {
		c.setDisconnected(err)
	}()

	c.mu.Lock()
	callbacks := append([]ConnectHandler(nil), c.onConnect...)
	c.mu.Unlock()

	for _, f := range callbacks {
		if err := f(c); err != nil {
			return true, err
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.pingWorker(sessionCtx, conn)

	// unblock the reader on shutdown
	go func() {
		<-sessionCtx.Done()
		_ = conn.Close()
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return true, err
		}

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Warnf("[websocket] unexpected close error: %v", err)
			}
			return true, err
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		if err := handler(message); err != nil {
			return true, err
		}
	}
}

func (c *Client) pingWorker(ctx context.Context, conn *websocket.Conn) {
	if c.pingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			c.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
			c.mu.Unlock()

			if err != nil {
				c.logger.WithError(err).Warnf("[websocket] ping failed")
				return
			}
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
}

func (c *Client) setPingHandler(conn *websocket.Conn) {
	conn.SetPingHandler(func(message string) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		if err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second)); err != nil {
			return err
		}
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
}

func (c *Client) setDisconnected(cause error) {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connected = false
	c.conn = nil
	callbacks := append([]DisconnectHandler(nil), c.onDisconnect...)
	c.mu.Unlock()

	for _, f := range callbacks {
		f(c, cause)
	}
}
