package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"mechongo/pkg/logger"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// Options tunes a client connection.
type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBufferSize int
	// MessageRate and MessageBurst bound inbound frames per second.
	MessageRate  float64
	MessageBurst int
}

func DefaultOptions() Options {
	return Options{
		PingInterval:   54 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4096,
		SendBufferSize: 256,
		MessageRate:    5,
		MessageBurst:   10,
	}
}

// MessageFunc handles one inbound text frame.
type MessageFunc func(ctx context.Context, client *Client, message []byte)

// UpgraderConfig configures NewUpgrader.
type UpgraderConfig struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	EnableCompression bool
	AllowedOrigins    []string
}

func NewUpgrader(config UpgraderConfig) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:    config.ReadBufferSize,
		WriteBufferSize:   config.WriteBufferSize,
		HandshakeTimeout:  config.HandshakeTimeout,
		EnableCompression: config.EnableCompression,
		CheckOrigin:       originChecker(config.AllowedOrigins),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || candidate == origin {
				return true
			}
		}
		return false
	}
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	topic     string
	options   Options
	limiter   *rate.Limiter
	onMessage MessageFunc
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *logger.Logger

	// CallerID is the authenticated user behind the connection, zero when
	// the subscriber did not present a token.
	CallerID primitive.ObjectID
}

// NewClient binds conn to topic. ctx carries request scoped values for
// onMessage and must outlive the HTTP handler.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, topic string, callerID primitive.ObjectID, options Options, onMessage MessageFunc, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, options.SendBufferSize),
		done:      make(chan struct{}),
		topic:     topic,
		options:   options,
		limiter:   rate.NewLimiter(rate.Limit(options.MessageRate), options.MessageBurst),
		onMessage: onMessage,
		ctx:       ctx,
		cancel:    cancel,
		logger:    log.WithField("topic", topic),
		CallerID:  callerID,
	}
}

func (c *Client) Topic() string {
	return c.topic
}

// Start joins the hub and runs the pumps in their own goroutines.
func (c *Client) Start() error {
	if err := c.hub.Register(c); err != nil {
		c.close()
		_ = c.conn.Close()
		return err
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// Reply queues v for this client only. It never blocks; the frame is
// dropped when the client is gone or its buffer is full.
func (c *Client) Reply(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WithError(err).Error("Failed to encode websocket reply")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("Websocket reply dropped, send buffer full")
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.options.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Warn("Websocket read failed")
			}
			return
		}
		if messageType != websocket.TextMessage || c.onMessage == nil {
			continue
		}

		if !c.limiter.Allow() {
			c.Reply(map[string]string{"error": "Rate limit exceeded"})
			continue
		}

		c.onMessage(c.ctx, c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.options.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}
