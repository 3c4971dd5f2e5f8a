// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// Client message types. Subscribers only receive envelopes; the only
// inbound message understood is a keepalive ping.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the shape of inbound client messages and pong replies.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// clientIDCounter gives clients a monotonically increasing ID so the hub can
// order them deterministically.
var clientIDCounter atomic.Uint64

// ClientConfig bounds what a client may send us.
type ClientConfig struct {
	// InboundRate is the sustained inbound message rate per second.
	InboundRate float64
	// InboundBurst is the inbound burst allowance.
	InboundBurst int
}

// DefaultClientConfig returns the default inbound limits.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{InboundRate: 5, InboundBurst: 10}
}

// Client bridges one subscription to one websocket connection.
// It implements broadcast.Sender.
type Client struct {
	id          uint64
	hub         *Hub
	conn        *websocket.Conn
	sub         *broadcast.Subscription
	unsubscribe func()
	limiter     *rate.Limiter

	// gorilla/websocket allows one concurrent writer.
	writeMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewClient creates a client for conn that will drain sub. unsubscribe is
// called once when the client shuts down.
func NewClient(hub *Hub, conn *websocket.Conn, sub *broadcast.Subscription, unsubscribe func(), cfg ClientConfig) *Client {
	if cfg.InboundRate <= 0 {
		cfg.InboundRate = DefaultClientConfig().InboundRate
	}
	if cfg.InboundBurst <= 0 {
		cfg.InboundBurst = DefaultClientConfig().InboundBurst
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:          clientIDCounter.Add(1),
		hub:         hub,
		conn:        conn,
		sub:         sub,
		unsubscribe: unsubscribe,
		limiter:     rate.NewLimiter(rate.Limit(cfg.InboundRate), cfg.InboundBurst),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Topic returns the subscribed topic.
func (c *Client) Topic() string {
	return c.sub.Topic()
}

// Send writes one envelope to the connection.
func (c *Client) Send(_ context.Context, env models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		metrics.WSErrors.WithLabelValues("marshal").Inc()
		return err
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.WSMessagesSent.Inc()
	return nil
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Start registers the client with the hub and launches its pumps.
func (c *Client) Start() {
	c.hub.Register(c)

	c.wg.Add(3)
	go c.writePump()
	go c.pingPump()
	go c.readPump()
}

// Wait blocks until every pump has exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// writePump drains the subscription onto the connection.
func (c *Client) writePump() {
	defer c.wg.Done()
	defer c.Close()

	if err := broadcast.Pump(c.ctx, c.sub, c); err != nil && c.ctx.Err() == nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		logging.Debug().Err(err).Uint64("client", c.id).Msg("websocket write failed")
	}

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
}

// pingPump keeps the connection alive.
func (c *Client) pingPump() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump consumes inbound frames, answering pings and enforcing the
// inbound rate limit.
func (c *Client) readPump() {
	defer c.wg.Done()
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Debug().Err(err).Uint64("client", c.id).Msg("unexpected websocket close")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			logging.Warn().Uint64("client", c.id).Msg("websocket client exceeded inbound rate, message dropped")
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			continue
		}
		if msg.Type == MessageTypePing {
			pong, _ := json.Marshal(Message{Type: MessageTypePong})
			if err := c.write(websocket.TextMessage, pong); err != nil {
				return
			}
		}
	}
}

// Close shuts the client down. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	})
}
