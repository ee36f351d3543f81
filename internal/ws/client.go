package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/easelhq/easel/backend/internal/metrics"
	"github.com/easelhq/easel/backend/internal/ratelimit"
	"github.com/easelhq/easel/backend/internal/session"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512 * 1024
	sendBuffer      = 256
	eventsPerSecond = 60
	eventBurst      = 120
	identityTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live websocket connection. Inbound frames are handled on
// the reader goroutine; outbound delivery goes through a buffered channel
// drained by the writer goroutine.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	sess    *session.Session
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

// ServeWs upgrades an HTTP request to a websocket connection and hands the
// client to the hub. Identity resolution from the optional token query
// parameter runs in the background and never delays the connection.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := session.New()
	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		sess:    sess,
		limiter: ratelimit.New(eventsPerSecond, eventBurst),
		log:     hub.log.With().Str("conn", sess.ID).Logger(),
	}

	if token := r.URL.Query().Get("token"); token != "" {
		go client.resolveIdentity(token)
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// resolveIdentity is best-effort: a slow or failing lookup leaves the
// session anonymous, it never blocks joins or drawing.
func (c *Client) resolveIdentity(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), identityTimeout)
	defer cancel()

	name, err := c.hub.resolver.Resolve(ctx, token)
	if err != nil {
		c.log.Debug().Err(err).Msg("identity resolution failed, staying anonymous")
		return
	}
	c.sess.SetName(name)
}

// enqueue hands a message to the writer without blocking. Slow clients
// lose messages rather than stalling a room broadcast.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		metrics.SendsDropped.Inc()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			break
		}

		if !c.limiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				c.log.Warn().Int("warnings", rateLimitWarnings).Msg("rate limit exceeded")
			}
			if rateLimitWarnings > 1000 {
				c.log.Warn().Msg("disconnecting client for excessive rate limit violations")
				return
			}
			continue
		}

		c.hub.dispatch(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
