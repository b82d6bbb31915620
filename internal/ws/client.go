package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/quackextractor/wordrush/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer bounds the per-connection outbound queue. A client that
	// cannot drain it misses events rather than stalling the room.
	sendBuffer = 64

	// intentsPerSecond caps how fast one connection may send intents
	intentsPerSecond = 5
	intentBurst      = 10
)

// Client is one websocket connection. It satisfies room.Subscriber so room
// actors and the lobby can push events to it.
type Client struct {
	id         string
	conn       *websocket.Conn
	dispatcher *Dispatcher
	limiter    *rate.Limiter
	logger     *slog.Logger

	send      chan model.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, dispatcher *Dispatcher, logger *slog.Logger) *Client {
	return &Client{
		id:         id,
		conn:       conn,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(intentsPerSecond, intentBurst),
		logger:     logger.With(slog.String("conn_id", id)),
		send:       make(chan model.Event, sendBuffer),
		done:       make(chan struct{}),
	}
}

// ID returns the connection identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues an event for delivery. It never blocks and never panics;
// a full queue or a closed client means the event is dropped. Lobby
// fan-out may race a disconnect, so the send channel itself is never
// closed.
func (c *Client) Send(event model.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// close marks the client done exactly once, which ends the write pump
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump reads intents off the socket and hands them to the dispatcher.
// It owns the read side and runs until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.dispatcher.disconnected(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		if !c.limiter.Allow() {
			c.Send(model.Event{
				Type:    model.EventError,
				Payload: model.ErrorPayload{Message: "Too many requests, slow down"},
			})
			continue
		}

		c.dispatcher.dispatch(c, raw)
	}
}

// writePump owns the write side: queued events plus keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
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
