package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
)

const (
	// timeout duration for writing to a WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong message from the browser.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the browser.
	maxMessageSize = 4096

	// WsCloseCodeSessionKicked is the close code sent to a tab pushed out by a newer one.
	WsCloseCodeSessionKicked = 4001
)

// Client is one browser tab attached to a Relay.
type Client struct {
	relay *Relay
	conn  *websocket.Conn

	// queued frames for the tab; closed by the relay only.
	send      chan []byte
	closeOnce sync.Once
	closeCode int

	logger zerolog.Logger
}

// NewClient wraps a browser connection for relay.
func NewClient(relay *Relay, conn *websocket.Conn) *Client {
	return &Client{
		relay:     relay,
		conn:      conn,
		send:      make(chan []byte, 64),
		closeCode: websocket.CloseNormalClosure,
		logger:    logx.Component("relay_tab").With().Str("participant_id", relay.Key).Logger(),
	}
}

// ReadPump keeps the browser connection alive and detaches the tab when it closes.
// Browsers only listen on this socket; sends go through the HTTP API.
func (c *Client) ReadPump() {
	defer func() {
		c.relay.UnregisterClient(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Tab connection close error")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, WsCloseCodeSessionKicked) {
				c.logger.Info().Err(err).Msg("Error reading from tab")
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			c.logger.Warn().Err(err).Msg("Tab sent invalid JSON")
			continue
		}
		c.logger.Debug().Str("event", ev.Name).Msg("Ignoring tab event")
	}
}

// WritePump writes queued frames and pings to the browser until the send queue is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Tab connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				msg := websocket.FormatCloseMessage(c.closeCode, "")
				if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// Kick closes the tab with WsCloseCodeSessionKicked after telling it why.
func (c *Client) Kick() {
	c.logger.Warn().Int("close_code", WsCloseCodeSessionKicked).Msg("Closing tab beyond the per-visitor limit.")

	c.queue(errorEvent(errs.NewError(errs.ErrSessionKicked)))
	c.closeCode = WsCloseCodeSessionKicked
	c.closeSend()
}

// queue adds a frame without blocking. It reports false when the queue is full.
func (c *Client) queue(frame []byte) bool {
	if frame == nil {
		return true
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
