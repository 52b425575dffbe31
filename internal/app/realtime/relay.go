package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studiosite/internal/app/session"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
)

const inboundChannelBuffer = 256

const (
	// MaxTabs caps the browser tabs sharing one relay. The oldest tab is closed beyond it.
	MaxTabs = 8

	// RelayIdleTimeout is how long a relay without tabs keeps its upstream socket.
	RelayIdleTimeout = 2 * time.Minute

	// dialTimeout bounds the upstream handshake.
	dialTimeout = 10 * time.Second
)

// Relay is the upstream socket of one chat identity and the tabs listening to it.
type Relay struct {
	// Key is the participant id the relay joined.
	Key string

	identity session.Identity
	endpoint string
	dialer   *websocket.Dialer

	// tabs in connection order; only the Run goroutine touches it.
	tabs []*Client

	// count mirrors len(tabs) for readers outside Run.
	count int
	mu    sync.RWMutex

	inbound    chan []byte
	register   chan *Client
	unregister chan *Client
	cleanup    chan<- relayClosed

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	idleTimeout time.Duration
	logger      zerolog.Logger
}

type relayClosed struct {
	key   string
	relay *Relay
}

func newRelay(identity session.Identity, endpoint string, dialer *websocket.Dialer, idle time.Duration, cleanup chan<- relayClosed) *Relay {
	key := identity.ParticipantID()

	return &Relay{
		Key:         key,
		identity:    identity,
		endpoint:    endpoint,
		dialer:      dialer,
		inbound:     make(chan []byte, inboundChannelBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		cleanup:     cleanup,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		idleTimeout: idle,
		logger:      logx.Component("relay").With().Str("participant_id", key).Logger(),
	}
}

// Stop terminates the relay. It is safe to call more than once.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Received stop signal. Stopping relay.")
		close(r.stopChan)
	})
}

// Done is closed once the Run loop has exited.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Tabs returns the number of attached browser tabs.
func (r *Relay) Tabs() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// RegisterClient queues a tab. It reports false when the relay has already shut down.
func (r *Relay) RegisterClient(c *Client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

// UnregisterClient queues the removal of a tab.
func (r *Relay) UnregisterClient(c *Client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

// Run dials the upstream, joins the identity's room and relays until it is stopped,
// the upstream goes away, or no tab has been attached for the idle timeout.
func (r *Relay) Run() {
	conn, err := r.connect()
	if err != nil {
		r.logger.Warn().Err(err).Str("endpoint", r.endpoint).Msg("Failed to join upstream chat socket")
	}

	// Stays nil without a connection so the loop only serves the failure to the first tab.
	var upstreamDone chan struct{}
	if conn != nil {
		upstreamDone = make(chan struct{})
		go r.readUpstream(conn, upstreamDone)
	}

	idle := time.NewTimer(r.idleTimeout)

	defer func() {
		idle.Stop()
		if conn != nil {
			_ = conn.Close()
		}

		r.setCount(0)
		for _, c := range r.tabs {
			c.closeSend()
		}
		r.tabs = nil

		r.notifyCleanup()
		close(r.done)

		r.logger.Info().Msg("Relay Run loop finished.")
	}()

	ready := r.readyFrame()

	for {
		select {
		case c := <-r.register:
			if conn == nil {
				c.queue(errorEvent(errs.NewError(errs.ErrUpstreamUnavailable)))
				c.closeSend()
				return
			}

			stopTimer(idle)

			if len(r.tabs) >= MaxTabs {
				oldest := r.tabs[0]
				r.tabs = r.tabs[1:]
				oldest.Kick()
			}

			r.tabs = append(r.tabs, c)
			r.setCount(len(r.tabs))
			c.queue(ready)

			r.logger.Info().Int("tabs", len(r.tabs)).Msg("Tab attached to relay.")

		case c := <-r.unregister:
			if r.remove(c) {
				r.logger.Info().Int("tabs", len(r.tabs)).Msg("Tab detached from relay.")
			}
			if len(r.tabs) == 0 {
				stopTimer(idle)
				idle.Reset(r.idleTimeout)
			}

		case frame := <-r.inbound:
			for _, c := range r.tabs {
				if !c.queue(frame) {
					r.logger.Warn().Msg("Tab send queue full, dropping frame.")
				}
			}

		case <-upstreamDone:
			for _, c := range r.tabs {
				c.queue(errorEvent(errs.NewError(errs.ErrUpstreamUnavailable)))
			}
			r.logger.Info().Msg("Upstream socket closed. Shutting down relay.")
			return

		case <-idle.C:
			r.logger.Info().Msgf("Relay idle timeout (%s) reached. Shutting down relay.", r.idleTimeout)
			return

		case <-r.stopChan:
			r.logger.Info().Msg("Relay forced stop initiated.")
			return
		}
	}
}

// connect dials the upstream socket and emits the join event.
func (r *Relay) connect() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	target, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, err
	}
	q := target.Query()
	q.Set("userId", r.Key)
	target.RawQuery = q.Encode()

	header := http.Header{}
	if a, ok := r.identity.(session.Authenticated); ok && a.Token != "" {
		header.Set("Authorization", "Bearer "+a.Token)
	}

	conn, _, err := r.dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		return nil, err
	}

	join, err := NewEvent(EventJoin, r.Key)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		_ = conn.Close()
		return nil, err
	}

	r.logger.Info().Msg("Joined upstream chat room.")
	return conn, nil
}

// readUpstream forwards receive_message frames to the Run loop until the socket fails.
func (r *Relay) readUpstream(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize * 8)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Info().Err(err).Msg("Upstream read failed")
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			r.logger.Warn().Err(err).Msg("Upstream sent invalid JSON")
			continue
		}

		if ev.Name != EventReceiveMessage {
			r.logger.Debug().Str("event", ev.Name).Msg("Ignoring upstream event")
			continue
		}

		select {
		case r.inbound <- frame:
		case <-r.stopChan:
			return
		default:
			r.logger.Warn().Msg("Relay inbound channel full, dropping message.")
		}
	}
}

func (r *Relay) remove(c *Client) bool {
	for i, tab := range r.tabs {
		if tab == c {
			r.tabs = append(r.tabs[:i], r.tabs[i+1:]...)
			r.setCount(len(r.tabs))
			c.closeSend()
			return true
		}
	}
	return false
}

func (r *Relay) setCount(n int) {
	r.mu.Lock()
	r.count = n
	r.mu.Unlock()
}

func (r *Relay) readyFrame() []byte {
	frame, err := NewEvent(EventReady, ReadyData{ParticipantID: r.Key})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build ready event.")
		return nil
	}
	return frame
}

func (r *Relay) notifyCleanup() {
	select {
	case r.cleanup <- relayClosed{key: r.Key, relay: r}:
	default:
		r.logger.Warn().Msg("Hub cleanup channel full. Skipping cleanup notification.")
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
