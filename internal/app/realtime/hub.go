package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studiosite/internal/app/session"
	"studiosite/internal/pkg/logx"
)

var (
	// ErrHubClosed is returned by Attach after Shutdown.
	ErrHubClosed = errors.New("realtime hub is shut down")

	errRelayGone = errors.New("relay stopped before the tab attached")
)

// Hub owns one Relay per chat identity.
type Hub struct {
	endpoint    string
	dialer      *websocket.Dialer
	idleTimeout time.Duration

	// relays keyed by participant id.
	relays map[string]*Relay
	closed bool

	// mu protects relays and closed.
	mu sync.Mutex

	// relays report their exit here.
	cleanup chan relayClosed

	// wg waits for the cleanup loop during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub returns a Hub relaying the upstream socket at endpoint.
func NewHub(endpoint string) *Hub {
	h := &Hub{
		endpoint:    endpoint,
		dialer:      websocket.DefaultDialer,
		idleTimeout: RelayIdleTimeout,
		relays:      make(map[string]*Relay),
		cleanup:     make(chan relayClosed, 64),
		logger:      logx.Component("hub"),
	}

	h.wg.Add(1)
	go h.runCleanupLoop()

	return h
}

func (h *Hub) runCleanupLoop() {
	defer h.wg.Done()

	h.logger.Info().Msg("Cleanup loop started.")

	for msg := range h.cleanup {
		h.deleteRelay(msg)
	}

	h.logger.Info().Msg("Cleanup loop stopped.")
}

// deleteRelay removes msg.relay unless a newer relay already took its key.
func (h *Hub) deleteRelay(msg relayClosed) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.relays[msg.key]; ok && current == msg.relay {
		delete(h.relays, msg.key)
		h.logger.Info().Str("participant_id", msg.key).Msg("Relay removed.")
	}
}

// Relay returns the running relay of identity, starting one if needed.
func (h *Hub) Relay(identity session.Identity) (*Relay, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	key := identity.ParticipantID()
	if r, ok := h.relays[key]; ok {
		select {
		case <-r.Done():
		default:
			return r, nil
		}
	}

	r := newRelay(identity, h.endpoint, h.dialer, h.idleTimeout, h.cleanup)
	h.relays[key] = r
	go r.Run()

	h.logger.Info().Str("participant_id", key).Msg("New relay started.")
	return r, nil
}

// Attach registers a browser connection with the identity's relay. The connection is
// served until either side closes; Attach blocks for that long.
func (h *Hub) Attach(identity session.Identity, conn *websocket.Conn) error {
	for range 2 {
		r, err := h.Relay(identity)
		if err != nil {
			return err
		}

		c := NewClient(r, conn)
		if !r.RegisterClient(c) {
			continue
		}

		go c.WritePump()
		c.ReadPump()
		return nil
	}

	return errRelayGone
}

// Len returns the number of live relays.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.relays)
}

// Shutdown stops every relay and waits for the cleanup loop to exit.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down relay hub...")

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	relays := make([]*Relay, 0, len(h.relays))
	for _, r := range h.relays {
		relays = append(relays, r)
	}
	h.mu.Unlock()

	for _, r := range relays {
		r.Stop()
	}
	for _, r := range relays {
		<-r.Done()
	}

	close(h.cleanup)
	h.wg.Wait()

	h.logger.Info().Msg("Relay hub shutdown complete.")
}
