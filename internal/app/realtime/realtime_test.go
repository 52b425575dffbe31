package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/app/session"
	"studiosite/internal/pkg/errs"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

type fakeUpstream struct {
	srv     *httptest.Server
	joined  chan string
	auth    chan string
	release chan struct{}
}

// newFakeUpstream accepts one socket, records the join, then sends one
// receive_message once release is closed.
func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{
		joined:  make(chan string, 1),
		auth:    make(chan string, 1),
		release: make(chan struct{}),
	}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.auth <- r.Header.Get("Authorization")

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var join Event
		if !assert.NoError(t, conn.ReadJSON(&join)) {
			return
		}
		var who string
		_ = json.Unmarshal(join.Data, &who)
		if assert.Equal(t, EventJoin, join.Name) {
			f.joined <- who
		}

		<-f.release

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing","data":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"receive_message","data":{"id":"m1","message":"hi"}}`))

		// Hold the socket until the relay closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeUpstream) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
}

func newBrowserServer(t *testing.T, hub *Hub, identity session.Identity) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		_ = hub.Attach(identity, conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTab(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRelayJoinsAndFansOut(t *testing.T) {
	upstream := newFakeUpstream(t)
	hub := NewHub(upstream.url())
	t.Cleanup(hub.Shutdown)

	identity := session.Guest{VisitorKey: "vk", GuestUserID: "guest_1_2", Name: "Ada"}
	browser := newBrowserServer(t, hub, identity)

	tab1 := dialTab(t, browser)
	assert.Equal(t, EventReady, readEvent(t, tab1).Name)

	tab2 := dialTab(t, browser)
	assert.Equal(t, EventReady, readEvent(t, tab2).Name)

	select {
	case who := <-upstream.joined:
		assert.Equal(t, "guest_1_2", who)
	case <-time.After(5 * time.Second):
		t.Fatal("upstream never received join")
	}
	assert.Empty(t, <-upstream.auth)
	assert.Equal(t, 1, hub.Len())

	close(upstream.release)

	for _, tab := range []*websocket.Conn{tab1, tab2} {
		ev := readEvent(t, tab)
		assert.Equal(t, EventReceiveMessage, ev.Name)
		assert.JSONEq(t, `{"id":"m1","message":"hi"}`, string(ev.Data))
	}
}

func TestRelaySendsBearerForAuthenticatedIdentity(t *testing.T) {
	upstream := newFakeUpstream(t)
	hub := NewHub(upstream.url())
	t.Cleanup(hub.Shutdown)
	t.Cleanup(func() { close(upstream.release) })

	identity := session.Authenticated{Token: "tok", UserID: "u1", Name: "Admin"}
	tab := dialTab(t, newBrowserServer(t, hub, identity))
	assert.Equal(t, EventReady, readEvent(t, tab).Name)

	assert.Equal(t, "Bearer tok", <-upstream.auth)
	assert.Equal(t, "u1", <-upstream.joined)
}

func TestRelayReportsUnreachableUpstream(t *testing.T) {
	hub := NewHub("ws://127.0.0.1:1/ws")
	t.Cleanup(hub.Shutdown)

	tab := dialTab(t, newBrowserServer(t, hub, session.Guest{GuestUserID: "guest_1_2"}))

	ev := readEvent(t, tab)
	require.Equal(t, EventError, ev.Name)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, errs.ErrUpstreamUnavailable, data.Code)

	_, _, err := tab.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestRelayShutsDownWhenIdle(t *testing.T) {
	upstream := newFakeUpstream(t)
	t.Cleanup(func() { close(upstream.release) })

	hub := NewHub(upstream.url())
	hub.idleTimeout = 200 * time.Millisecond
	t.Cleanup(hub.Shutdown)

	tab := dialTab(t, newBrowserServer(t, hub, session.Guest{GuestUserID: "guest_1_2"}))
	assert.Equal(t, EventReady, readEvent(t, tab).Name)
	require.Equal(t, 1, hub.Len())

	require.NoError(t, tab.Close())

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestAttachAfterShutdown(t *testing.T) {
	hub := NewHub("ws://127.0.0.1:1/ws")
	hub.Shutdown()

	_, err := hub.Relay(session.Guest{GuestUserID: "guest_1_2"})
	assert.ErrorIs(t, err, ErrHubClosed)
}
