package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestAllowPerKey(t *testing.T) {
	l := New(rate.Every(time.Hour), 2)
	t.Cleanup(l.Close)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestCleanUpDropsIdleKeys(t *testing.T) {
	l := New(rate.Every(time.Millisecond), 1)
	t.Cleanup(l.Close)

	l.Allow("a")
	removed, remaining := l.cleanUp(time.Now().Add(time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, remaining)
}

func TestMiddleware(t *testing.T) {
	l := New(rate.Every(time.Hour), 1)
	t.Cleanup(l.Close)

	h := l.Middleware(ByIP)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1234"))
}

func TestByIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.9:4000"
	assert.Equal(t, "192.168.1.9", ByIP(r))

	r.RemoteAddr = "192.168.1.9"
	assert.Equal(t, "192.168.1.9", ByIP(r))
}
