package logx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.42":          "203.0.113.0",
		"203.0.113.42:51234":    "203.0.113.0",
		"127.0.0.1:8080":        "127.0.0.1",
		"2001:db8:1:2:3:4:5:6":  "2001:db8:1:2::",
		"[2001:db8:1:2::9]:443": "2001:db8:1:2::",
		"not-an-ip":             "unknown_ip",
		"":                      "unknown_ip",
	}

	for in, want := range cases {
		assert.Equal(t, want, AnonymizeIP(in), in)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	initWith(&buf, false)
	t.Cleanup(func() { initWith(&bytes.Buffer{}, false) })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestHelpersWriteFields(t *testing.T) {
	buf := captureLogs(t)

	Info("Relay started", "participant_id", "guest_1")
	line := lastLine(t, buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Relay started", line["message"])
	assert.Equal(t, "guest_1", line["participant_id"])

	Debug("hidden in production")
	assert.NotContains(t, buf.String(), "hidden in production")
}

func TestOddFieldsAreDropped(t *testing.T) {
	buf := captureLogs(t)

	Warn("odd", "dangling")
	assert.Contains(t, buf.String(), `"message":"odd"`)
	assert.NotContains(t, buf.String(), "dangling\":")
}

func TestComponent(t *testing.T) {
	buf := captureLogs(t)

	logger := Component("hub")
	logger.Info().Msg("hello")
	assert.Equal(t, "hub", lastLine(t, buf)["component"])
}

func TestRequestLoggerInjectsContextLogger(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestLogger("/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, done map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &done))

	assert.Equal(t, "http", inner["component"])
	assert.Equal(t, "198.51.100.0", inner["remote_ip"])
	assert.Equal(t, "warn", done["level"])
	assert.EqualValues(t, http.StatusTeapot, done["status"])
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestLogger("/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, buf.String())
}
