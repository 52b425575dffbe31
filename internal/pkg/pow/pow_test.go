package pow

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, c Challenge) string {
	t.Helper()

	for i := 0; i < 1_000_000; i++ {
		counter := strconv.Itoa(i)
		if Satisfies(c.Nonce, counter, c.Difficulty) {
			return counter
		}
	}
	t.Fatal("no solution found")
	return ""
}

func withToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	r.Header.Set(TokenHeaderKey, token)
	return r
}

func TestProofFlow(t *testing.T) {
	m := NewManager(2)
	t.Cleanup(m.Close)

	c := m.NewChallenge()
	assert.Equal(t, 2, c.Difficulty)

	token, err := m.ValidateProof(c.Nonce, solve(t, c))
	require.NoError(t, err)

	assert.True(t, m.ConsumeProofToken(withToken(token)))
	assert.False(t, m.ConsumeProofToken(withToken(token)), "tokens are single use")
}

func TestNonceIsSingleUse(t *testing.T) {
	m := NewManager(1)
	t.Cleanup(m.Close)

	c := m.NewChallenge()
	counter := solve(t, c)

	_, err := m.ValidateProof(c.Nonce, counter)
	require.NoError(t, err)

	_, err = m.ValidateProof(c.Nonce, counter)
	assert.ErrorIs(t, err, ErrNonceInvalid)
}

func TestValidateProofRejectsWrongCounter(t *testing.T) {
	m := NewManager(6)
	t.Cleanup(m.Close)

	c := m.NewChallenge()
	counter := "x"
	for Satisfies(c.Nonce, counter, c.Difficulty) {
		counter += "x"
	}

	_, err := m.ValidateProof(c.Nonce, counter)
	assert.ErrorIs(t, err, ErrProofInsufficient)
}

func TestExpiredNonceAndToken(t *testing.T) {
	m := NewManager(1)
	t.Cleanup(m.Close)

	now := time.Now()
	m.now = func() time.Time { return now }

	c := m.NewChallenge()
	counter := solve(t, c)

	now = now.Add(NonceExpiryDuration + time.Second)
	_, err := m.ValidateProof(c.Nonce, counter)
	assert.ErrorIs(t, err, ErrNonceInvalid)

	c = m.NewChallenge()
	token, err := m.ValidateProof(c.Nonce, solve(t, c))
	require.NoError(t, err)

	now = now.Add(ProofTokenDuration + time.Second)
	assert.False(t, m.ConsumeProofToken(withToken(token)))
}

func TestMiddleware(t *testing.T) {
	m := NewManager(1)
	t.Cleanup(m.Close)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	c := m.NewChallenge()
	token, err := m.ValidateProof(c.Nonce, solve(t, c))
	require.NoError(t, err)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, withToken(token))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
