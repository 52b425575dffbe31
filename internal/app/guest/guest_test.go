package guest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/kv"
	"studiosite/internal/app/session"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeInit struct {
	res   *apiclient.GuestInitResponse
	err   error
	calls []string
}

func (f *fakeInit) GuestInit(_ context.Context, visitorKey, name string) (*apiclient.GuestInitResponse, error) {
	f.calls = append(f.calls, visitorKey+"|"+name)
	if f.err != nil {
		return nil, f.err
	}
	res := *f.res
	return &res, nil
}

var testEnv = &Environment{
	UserAgent:      "Mozilla/5.0 (X11; Linux x86_64)",
	Locale:         "en-US",
	ScreenWidth:    1920,
	ScreenHeight:   1080,
	TimezoneOffset: -120,
}

func newSession() *session.Context {
	return session.New(kv.NewBucket(kv.NewMemoryStore(), "visitor"), nil)
}

func fixedNames() string { return "User42" }

func TestHash(t *testing.T) {
	assert.Equal(t, int32(0), Hash(""))
	assert.Equal(t, int32(97), Hash("a"))
	assert.Equal(t, int32(99162322), Hash("hello"))
	assert.Equal(t, int32(-862545276), Hash("Hello World"))
}

func TestHashWrapsLikeUint32(t *testing.T) {
	s := testEnv.Signals()

	var want uint32
	for _, r := range s {
		want = want*31 + uint32(r)
	}
	assert.Equal(t, int32(want), Hash(s))
}

func TestSignals(t *testing.T) {
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)en-US19201080-120", testEnv.Signals())
}

func TestGenerateHashStableAcrossTime(t *testing.T) {
	first := &Generator{Clock: fixedClock{time.UnixMilli(1_700_000_000_000)}, Names: fixedNames}
	later := &Generator{Clock: fixedClock{time.UnixMilli(1_700_000_123_456)}, Names: fixedNames}

	a := first.Generate(testEnv, "", "")
	b := later.Generate(testEnv, "", "")

	require.True(t, strings.HasPrefix(a.UserID, "guest_"))
	assert.NotEqual(t, a.UserID, b.UserID)

	partsA := strings.Split(a.UserID, "_")
	partsB := strings.Split(b.UserID, "_")
	require.Len(t, partsA, 3)
	require.Len(t, partsB, 3)
	assert.Equal(t, partsA[1], partsB[1])
	assert.Equal(t, "1700000000000", partsA[2])
	assert.Equal(t, "1700000123456", partsB[2])
	assert.NotContains(t, partsA[1], "-")
}

func TestGenerateNamePrecedence(t *testing.T) {
	g := &Generator{Clock: fixedClock{time.Now()}, Names: fixedNames}

	assert.Equal(t, "Ada", g.Generate(testEnv, "Ada", "Bob").Name)
	assert.Equal(t, "Bob", g.Generate(testEnv, "", "Bob").Name)
	assert.Equal(t, "User42", g.Generate(testEnv, "", "").Name)
}

func TestGenerateWithoutEnvironment(t *testing.T) {
	g := &Generator{Clock: fixedClock{time.Now()}, Names: fixedNames}

	out := g.Generate(nil, "", "Bob")
	assert.Empty(t, out.UserID)
	assert.Equal(t, "Bob", out.Name)
}

func TestEnsureGuestSessionPersistsServerIdentity(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	api := &fakeInit{res: &apiclient.GuestInitResponse{VisitorKey: "vk-1", UserID: "guest_srv_1", Name: "Ada"}}
	b := NewBootstrapper(api, &Generator{Names: fixedNames})

	got, err := b.EnsureGuestSession(ctx, sess, testEnv, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "vk-1", got.VisitorKey)
	assert.Equal(t, "guest_srv_1", got.GuestUserID)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, session.SourceServer, got.Source)
	assert.Equal(t, []string{"|Ada"}, api.calls)

	stored, err := sess.Visitor(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestEnsureGuestSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	api := &fakeInit{res: &apiclient.GuestInitResponse{VisitorKey: "vk-1", UserID: "guest_srv_1"}}
	b := NewBootstrapper(api, &Generator{Names: fixedNames})

	first, err := b.EnsureGuestSession(ctx, sess, testEnv, "")
	require.NoError(t, err)

	api.res = &apiclient.GuestInitResponse{VisitorKey: "vk-2", UserID: "guest_srv_2", Name: "Renamed"}
	second, err := b.EnsureGuestSession(ctx, sess, testEnv, "")
	require.NoError(t, err)

	assert.Equal(t, first.GuestUserID, second.GuestUserID)
	assert.Equal(t, first.VisitorKey, second.VisitorKey)
	assert.Equal(t, "Renamed", second.DisplayName)
	assert.Equal(t, "vk-1|", api.calls[1])
}

func TestEnsureGuestSessionFallsBackToLocalIdentity(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	api := &fakeInit{err: &apiclient.RequestFailed{Op: "guestInit", Status: 404}}
	gen := &Generator{Clock: fixedClock{time.UnixMilli(1_700_000_000_000)}, Names: fixedNames}
	b := NewBootstrapper(api, gen)

	got, err := b.EnsureGuestSession(ctx, sess, testEnv, "")
	require.NoError(t, err)
	assert.Equal(t, gen.Generate(testEnv, "", "").UserID, got.GuestUserID)
	assert.True(t, strings.HasPrefix(got.VisitorKey, "local_"))
	assert.Equal(t, "User42", got.DisplayName)
	assert.Equal(t, session.SourceLocal, got.Source)
}

func TestEnsureGuestSessionFallbackReusesCachedID(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	require.NoError(t, sess.SaveVisitor(ctx, session.VisitorIdentity{
		VisitorKey:  "vk-cached",
		GuestUserID: "guest_123_456",
		DisplayName: "Bob",
		Source:      session.SourceLocal,
	}))

	api := &fakeInit{err: &apiclient.TransportUnavailable{Op: "guestInit", Err: errors.New("connection refused")}}
	b := NewBootstrapper(api, &Generator{Clock: fixedClock{time.Now()}, Names: fixedNames})

	for range 2 {
		got, err := b.EnsureGuestSession(ctx, sess, testEnv, "")
		require.NoError(t, err)
		assert.Equal(t, "guest_123_456", got.GuestUserID)
		assert.Equal(t, "vk-cached", got.VisitorKey)
		assert.Equal(t, "Bob", got.DisplayName)
	}
}

func TestEnsureGuestSessionServerReplacesLocalIdentity(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	require.NoError(t, sess.SaveVisitor(ctx, session.VisitorIdentity{
		VisitorKey:  "local_abc",
		GuestUserID: "guest_123_456",
		Source:      session.SourceLocal,
	}))

	api := &fakeInit{res: &apiclient.GuestInitResponse{VisitorKey: "vk-srv", UserID: "guest_srv_9", Name: "Ada"}}
	b := NewBootstrapper(api, &Generator{Names: fixedNames})

	got, err := b.EnsureGuestSession(ctx, sess, testEnv, "")
	require.NoError(t, err)
	assert.Equal(t, "guest_srv_9", got.GuestUserID)
	assert.Equal(t, "vk-srv", got.VisitorKey)
	assert.Equal(t, session.SourceServer, got.Source)
	assert.Equal(t, []string{"local_abc|"}, api.calls)
}

func TestEnsureGuestSessionTreatsEmptyAnswerAsFailure(t *testing.T) {
	ctx := context.Background()
	sess := newSession()
	api := &fakeInit{res: &apiclient.GuestInitResponse{}}
	b := NewBootstrapper(api, &Generator{Clock: fixedClock{time.Now()}, Names: fixedNames})

	got, err := b.EnsureGuestSession(ctx, sess, testEnv, "Ada")
	require.NoError(t, err)
	assert.Equal(t, session.SourceLocal, got.Source)
	assert.Equal(t, "Ada", got.DisplayName)
}
