/*
Package session holds the per-visitor state the data-access layer reads and writes:
the login token of an authenticated user and the guest identity of an anonymous visitor.

A Context is built for one visitor with an injected Storage (the visitor's key/value
namespace) and Clock; it replaces process-wide token and identity variables.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiosite/internal/pkg/auth/jwt"
	"studiosite/internal/pkg/logx"
)

// Storage keys. Values are plain strings; absence of a key is the only "unset" signal.
const (
	KeyAuthToken   = "authToken"
	KeyUserID      = "userId"
	KeyUserName    = "userName"
	KeyUserRole    = "userRole"
	KeyVisitorKey  = "visitorKey"
	KeyGuestUserID = "guestUserId"

	// KeyGuestIDSource records whether guestUserId came from the API or the fingerprint fallback.
	KeyGuestIDSource = "guestIdSource"
)

// Storage is the visitor's persistent key/value store. kv.Bucket implements it.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Context is the session state of one visitor.
type Context struct {
	store Storage
	clock Clock
}

// New returns a Context over store. A nil clock means the wall clock.
func New(store Storage, clock Clock) *Context {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Context{store: store, clock: clock}
}

// Now returns the session clock's current time.
func (c *Context) Now() time.Time {
	return c.clock.Now()
}

// Token returns the stored bearer token, or "" when signed out.
// A token that decodes as a JWT with a past exp claim is cleared and treated as signed out.
func (c *Context) Token(ctx context.Context) (string, error) {
	token, err := c.store.Get(ctx, KeyAuthToken)
	if err != nil || token == "" {
		return "", err
	}

	if _, err := jwt.Inspect(token, c.clock.Now()); errors.Is(err, jwt.ErrTokenExpired) {
		logx.Info("Stored auth token expired, signing the visitor out")
		if err := c.ClearAuth(ctx); err != nil {
			return "", err
		}
		return "", nil
	}

	return token, nil
}

// SetAuth persists a successful login.
func (c *Context) SetAuth(ctx context.Context, a Authenticated) error {
	if a.Token == "" {
		return errors.New("empty auth token")
	}

	values := map[string]string{
		KeyAuthToken: a.Token,
		KeyUserID:    a.UserID,
		KeyUserName:  a.Name,
		KeyUserRole:  a.Role,
	}

	for _, key := range []string{KeyAuthToken, KeyUserID, KeyUserName, KeyUserRole} {
		if values[key] == "" {
			continue
		}
		if err := c.store.Set(ctx, key, values[key]); err != nil {
			return fmt.Errorf("failed to persist login: %w", err)
		}
	}
	return nil
}

// ClearAuth removes the login. Guest identity keys and the display name are kept.
func (c *Context) ClearAuth(ctx context.Context) error {
	if err := c.store.Delete(ctx, KeyAuthToken, KeyUserID, KeyUserRole); err != nil {
		return fmt.Errorf("failed to clear login: %w", err)
	}
	return nil
}

// Visitor reads the cached guest identity. Fields are empty when unset.
func (c *Context) Visitor(ctx context.Context) (VisitorIdentity, error) {
	var v VisitorIdentity
	var err error

	if v.VisitorKey, err = c.store.Get(ctx, KeyVisitorKey); err != nil {
		return VisitorIdentity{}, err
	}
	if v.GuestUserID, err = c.store.Get(ctx, KeyGuestUserID); err != nil {
		return VisitorIdentity{}, err
	}
	if v.DisplayName, err = c.store.Get(ctx, KeyUserName); err != nil {
		return VisitorIdentity{}, err
	}
	if v.Source, err = c.store.Get(ctx, KeyGuestIDSource); err != nil {
		return VisitorIdentity{}, err
	}

	return v, nil
}

// SaveVisitor writes the non-empty fields of v.
func (c *Context) SaveVisitor(ctx context.Context, v VisitorIdentity) error {
	fields := []struct{ key, value string }{
		{KeyVisitorKey, v.VisitorKey},
		{KeyGuestUserID, v.GuestUserID},
		{KeyUserName, v.DisplayName},
		{KeyGuestIDSource, v.Source},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := c.store.Set(ctx, f.key, f.value); err != nil {
			return fmt.Errorf("failed to persist visitor identity: %w", err)
		}
	}
	return nil
}

// DisplayName returns the cached display name.
func (c *Context) DisplayName(ctx context.Context) (string, error) {
	return c.store.Get(ctx, KeyUserName)
}

// Identity returns the visitor's current identity: Authenticated when a token is stored,
// Guest when a guest id is cached, nil when neither exists yet.
func (c *Context) Identity(ctx context.Context) (Identity, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	if token != "" {
		a := Authenticated{Token: token}
		if a.UserID, err = c.store.Get(ctx, KeyUserID); err != nil {
			return nil, err
		}
		if a.Name, err = c.store.Get(ctx, KeyUserName); err != nil {
			return nil, err
		}
		if a.Role, err = c.store.Get(ctx, KeyUserRole); err != nil {
			return nil, err
		}
		return a, nil
	}

	v, err := c.Visitor(ctx)
	if err != nil {
		return nil, err
	}
	if v.GuestUserID == "" {
		return nil, nil
	}

	return Guest{VisitorKey: v.VisitorKey, GuestUserID: v.GuestUserID, Name: v.DisplayName}, nil
}
