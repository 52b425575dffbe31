package guest

import (
	"context"
	"errors"
	"fmt"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/session"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/randx"
)

// Initializer issues server-side guest identities. *apiclient.Client implements it.
type Initializer interface {
	GuestInit(ctx context.Context, visitorKey, name string) (*apiclient.GuestInitResponse, error)
}

// Bootstrapper makes sure a visitor has a guest identity before they chat.
type Bootstrapper struct {
	api Initializer
	gen *Generator
}

// NewBootstrapper returns a Bootstrapper. A nil gen uses NewGenerator.
func NewBootstrapper(api Initializer, gen *Generator) *Bootstrapper {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Bootstrapper{api: api, gen: gen}
}

// EnsureGuestSession returns the visitor's guest identity, creating it on first use.
//
// The API is asked first and its answer is persisted. If the API fails the cached guest id
// is reused, or a local one is derived from env. Once a server-issued guest id or a visitor
// key is stored it is never replaced; only the display name changes between calls.
// The returned error is non-nil only when the session storage itself fails.
func (b *Bootstrapper) EnsureGuestSession(ctx context.Context, sess *session.Context, env *Environment, name string) (session.VisitorIdentity, error) {
	cached, err := sess.Visitor(ctx)
	if err != nil {
		return session.VisitorIdentity{}, fmt.Errorf("failed to read visitor identity: %w", err)
	}

	res, err := b.api.GuestInit(ctx, cached.VisitorKey, name)
	if err == nil && res.UserID == "" {
		err = errors.New("guest init returned no user id")
	}

	var next session.VisitorIdentity
	if err != nil {
		logx.Ctx(ctx).Warn().
			Err(err).
			Str("visitor_key", cached.VisitorKey).
			Bool("cached_guest", cached.GuestUserID != "").
			Msg("Guest init unavailable, continuing with a local identity")
		next = b.local(cached, env, name)
	} else {
		next = b.adopt(ctx, cached, res, name)
	}

	if err := sess.SaveVisitor(ctx, next); err != nil {
		return session.VisitorIdentity{}, err
	}
	return next, nil
}

// adopt merges the server answer into the cached identity.
func (b *Bootstrapper) adopt(ctx context.Context, cached session.VisitorIdentity, res *apiclient.GuestInitResponse, name string) session.VisitorIdentity {
	next := cached

	if cached.GuestUserID == "" || cached.Source != session.SourceServer {
		next.GuestUserID = res.UserID
		next.Source = session.SourceServer
		if res.VisitorKey != "" {
			next.VisitorKey = res.VisitorKey
		}
	} else if res.UserID != cached.GuestUserID {
		logx.Ctx(ctx).Warn().
			Str("cached_guest_id", cached.GuestUserID).
			Str("issued_guest_id", res.UserID).
			Msg("Guest init issued a different id for an established guest, keeping the cached one")
	}

	if next.VisitorKey == "" {
		next.VisitorKey = res.VisitorKey
	}
	if next.VisitorKey == "" {
		next.VisitorKey = randx.VisitorKey()
	}

	if res.Name != "" {
		next.DisplayName = res.Name
	} else {
		next.DisplayName = b.gen.pickName(name, cached.DisplayName)
	}

	return next
}

// local keeps the cached ids and fills whatever is missing without the API.
func (b *Bootstrapper) local(cached session.VisitorIdentity, env *Environment, name string) session.VisitorIdentity {
	next := cached

	if next.VisitorKey == "" {
		next.VisitorKey = randx.VisitorKey()
	}

	if next.GuestUserID != "" {
		next.DisplayName = b.gen.pickName(name, cached.DisplayName)
		return next
	}

	g := b.gen.Generate(env, name, cached.DisplayName)
	next.GuestUserID = g.UserID
	next.DisplayName = g.Name
	if g.UserID != "" {
		next.Source = session.SourceLocal
	}
	return next
}
