package handler

import (
	"net/http"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/content"
	"studiosite/internal/app/guest"
	"studiosite/internal/app/kv"
	"studiosite/internal/app/media"
	"studiosite/internal/app/messaging"
	"studiosite/internal/app/realtime"
	"studiosite/internal/app/session"
	"studiosite/internal/configs"
	"studiosite/internal/pkg/auth/jwt"
	"studiosite/internal/pkg/pow"
)

// AppDeps carries the process-wide services every handler needs.
type AppDeps struct {
	Config  *configs.AppConfig
	Store   kv.Store
	API     *apiclient.Client
	Content *content.Service
	Guests  *guest.Bootstrapper
	Hub     *realtime.Hub
	PoW     *pow.Manager

	// Media is nil when S3 is not configured.
	Media media.Service

	// Clock defaults to the wall clock.
	Clock session.Clock
}

// Session returns the session of the visitor behind r.
func (d *AppDeps) Session(r *http.Request) *session.Context {
	return session.New(kv.NewBucket(d.Store, jwt.GetVisitorID(r)), d.Clock)
}

// Client returns an API client bound to the visitor's session.
func (d *AppDeps) Client(r *http.Request) *apiclient.Client {
	return d.API.WithSession(d.Session(r))
}

// Messaging returns the guest chat facade for the visitor.
func (d *AppDeps) Messaging(r *http.Request) *messaging.Facade {
	sess := d.Session(r)
	return messaging.New(d.API.WithSession(sess), sess)
}
