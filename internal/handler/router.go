/*
Package handler provides the HTTP handlers and routing setup for the studio site server.

This file defines the main Router, applying the middleware stack (CORS, request ids, logging,
visitor cookies, identity) before delegating to the content, auth, admin, chat and
WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"studiosite/internal/pkg/auth/jwt"
	"studiosite/internal/pkg/limiter"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/pow"
	"studiosite/internal/pkg/resp"
)

const (
	ContactRate    = 0.05
	ContactBurst   = 3
	GuestSendRate  = 1
	GuestSendBurst = 5
	JoinRate       = 0.2
	JoinBurst      = 5
)

// Limiters are the rate limiters used by Router. Close them on shutdown.
type Limiters struct {
	Contact   *limiter.RateLimiter
	GuestSend *limiter.RateLimiter
	Join      *limiter.RateLimiter
}

// NewLimiters builds the default limiters.
func NewLimiters() *Limiters {
	return &Limiters{
		Contact:   limiter.New(rate.Limit(ContactRate), ContactBurst),
		GuestSend: limiter.New(rate.Limit(GuestSendRate), GuestSendBurst),
		Join:      limiter.New(rate.Limit(JoinRate), JoinBurst),
	}
}

// Close stops every limiter's cleanup loop.
func (l *Limiters) Close() {
	l.Contact.Close()
	l.GuestSend.Close()
	l.Join.Close()
}

// Router sets up the main HTTP routing table (chi.Router) for the application.
func Router(deps *AppDeps, limits *Limiters) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", pow.TokenHeaderKey},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger("/health"))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Studio Site",
		}
		resp.RespondSuccess(w, r, data)
	})

	visitor := jwt.VisitorMiddleware(deps.Config.SessionSecret, deps.Config.SecureCookies)

	r.Route("/api", func(api chi.Router) {
		api.Use(visitor)
		api.Use(IdentityMiddleware(deps))

		api.Get("/home", HandleHome(deps))
		api.Get("/projects", HandleListProjects(deps))
		api.Get("/projects/{id}", HandleGetProject(deps))
		api.Get("/experience", HandleListExperience(deps))

		api.Route("/blog", func(blog chi.Router) {
			blog.Get("/", HandleListBlogPosts(deps))
			blog.Get("/categories", HandleListBlogCategories(deps))
			blog.Get("/tags", HandleListBlogTags(deps))
			blog.Get("/{slug}", HandleGetArticle(deps))
		})

		api.Route("/contact", func(contact chi.Router) {
			contact.Get("/challenge", HandleContactChallenge(deps))
			contact.Post("/verify", HandleContactVerify(deps))
			contact.With(limits.Contact.Middleware(limiter.ByIP), deps.PoW.Middleware).
				Post("/", HandleSubmitContact(deps))
		})

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", HandleLogin(deps))
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/logout", HandleLogout(deps))
			auth.Get("/me", HandleMe(deps))
		})

		api.Route("/chat", func(chat chi.Router) {
			chat.Use(RequireAuth)
			chat.Get("/conversations", HandleListConversations(deps))
			chat.Get("/messages/{peerId}", HandleListConversationMessages(deps))
			chat.Post("/send", HandleSendChatMessage(deps))
		})

		api.Route("/guest", func(g chi.Router) {
			g.Post("/session", HandleGuestSession(deps))
			g.Get("/online", HandleGuestOnline(deps))
			g.With(limits.GuestSend.Middleware(jwt.GetVisitorID)).Post("/send", HandleGuestSend(deps))
			g.Get("/messages/{peerId}", HandleGuestMessages(deps))
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(RequireAdmin)

			admin.Post("/projects", HandleCreateProject(deps))
			admin.Put("/projects/{id}", HandleUpdateProject(deps))
			admin.Delete("/projects/{id}", HandleDeleteProject(deps))

			admin.Post("/experience", HandleCreateExperience(deps))
			admin.Put("/experience/{id}", HandleUpdateExperience(deps))
			admin.Delete("/experience/{id}", HandleDeleteExperience(deps))

			admin.Route("/media", func(m chi.Router) {
				m.Post("/presign-upload", HandlePresignUpload(deps))
				m.Get("/presign-download", HandlePresignDownload(deps))
				m.Get("/info", HandleMediaInfo(deps))
				m.Post("/", HandleUploadMedia(deps))
				m.Delete("/", HandleDeleteMedia(deps))
			})
		})
	})

	r.With(visitor, IdentityMiddleware(deps)).Get("/ws", HandleWebSocket(deps, wsUpgrader, limits.Join))

	return r
}
