package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"studiosite/internal/app/guest"
	"studiosite/internal/app/realtime"
	"studiosite/internal/app/session"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/limiter"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/resp"
)

// HandleWebSocket upgrades a browser tab and attaches it to the relay of the visitor's
// chat identity. A visitor without any identity is bootstrapped as a guest first.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ByIP(r)
		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		identity := IdentityFrom(r)
		if identity == nil {
			env := guest.Environment{
				UserAgent: r.UserAgent(),
				Locale:    primaryLanguage(r.Header.Get("Accept-Language")),
			}

			v, err := deps.Guests.EnsureGuestSession(r.Context(), deps.Session(r), &env, "")
			if err != nil {
				logx.Error(err, "Failed to bootstrap guest for WebSocket")
				resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
				return
			}
			identity = session.Guest{VisitorKey: v.VisitorKey, GuestUserID: v.GuestUserID, Name: v.DisplayName}
		}

		// Upgrade writes its own response, so the visitor cookie has to be carried over.
		var header http.Header
		if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header = http.Header{"Set-Cookie": cookies}
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logx.Error(err, "WebSocket upgrade failed", "participant_id", identity.ParticipantID())
			return
		}

		if err := deps.Hub.Attach(identity, conn); err != nil {
			if !errors.Is(err, realtime.ErrHubClosed) {
				logx.Warn("Failed to attach tab to relay", "error", err, "participant_id", identity.ParticipantID())
			}
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			_ = conn.Close()
		}
	}
}
