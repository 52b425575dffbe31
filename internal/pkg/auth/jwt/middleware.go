package jwt

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"studiosite/internal/pkg/logx"
)

// Define Context Key for storing the visitor id, preventing key collisions with other packages.
type contextKey string

const (
	// ContextVisitorKey is the key used to store the visitor id in the request Context.
	ContextVisitorKey contextKey = "visitor_id"

	// VisitorCookieName is the cookie carrying the signed visitor token.
	VisitorCookieName = "sv_visitor"
)

// VisitorMiddleware makes sure every request belongs to a visitor namespace.
// A valid cookie is reused; a missing, tampered or expired one is replaced by a fresh visitor.
// The cookie is re-issued on every request so active visitors never expire.
func VisitorMiddleware(secretKey string, secure bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID := ""

			if cookie, err := r.Cookie(VisitorCookieName); err == nil && cookie.Value != "" {
				claims, err := ParseVisitorToken(cookie.Value, secretKey)
				if err != nil {
					logx.Warn("Invalid visitor cookie, issuing a new visitor", "error", err)
				} else {
					visitorID = claims.VisitorID
				}
			}

			if visitorID == "" {
				visitorID = uuid.New().String()
			}

			now := time.Now()
			token, err := GenerateVisitorToken(visitorID, secretKey, VisitorCookieExpiration, now)
			if err != nil {
				logx.Error(err, "Failed to sign visitor cookie")
			} else {
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    token,
					Path:     "/",
					Expires:  now.Add(VisitorCookieExpiration),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ContextVisitorKey, visitorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetVisitorID returns the visitor id injected by VisitorMiddleware, or "".
func GetVisitorID(r *http.Request) string {
	id, _ := r.Context().Value(ContextVisitorKey).(string)
	return id
}
