package handler

import (
	"context"
	"net/http"

	"studiosite/internal/app/session"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/resp"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// IdentityMiddleware resolves the visitor's identity once per request. It runs after
// jwt.VisitorMiddleware.
func IdentityMiddleware(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := deps.Session(r).Identity(r.Context())
			if err != nil {
				logx.Ctx(r.Context()).Error().Err(err).Msg("Failed to read visitor session")
				resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
				return
			}

			ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the identity injected by IdentityMiddleware. It is nil for a
// visitor who is neither signed in nor a guest yet.
func IdentityFrom(r *http.Request) session.Identity {
	identity, _ := r.Context().Value(contextIdentityKey).(session.Identity)
	return identity
}

// AccountFrom returns the signed-in user of the request, if any.
func AccountFrom(r *http.Request) (session.Authenticated, bool) {
	a, ok := IdentityFrom(r).(session.Authenticated)
	return a, ok
}

// RequireAuth rejects visitors who are not signed in.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AccountFrom(r); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects everyone but signed-in admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFrom(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		if !account.IsAdmin() {
			logx.Warn("Admin route rejected", "user_id", account.UserID, "path", r.URL.Path)
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}
