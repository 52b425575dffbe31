package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/session"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/req"
	"studiosite/internal/pkg/resp"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// AccountResponse describes the signed-in user. The API token never leaves the server.
type AccountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
}

func accountOf(a session.Authenticated) AccountResponse {
	return AccountResponse{ID: a.UserID, Name: a.Name, Role: a.Role, Admin: a.IsAdmin()}
}

// HandleLogin signs the visitor in with the remote API and stores the token in their session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds apiclient.Credentials
		if customErr := req.BindJSON(r, &creds); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		creds.Email = strings.TrimSpace(creds.Email)
		if creds.Email == "" || creds.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		authenticate(w, r, deps, func(client *apiclient.Client) (*apiclient.AuthResponse, error) {
			return client.Login(r.Context(), creds)
		})
	}
}

// HandleRegister creates an account and signs the visitor in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input apiclient.RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		input.Email = strings.TrimSpace(input.Email)

		if input.Name == "" || len(input.Password) < MinPasswordLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if _, err := mail.ParseAddress(input.Email); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		authenticate(w, r, deps, func(client *apiclient.Client) (*apiclient.AuthResponse, error) {
			return client.Register(r.Context(), input)
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, deps *AppDeps, do func(*apiclient.Client) (*apiclient.AuthResponse, error)) {
	sess := deps.Session(r)

	identity, err := sess.Identity(r.Context())
	if err != nil {
		logx.Error(err, "Failed to read session")
		resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
		return
	}
	if _, ok := identity.(session.Authenticated); ok {
		resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
		return
	}

	res, err := do(deps.API.WithSession(sess))
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
		default:
			respondUpstreamError(w, r, err, "authenticate", "Sign in failed. Please try again.")
		}
		return
	}

	logx.Info("Visitor signed in", "user_id", res.User.ID, "role", res.User.Role)

	resp.RespondSuccess(w, r, accountOf(session.Authenticated{
		UserID: res.User.ID,
		Name:   res.User.Name,
		Role:   res.User.Role,
	}))
}

// HandleLogout forgets the visitor's login. Their guest identity is kept.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Client(r).Logout(r.Context()); err != nil {
			logx.Error(err, "Failed to clear login")
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleMe returns the signed-in user, or ErrUnauthorized.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFrom(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, accountOf(account))
	}
}
