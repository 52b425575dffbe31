package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/pow"
	"studiosite/internal/pkg/req"
	"studiosite/internal/pkg/resp"
)

// MaxContactMessageLength caps the message field of the contact form.
const MaxContactMessageLength = 5000

// PowVerifyInput is the solved challenge posted by the browser.
type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandleContactChallenge issues a new proof-of-work challenge for the contact form.
func HandleContactChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.PoW.NewChallenge())
	}
}

// HandleContactVerify checks a solved challenge and returns a single-use proof token.
func HandleContactVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.PoW.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			if !errors.Is(err, pow.ErrNonceInvalid) && !errors.Is(err, pow.ErrProofInsufficient) {
				logx.Error(err, "Proof validation failed unexpectedly")
				resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInternal))
				return
			}
			logx.Warn("Proof rejected", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"token": token})
	}
}

// HandleSubmitContact forwards a contact form to the remote API. It runs behind the
// proof-of-work middleware.
func HandleSubmitContact(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form apiclient.ContactForm
		if customErr := req.BindJSON(r, &form); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		form.Name = strings.TrimSpace(form.Name)
		form.Email = strings.TrimSpace(form.Email)
		form.Message = strings.TrimSpace(form.Message)

		if form.Name == "" || form.Message == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if _, err := mail.ParseAddress(form.Email); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if len([]rune(form.Message)) > MaxContactMessageLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		if err := deps.API.SubmitContact(r.Context(), form); err != nil {
			respondUpstreamError(w, r, err, "submit contact", "Failed to send your message.")
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"sent": true})
	}
}
