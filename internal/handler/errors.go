package handler

import (
	"errors"
	"net/http"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/resp"
)

// upstreamError maps a remote API failure onto an application error. fallback, when set,
// replaces the generic message of a failed request.
func upstreamError(err error, fallback string) *errs.CustomError {
	var failed *apiclient.RequestFailed
	if errors.As(err, &failed) {
		switch failed.Status {
		case http.StatusNotFound:
			return errs.NewError(errs.ErrNotFound)
		case http.StatusUnauthorized:
			return errs.NewError(errs.ErrUnauthorized)
		case http.StatusForbidden:
			return errs.NewError(errs.ErrForbidden)
		}
		return errs.NewError(errs.ErrUpstreamFailed).WithMessage(fallback)
	}

	var unavailable *apiclient.TransportUnavailable
	if errors.As(err, &unavailable) {
		return errs.NewError(errs.ErrUpstreamUnavailable)
	}

	var undecodable *apiclient.DecodeError
	if errors.As(err, &undecodable) {
		return errs.NewError(errs.ErrUpstreamFailed).WithMessage(fallback)
	}

	return errs.NewError(errs.ErrStorageFailed)
}

// respondUpstreamError logs err and writes its mapped response.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	customErr := upstreamError(err, fallback)

	if customErr.Status >= http.StatusInternalServerError {
		logx.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("Request to remote API failed")
	} else {
		logx.Ctx(r.Context()).Info().Err(err).Str("op", op).Msg("Remote API rejected request")
	}

	resp.RespondError(w, r, customErr)
}
