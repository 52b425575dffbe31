package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/media"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/req"
	"studiosite/internal/pkg/resp"
)

// HandleCreateProject creates a project from a JSON or multipart body.
func HandleCreateProject(deps *AppDeps) http.HandlerFunc {
	return adminWrite(deps, "create project", http.StatusCreated,
		func(ctx context.Context, c *apiclient.Client, _ string, p apiclient.Payload) (any, error) {
			return c.CreateProject(ctx, p)
		})
}

// HandleUpdateProject updates the project named by {id}.
func HandleUpdateProject(deps *AppDeps) http.HandlerFunc {
	return adminWrite(deps, "update project", http.StatusOK,
		func(ctx context.Context, c *apiclient.Client, id string, p apiclient.Payload) (any, error) {
			return c.UpdateProject(ctx, id, p)
		})
}

// HandleDeleteProject deletes the project named by {id}.
func HandleDeleteProject(deps *AppDeps) http.HandlerFunc {
	return adminDelete(deps, "delete project", func(ctx context.Context, c *apiclient.Client, id string) error {
		return c.DeleteProject(ctx, id)
	})
}

// HandleCreateExperience creates an experience entry from a JSON or multipart body.
func HandleCreateExperience(deps *AppDeps) http.HandlerFunc {
	return adminWrite(deps, "create experience", http.StatusCreated,
		func(ctx context.Context, c *apiclient.Client, _ string, p apiclient.Payload) (any, error) {
			return c.CreateExperience(ctx, p)
		})
}

// HandleUpdateExperience updates the experience entry named by {id}.
func HandleUpdateExperience(deps *AppDeps) http.HandlerFunc {
	return adminWrite(deps, "update experience", http.StatusOK,
		func(ctx context.Context, c *apiclient.Client, id string, p apiclient.Payload) (any, error) {
			return c.UpdateExperience(ctx, id, p)
		})
}

// HandleDeleteExperience deletes the experience entry named by {id}.
func HandleDeleteExperience(deps *AppDeps) http.HandlerFunc {
	return adminDelete(deps, "delete experience", func(ctx context.Context, c *apiclient.Client, id string) error {
		return c.DeleteExperience(ctx, id)
	})
}

type writeFunc func(ctx context.Context, c *apiclient.Client, id string, p apiclient.Payload) (any, error)

func adminWrite(deps *AppDeps, op string, status int, write writeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, release, customErr := bindPayload(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer release()

		out, err := write(r.Context(), deps.Client(r), chi.URLParam(r, "id"), payload)
		if err != nil {
			respondUpstreamError(w, r, err, op, "Failed to save changes.")
			return
		}

		logx.Info("Admin content saved", "op", op, "id", chi.URLParam(r, "id"))
		resp.RespondWithStatus(w, r, status, out)
	}
}

func adminDelete(deps *AppDeps, op string, del func(context.Context, *apiclient.Client, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := del(r.Context(), deps.Client(r), id); err != nil {
			respondUpstreamError(w, r, err, op, "Failed to delete.")
			return
		}

		logx.Info("Admin content deleted", "op", op, "id", id)
		resp.RespondSuccess(w, r, nil)
	}
}

// bindPayload reads a write body. JSON objects become structured Fields; multipart forms
// are forwarded with their files. release closes any opened file parts.
func bindPayload(w http.ResponseWriter, r *http.Request) (apiclient.Payload, func(), *errs.CustomError) {
	noop := func() {}

	switch {
	case req.IsMultipart(r):
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			return nil, noop, customErr
		}
		return multipartPayload(r.MultipartForm)

	case req.IsJSON(r):
		fields, customErr := req.BindFields(r)
		if customErr != nil {
			return nil, noop, customErr
		}
		return apiclient.Fields(fields), noop, nil
	}

	return nil, noop, errs.NewError(errs.ErrUnsupportedMediaType)
}

func multipartPayload(form *multipart.Form) (apiclient.Payload, func(), *errs.CustomError) {
	payload := &apiclient.Multipart{Fields: make(map[string]string, len(form.Value))}
	for key, values := range form.Value {
		if len(values) > 0 {
			payload.Fields[key] = values[0]
		}
	}

	var opened []io.Closer
	release := func() {
		var result *multierror.Error
		for _, c := range opened {
			result = multierror.Append(result, c.Close())
		}
		if err := result.ErrorOrNil(); err != nil {
			logx.Debug("Failed to close uploaded file parts", "error", err)
		}
	}

	for field, headers := range form.File {
		for _, fh := range headers {
			mimeType := fh.Header.Get("Content-Type")

			if customErr := media.ValidateFileSize(fh.Size); customErr != nil {
				release()
				return nil, func() {}, customErr
			}
			if customErr := media.ValidateFileType(fh.Filename, mimeType); customErr != nil {
				release()
				return nil, func() {}, customErr
			}

			f, err := fh.Open()
			if err != nil {
				release()
				return nil, func() {}, errs.NewError(errs.ErrFormParseFailed)
			}
			opened = append(opened, f)

			payload.Files = append(payload.Files, apiclient.File{
				Field:       field,
				Name:        fh.Filename,
				ContentType: mimeType,
				Reader:      f,
			})
		}
	}

	return payload, release, nil
}
