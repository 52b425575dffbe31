/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates the logic for parsing JSON and Multipart Form data, and integrates
error handling to ensure data format correctness and size constraints, facilitating
subsequent business logic processing.
*/
package req

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"studiosite/internal/pkg/errs"
)

const (
	// MaxFormMemory defines the maximum amount of memory (32 MB) ParseMultipartForm
	// will use to store non-file fields. File fields exceeding this limit are stored in temporary files.
	MaxFormMemory int64 = 32 << 20 // 32 MB

	// MaxRequestFileSize defines the maximum allowed size (20 MB) for the entire request body, including files.
	// This limit is enforced via http.MaxBytesReader.
	MaxRequestFileSize int64 = 20 << 20 // 20 MB

	// MaxJSONBodySize bounds JSON request bodies.
	MaxJSONBodySize int64 = 1 << 20 // 1 MB
)

// IsJSON reports whether the request declares a JSON body.
func IsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// IsMultipart reports whether the request declares a multipart form body.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
// Unknown fields are rejected.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	if !IsJSON(r) {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// BindOptionalJSON is BindJSON for endpoints whose body may be omitted entirely.
// An empty body leaves dst untouched.
func BindOptionalJSON(r *http.Request, dst any) *errs.CustomError {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONBodySize))
	if err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return BindJSON(r, dst)
}

// BindFields decodes a JSON object body into a generic field map. Numbers stay json.Number
// so they are forwarded as written.
func BindFields(r *http.Request) (map[string]any, *errs.CustomError) {
	if !IsJSON(r) {
		return nil, errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBodySize))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		return nil, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return nil, errs.NewError(errs.ErrExtraContentInBody)
	}

	return fields, nil
}

// SetupMultipart sets up and parses Multipart Form or URL-encoded form data from the HTTP request.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	err := r.ParseMultipartForm(MaxFormMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
