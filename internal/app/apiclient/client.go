/*
Package apiclient is the HTTP client for the remote REST API that owns projects, blog posts,
experience entries, authentication and chat.

Every operation performs exactly one request. A non-2xx answer becomes *RequestFailed and a
request that never got an answer becomes *TransportUnavailable; nothing is retried here.
*/
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"studiosite/internal/app/session"
)

// Config configures the shared HTTP client.
type Config struct {
	// BaseURL is the remote API root, e.g. "http://localhost:5000/api".
	BaseURL string

	// Timeout bounds every request. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client calls the remote API. The zero session sends no bearer token.
type Client struct {
	rc   *resty.Client
	sess *session.Context
}

// New builds a Client without a session.
func New(cfg Config) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	return &Client{rc: rc}
}

// WithSession returns a Client bound to sess. The bearer token is read from the
// session on every request, so a login through this client is seen by later calls.
func (c *Client) WithSession(sess *session.Context) *Client {
	return &Client{rc: c.rc, sess: sess}
}

// Session returns the bound session, or nil.
func (c *Client) Session() *session.Context {
	return c.sess
}

// RequestFailed is returned when the API answers with a non-success status.
type RequestFailed struct {
	Op     string
	Status int
	Body   string
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("%s: request failed with status %d", e.Op, e.Status)
}

// TransportUnavailable is returned when no response was received at all.
type TransportUnavailable struct {
	Op  string
	Err error
}

func (e *TransportUnavailable) Error() string {
	return fmt.Sprintf("%s: api unreachable: %v", e.Op, e.Err)
}

func (e *TransportUnavailable) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the API answered 2xx with a body that does not decode.
// The request itself went through; Body holds what was received.
type DecodeError struct {
	Op   string
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RawJSON returns body unchanged when it is valid JSON, otherwise body encoded as a JSON string.
func RawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

// IsFailure reports whether err is a RequestFailed or TransportUnavailable.
func IsFailure(err error) bool {
	var rf *RequestFailed
	var tu *TransportUnavailable
	return errors.As(err, &rf) || errors.As(err, &tu)
}

// StatusOf returns the HTTP status carried by a RequestFailed, or 0.
func StatusOf(err error) int {
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

// request starts a request carrying the session's bearer token, if any.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	req := c.rc.R().SetContext(ctx)

	if c.sess != nil {
		token, err := c.sess.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read auth token: %w", err)
		}
		if token != "" {
			req.SetAuthToken(token)
		}
	}

	return req, nil
}

// execute sends req and decodes a JSON body into out (when out is non-nil).
// It returns the raw body so callers can keep the original response shape.
func execute(op string, req *resty.Request, method, path string, out any) ([]byte, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, &TransportUnavailable{Op: op, Err: err}
	}

	if !res.IsSuccess() {
		return nil, &RequestFailed{Op: op, Status: res.StatusCode(), Body: res.String()}
	}

	body := res.Body()
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return body, &DecodeError{Op: op, Body: body, Err: err}
		}
	}

	return body, nil
}

// call is request + execute for the common case.
func (c *Client) call(ctx context.Context, op, method, path string, body any, out any) ([]byte, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	return execute(op, req, method, path, out)
}
