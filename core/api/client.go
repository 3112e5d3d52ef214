package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

var (
	// ErrUnauthorized is returned for any HTTP 401; callers must drop their token.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx backend response, reshaped from its `{message, errors}` body.
type Error struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// FieldErrors returns the first message of each field error.
func (e *Error) FieldErrors() map[string]string {
	flds := make(map[string]string, len(e.Errors))
	for field, msgs := range e.Errors {
		if len(msgs) > 0 {
			flds[field] = msgs[0]
		}
	}
	return flds
}

// AsError unwraps a backend Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is (or wraps) ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Client talks to the gym backend REST API.
type Client struct {
	baseURL string
	rest    *rest.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

// NewClientWithHTTP is used by tests to inject their own http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: hc},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	method rest.Method
	path   string
	token  string
	query  map[string]string
	body   interface{}
}

func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.baseURL + cl.path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: cl.query,
	}
	if cl.token != "" {
		req.Headers["Authorization"] = "Bearer " + cl.token
	}
	if cl.body != nil {
		body, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", cl.method, cl.path)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode >= http.StatusBadRequest:
		return errors.Wrapf(decodeError(res.StatusCode, res.Body), "%s %s", cl.method, cl.path)
	}

	if out == nil || res.StatusCode == http.StatusNoContent || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	return errors.Wrapf(unwrap([]byte(res.Body), out), "decoding %s %s", cl.method, cl.path)
}

func decodeError(status int, body string) *Error {
	apiErr := &Error{Status: status}
	var payload struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		apiErr.Errors = payload.Errors
	}
	if status == http.StatusNotFound && apiErr.Message == "" {
		apiErr.Message = ErrNotFound.Error()
	}
	return apiErr
}

// unwrap decodes `{status, data}` envelopes, falling back to the bare body
// when there is no (or a null) `data` member.
func unwrap(body []byte, out interface{}) error {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		if data, ok := envelope["data"]; ok && !isNull(data) {
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(body, out)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func (c *Client) get(ctx context.Context, token, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, call{method: rest.Get, path: path, token: token, query: query}, out)
}

func (c *Client) post(ctx context.Context, token, path string, body, out interface{}) error {
	return c.do(ctx, call{method: rest.Post, path: path, token: token, body: body}, out)
}

func (c *Client) put(ctx context.Context, token, path string, body, out interface{}) error {
	return c.do(ctx, call{method: rest.Put, path: path, token: token, body: body}, out)
}

func (c *Client) delete(ctx context.Context, token, path string) error {
	return c.do(ctx, call{method: rest.Delete, path: path, token: token}, nil)
}

func pathID(prefix string, id int, suffix ...string) string {
	p := fmt.Sprintf("%s/%d", prefix, id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
