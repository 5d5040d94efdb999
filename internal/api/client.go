// Package api is the typed client for the marketplace backend.
//
// Every call states its authorization explicitly: endpoints that need a
// session take an Auth value, public reads take none and never send a
// bearer header.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const DefaultBaseURL = "http://localhost:8080"

// Auth is the per-call authorization. The zero value is anonymous.
type Auth struct {
	token string
}

// Anonymous sends no Authorization header.
var Anonymous = Auth{}

// Bearer authorizes a call with the given access token.
func Bearer(token string) Auth {
	return Auth{token: strings.TrimSpace(token)}
}

func (a Auth) Token() string { return a.token }

func (a Auth) IsZero() bool { return a.token == "" }

type Options struct {
	BaseURL string
	// Timeout bounds a single request. Zero leaves the transport default.
	Timeout time.Duration
	// Transport overrides the HTTP round tripper, mostly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
	// OnResponse observes every completed round trip.
	OnResponse func(method string, status int)
}

type Client struct {
	http *resty.Client
	log  *slog.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	if opts.OnResponse != nil {
		observe := opts.OnResponse
		rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			observe(resp.Request.Method, resp.StatusCode())
			return nil
		})
	}
	return &Client{http: rc, log: opts.Logger}
}

// call describes one backend request.
type call struct {
	method string
	path   string
	// auth is nil for public endpoints.
	auth  *Auth
	query url.Values
	body  any
}

func public(method, path string) call {
	return call{method: method, path: path}
}

func private(method, path string, auth Auth) call {
	return call{method: method, path: path, auth: &auth}
}

func (cl call) withQuery(q url.Values) call {
	cl.query = q
	return cl
}

func (cl call) withBody(b any) call {
	cl.body = b
	return cl
}

func (c *Client) send(ctx context.Context, cl call, out any) error {
	if cl.auth != nil && cl.auth.IsZero() {
		return ErrUnauthenticated
	}

	reqID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)
	if cl.auth != nil {
		req.SetAuthToken(cl.auth.Token())
	}
	if len(cl.query) > 0 {
		req.SetQueryParamsFromValues(cl.query)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	if resp.IsError() {
		apiErr := newError(resp.StatusCode(), resp.Body())
		c.log.Debug("backend request failed",
			"method", cl.method, "path", cl.path, "status", apiErr.Status, "request_id", reqID)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return decode(resp.Body(), out)
}

var validate = validator.New()

// Validate checks v against its validate tags. It is shared with callers that
// build request forms.
func Validate(v any) error {
	return validate.Struct(v)
}

func decode(body []byte, out any) error {
	typeName := reflect.TypeOf(out).Elem().String()
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Type: typeName, Err: err}
	}
	if err := check(out); err != nil {
		return &DecodeError{Type: typeName, Err: err}
	}
	return nil
}

// check validates a decoded struct or every struct element of a decoded slice.
func check(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return validate.Struct(v.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := validate.Struct(elem.Addr().Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
