// Package restclient is the JSON-over-HTTP helper shared by the REST
// adapters. Failures are returned as *providers.Error so adapters can turn
// them into failed TranscriptResponses without further mapping.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agnivade/voicerouter/providers"
)

// Client sends requests to one provider API.
type Client struct {
	provider providers.Name
	baseURL  string
	header   http.Header
	http     *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader sets a header sent with every request, typically authentication.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client rooted at baseURL. A zero timeout means
// providers.DefaultHTTPTimeout.
func New(provider providers.Name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = providers.DefaultHTTPTimeout
	}
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   make(http.Header),
		http:     &http.Client{Timeout: timeout},
		log:      log.With().Str("component", "restclient").Str("provider", string(provider)).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON is marshaled as the body when Body is nil.
	JSON any
	// Body is sent verbatim with ContentType.
	Body        io.Reader
	ContentType string
	// External allows an absolute Path on another host, such as a signed
	// download link. The client's headers are not sent with it.
	External bool
}

// Response is a decoded response. Raw holds the body verbatim.
type Response[T any] struct {
	StatusCode int
	Header     http.Header
	Data       T
	Raw        json.RawMessage
}

// Get performs a GET and decodes the JSON body into T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (*Response[T], error) {
	return Do[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Response[T], error) {
	return Do[T](ctx, c, Request{Method: http.MethodPost, Path: path, JSON: body})
}

// Delete performs a DELETE. Any response body is ignored.
func Delete(ctx context.Context, c *Client, path string) error {
	_, err := c.send(ctx, Request{Method: http.MethodDelete, Path: path})
	return err
}

// Do performs req and decodes the JSON body into T.
func Do[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{StatusCode: resp.status, Header: resp.header, Raw: resp.body}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &out.Data); err != nil {
			return nil, &providers.Error{
				Kind:       providers.ErrProvider,
				Code:       providers.CodeParseError,
				Message:    fmt.Sprintf("decode %s %s response", req.Method, req.Path),
				StatusCode: resp.status,
				Provider:   c.provider,
				Details:    string(resp.body),
				Err:        err,
			}
		}
	}
	return out, nil
}

// Download fetches a binary resource.
func Download(ctx context.Context, c *Client, path string) (data []byte, contentType string, err error) {
	resp, err := c.send(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, "", err
	}
	return resp.body, resp.header.Get("Content-Type"), nil
}

// resolve joins a relative path to the base URL. Absolute URLs, such as
// pagination links, must point at the API's own scheme and host unless the
// request is External.
func (c *Client) resolve(r Request) (string, error) {
	if !strings.HasPrefix(r.Path, "http://") && !strings.HasPrefix(r.Path, "https://") {
		return c.baseURL + "/" + strings.TrimLeft(r.Path, "/"), nil
	}
	if r.External {
		return r.Path, nil
	}

	target, err := url.Parse(r.Path)
	if err != nil {
		return "", providers.NewInputError(c.provider, fmt.Sprintf("invalid url: %v", err))
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", providers.NewConfigError(c.provider, fmt.Sprintf("invalid base url: %v", err))
	}
	if !strings.EqualFold(target.Scheme, base.Scheme) || !strings.EqualFold(target.Host, base.Host) {
		return "", providers.NewInputError(c.provider, fmt.Sprintf("url host %q does not belong to the %s api", target.Host, c.provider))
	}
	return r.Path, nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) send(ctx context.Context, r Request) (*rawResponse, error) {
	target, err := c.resolve(r)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	body := r.Body
	contentType := r.ContentType
	if body == nil && r.JSON != nil {
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, providers.NewInputError(c.provider, fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, providers.NewInputError(c.provider, err.Error())
	}
	if !r.External {
		for k, v := range c.header {
			req.Header[k] = v
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", r.Method).Str("path", r.Path).Msg("request failed")
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(err)
	}

	c.log.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("provider request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp.StatusCode, data)
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (c *Client) transportError(err error) *providers.Error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		e := providers.NewTimeoutError(c.provider, providers.CodeConnectionTimeout, "provider request timed out")
		e.Err = err
		return e
	}
	return &providers.Error{
		Kind:     providers.ErrTransport,
		Code:     providers.CodeUnknownError,
		Message:  "provider request failed",
		Provider: c.provider,
		Err:      err,
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// statusError extracts the provider's message from an error body. The common
// shapes are {"error": "..."}, {"message": "..."} and {"error": {"message": "..."}}.
func (c *Client) statusError(status int, body []byte) *providers.Error {
	msg := http.StatusText(status)
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		msg = firstMessage(payload, msg)
	}

	e := providers.NewProviderError(c.provider, providers.CodeTranscriptionError, msg, status)
	if status == http.StatusNotFound {
		e.Code = providers.CodeNoResults
	}
	if len(body) > 0 {
		e.Details = json.RawMessage(body)
		if !json.Valid(body) {
			e.Details = string(body)
		}
	}
	return e
}

func firstMessage(payload map[string]any, fallback string) string {
	for _, key := range []string{"error", "message", "err_msg", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	return fallback
}
