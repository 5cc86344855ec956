// Package frappe is the HTTP client for the Frappe backend: generic document
// CRUD, whitelisted methods, schema loading, search and session calls.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"kairos-gateway/internal/config"
	"kairos-gateway/internal/instrument"
)

// SessionCookie is the backend's session cookie name.
const SessionCookie = "sid"

type sessionKey struct{}

// WithSession attaches the caller's backend session id to ctx. Every call
// made with that ctx carries it as the sid cookie.
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// SessionFrom returns the session id attached to ctx, or "".
func SessionFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// Client talks to one Frappe site.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger.Named("Frappe"),
	}
}

// BaseURL returns the backend site URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope covers both response shapes: resources answer in data, methods
// in message.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

// do sends a request and decodes the payload field of the response into out.
// body is JSON-encoded unless it is an io.Reader.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	resp, err := c.send(ctx, method, path, query, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, contentType string) (*http.Response, error) {
	op := method + " " + path
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "frappe", "client", op)
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			span.SetStatus("error")
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		span.SetStatus("error")
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sid := SessionFrom(ctx); sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	}
	if traceID := instrument.TraceIDFrom(ctx); traceID != "" {
		req.Header.Set(instrument.TraceHeader, traceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus("error")
		span.SetMetadata("error", err.Error())
		te := NewTransportError(op, err)
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Bool("timeout", te.Timeout), zap.Error(err))
		return nil, te
	}
	span.SetMetadata("status_code", resp.StatusCode)
	if resp.StatusCode >= 400 {
		span.SetStatus("error")
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	payload := env.Data
	if len(payload) == 0 || string(payload) == "null" {
		payload = env.Message
	}
	if len(payload) == 0 {
		// Some methods answer with a bare object (getdoctype's docs).
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}

// Call invokes a whitelisted method by dotted path and decodes its message.
func (c *Client) Call(ctx context.Context, method string, args url.Values, out any) error {
	return c.do(ctx, http.MethodGet, "/api/method/"+method, args, nil, out)
}

// Post invokes a whitelisted method with a JSON body.
func (c *Client) Post(ctx context.Context, method string, body any, out any) error {
	return c.do(ctx, http.MethodPost, "/api/method/"+method, nil, body, out)
}
