// Package upstream talks to the remote storefront API: a set of PHP scripts
// that answer JSON, usually wrapped in {success, data, message}.
package upstream

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/pkg/kit"
)

var (
	ErrNotFound    = errors.New("upstream resource not found")
	ErrBadStatus   = errors.New("upstream bad status")
	ErrUnavailable = errors.New("upstream unavailable")
	ErrBadPayload  = errors.New("upstream bad payload")
)

// RejectedError is returned when the API answers success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "upstream rejected request"
	}
	return "upstream rejected request: " + e.Message
}

const (
	defaultTimeout = 5 * time.Second
	maxErrorBody   = 4 << 10
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Metrics *kit.Metrics

	tracer trace.Tracer
}

func NewClient(baseURL string, timeout time.Duration, m *kit.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Metrics: m,
		tracer:  otel.Tracer("storefront/upstream"),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Call sends body (if any) as JSON to endpoint and decodes the envelope's
// data into out (if non-nil).
func (c *Client) Call(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	var env envelope
	if err := c.Do(ctx, method, endpoint, query, body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &RejectedError{Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, endpoint, err)
	}
	return nil
}

// Do performs a raw JSON exchange without unwrapping an envelope.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "upstream "+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("http.method", method), attribute.String("upstream.endpoint", endpoint))

	start := time.Now()
	defer func() {
		c.Metrics.ObserveUpstream(endpoint, outcome(err), time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: status=%d body=%q", ErrBadStatus, endpoint, resp.StatusCode, snippet)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, endpoint, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	u := c.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Ping checks that the API host answers at all.
func (c *Client) Ping(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, nil, nil)
}

func outcome(err error) string {
	var rej *RejectedError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.As(err, &rej):
		return "rejected"
	default:
		return "error"
	}
}
