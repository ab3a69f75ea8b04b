package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 5 * time.Second
	tracerName     = "finitefield.org/site-web/internal/cms"
	maxErrorBody   = 4 << 10
)

// Client issues GraphQL queries against a CMS endpoint.
type Client struct {
	endpoint   string
	namespaced bool
	http       *http.Client
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithBuildNamespace makes Page use the build-time document, which nests the
// page field under cmsApi.
func WithBuildNamespace() Option {
	return func(c *Client) {
		c.namespaced = true
	}
}

// NewClient constructs a Client for the given GraphQL endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: defaultTimeout},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint, or "" when unset.
func (c *Client) Endpoint() string {
	if c == nil {
		return ""
	}
	return c.endpoint
}

// Response mirrors the {error, data} result of a GraphQL call.
type Response struct {
	Error error
	Data  *Payload
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type pageData struct {
	Page   *Properties `json:"page"`
	CMSAPI *struct {
		Page *Properties `json:"page"`
	} `json:"cmsApi"`
}

// Call posts query with vars and decodes the page payload. Failures are
// reported through Response.Error rather than a second return value.
func (c *Client) Call(ctx context.Context, query string, vars map[string]any) Response {
	if c == nil || c.endpoint == "" {
		return Response{Error: ErrNoEndpoint}
	}
	ctx, span := c.tracer.Start(ctx, "cms.call", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	if locale, ok := vars["locale"].(string); ok {
		span.SetAttributes(attribute.String("cms.locale", locale))
	}

	resp := c.call(ctx, query, vars)
	if resp.Error != nil {
		span.RecordError(resp.Error)
		span.SetStatus(codes.Error, resp.Error.Error())
	}
	return resp
}

func (c *Client) call(ctx context.Context, query string, vars map[string]any) Response {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return Response{Error: fmt.Errorf("cms: encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{Error: fmt.Errorf("cms: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return Response{Error: fmt.Errorf("cms: request: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return Response{Error: ErrNotFound}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
		return Response{Error: &StatusError{Status: res.StatusCode}}
	}

	var env graphqlEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return Response{Error: fmt.Errorf("cms: decode response: %w", err)}
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return Response{Error: &QueryError{Messages: msgs}}
	}
	payload, err := decodePage(env.Data)
	if err != nil {
		return Response{Error: err}
	}
	return Response{Data: &payload}
}

func decodePage(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, ErrNotFound
	}
	var data pageData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return Payload{}, fmt.Errorf("cms: decode data: %w", err)
	}
	switch {
	case data.Page != nil:
		return Payload{Page: *data.Page}, nil
	case data.CMSAPI != nil && data.CMSAPI.Page != nil:
		return Payload{Page: *data.CMSAPI.Page}, nil
	default:
		return Payload{}, ErrNotFound
	}
}

// Page requests the properties of a content block for locale.
func (c *Client) Page(ctx context.Context, content, locale string) (Payload, error) {
	query := LiveQuery(content)
	if c != nil && c.namespaced {
		query = BuildQuery(content)
	}
	resp := c.Call(ctx, query, map[string]any{"locale": locale})
	if resp.Error != nil {
		return Payload{}, resp.Error
	}
	return *resp.Data, nil
}
