// Package client forwards gateway calls to one entity service and returns
// the downstream status and body untouched.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/north-crm/infrastructure/circuitbreaker"
	infracontext "github.com/jonesrussell/north-crm/infrastructure/context"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-crm/infrastructure/http"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

// ErrUnavailable is returned when the downstream service could not be
// reached: dial failure, timeout, cancelled request or open circuit.
var ErrUnavailable = errors.New("downstream service unavailable")

// ErrResponseTooLarge is returned instead of a cut-off success body.
var ErrResponseTooLarge = errors.New("downstream response too large")

// MaxResponseBytes caps a downstream success body.
const MaxResponseBytes = 10 << 20

// Operation names used for metrics and errors.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Payload is a JSON document passed through the gateway without being
// decoded or validated.
type Payload []byte

// Response is a successful downstream response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        Payload
}

// Options configures a Client.
type Options struct {
	Resource string
	BaseURL  string

	// HTTPClient defaults to infrastructure/http.NewClient with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	Breaker circuitbreaker.Config
	Metrics *metrics.Metrics
	Logger  infralogger.Logger
}

// Client calls {BaseURL}/{Resource}[/{id}].
type Client struct {
	resource string
	endpoint string
	http     *http.Client
	breaker  *circuitbreaker.Breaker
	metrics  *metrics.Metrics
	log      infralogger.Logger
}

// New creates a client for one resource.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = infralogger.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: opts.Timeout})
	}

	c := &Client{
		resource: opts.Resource,
		endpoint: strings.TrimRight(opts.BaseURL, "/") + "/" + opts.Resource,
		http:     httpClient,
		metrics:  opts.Metrics,
		log:      log.With(infralogger.String("resource", opts.Resource)),
	}

	breakerCfg := opts.Breaker
	breakerCfg.IsFailure = func(err error) bool { return errors.Is(err, ErrUnavailable) }
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		c.log.Warn("Downstream circuit state changed",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()),
		)
		c.metrics.SetCircuitOpen(c.resource, to == circuitbreaker.StateOpen)
	}
	c.breaker = circuitbreaker.New(breakerCfg)

	return c
}

// Resource returns the resource name this client serves.
func (c *Client) Resource() string {
	return c.resource
}

// List forwards GET /{resource} with query.
func (c *Client) List(ctx context.Context, query url.Values) (*Response, error) {
	return c.do(ctx, OpList, http.MethodGet, c.endpoint, query, nil)
}

// Get forwards GET /{resource}/{id}.
func (c *Client) Get(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, OpGet, http.MethodGet, c.itemURL(id), nil, nil)
}

// Create forwards POST /{resource}.
func (c *Client) Create(ctx context.Context, body Payload) (*Response, error) {
	return c.do(ctx, OpCreate, http.MethodPost, c.endpoint, nil, body)
}

// Update forwards PUT /{resource}/{id}.
func (c *Client) Update(ctx context.Context, id string, body Payload) (*Response, error) {
	return c.do(ctx, OpUpdate, http.MethodPut, c.itemURL(id), nil, body)
}

// Delete forwards DELETE /{resource}/{id}.
func (c *Client) Delete(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) itemURL(id string) string {
	return c.endpoint + "/" + url.PathEscape(id)
}

// do issues exactly one request. Non-2xx responses come back as
// *errors.HTTPError carrying the raw body; transport failures wrap
// ErrUnavailable.
func (c *Client) do(ctx context.Context, op, method, target string, query url.Values, body Payload) (*Response, error) {
	start := time.Now()

	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", c.resource, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := infracontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	var result *Response
	err = c.breaker.Execute(ctx, func() error {
		var callErr error
		result, callErr = c.send(req)
		return callErr
	})

	outcome := outcomeOf(err)
	c.metrics.ObserveDownstream(c.resource, op, outcome, time.Since(start))

	if err != nil {
		if !errors.Is(err, ErrUnavailable) && (errors.Is(err, circuitbreaker.ErrCircuitOpen) || ctx.Err() != nil) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%s %s: %w", c.resource, op, err)
	}

	return result, nil
}

func (c *Client) send(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	data, err := infrahttp.ReadBody(resp.Body, MaxResponseBytes)
	if errors.Is(err, infrahttp.ErrBodyTooLarge) {
		return nil, fmt.Errorf("%w: %w", ErrResponseTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrResponseTooLarge):
		return "too_large"
	case infraerrors.IsClientError(err):
		return "client_error"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		if _, ok := infraerrors.AsHTTPError(err); ok {
			return "server_error"
		}
		return "unavailable"
	}
}
