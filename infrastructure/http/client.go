// Package http provides the outbound HTTP client factory shared by the
// gateway's downstream clients and health probes.
package http

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrBodyTooLarge is returned by ReadBody when the body exceeds its limit.
var ErrBodyTooLarge = errors.New("response body too large")

const (
	// DefaultTimeout bounds a whole downstream request, body included.
	DefaultTimeout = 10 * time.Second

	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultDialTimeout         = 5 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// ClientConfig configures an HTTP client. Zero values fall back to defaults.
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration

	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
}

func (c *ClientConfig) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}
}

// NewClient creates an *http.Client with the configured timeouts.
// If cfg is nil, default values are used.
func NewClient(cfg *ClientConfig) *http.Client {
	c := ClientConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()

	transport := c.Transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.DialContext = (&net.Dialer{
			Timeout:   c.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		base.MaxIdleConns = c.MaxIdleConns
		base.MaxIdleConnsPerHost = c.MaxIdleConnsPerHost
		base.IdleConnTimeout = c.IdleConnTimeout
		base.TLSHandshakeTimeout = c.TLSHandshakeTimeout
		base.ResponseHeaderTimeout = c.Timeout
		transport = base
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

// ReadBody reads all of r, failing with ErrBodyTooLarge rather than returning
// a cut-off body when it holds more than limit bytes.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}
