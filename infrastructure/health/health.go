// Package health builds the basic and detailed health records every CRM
// service reports. Dependency probes are bounded by a timeout and a failing
// probe only degrades the record; it never fails the endpoint.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	infracontext "github.com/jonesrussell/north-crm/infrastructure/context"
	"github.com/jonesrussell/north-crm/infrastructure/monitoring"
	"golang.org/x/sync/errgroup"
)

// Status represents the health status reported in a Record.
type Status string

const (
	// StatusOK is reported by the basic endpoint.
	StatusOK Status = "ok"
	// StatusHealthy means every probe succeeded.
	StatusHealthy Status = "healthy"
	// StatusDegraded means at least one dependency probe failed.
	StatusDegraded Status = "degraded"
)

// Dependency is the reported state of one probed dependency.
type Dependency struct {
	Status     Status `json:"status"`
	Connected  bool   `json:"connected"`
	Configured bool   `json:"configured"`
	Latency    string `json:"latency,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Environment reports configuration presence. It never carries values.
type Environment struct {
	Name                string `json:"name"`
	JWTSecretConfigured bool   `json:"jwt_secret_configured"`
	DatabaseConfigured  bool   `json:"database_configured"`
}

// Record is the health response body.
type Record struct {
	Status       Status                `json:"status"`
	Timestamp    time.Time             `json:"timestamp"`
	Service      string                `json:"service"`
	Version      string                `json:"version"`
	Uptime       int64                 `json:"uptime"`
	Dependencies map[string]Dependency `json:"dependencies,omitempty"`
	Environment  *Environment          `json:"environment,omitempty"`
	Runtime      *monitoring.Runtime   `json:"runtime,omitempty"`
}

// ProbeFunc checks a dependency, returning nil when it is reachable.
type ProbeFunc func(ctx context.Context) error

// Probe is a named dependency check. A nil Check reports the dependency as
// not configured.
type Probe struct {
	Name  string
	Check ProbeFunc
}

// Options configures an Aggregator.
type Options struct {
	Service     string
	Version     string
	StartTime   time.Time
	Timeout     time.Duration
	Environment Environment
	Probes      []Probe
}

// Aggregator computes health records. It is safe for concurrent use.
type Aggregator struct {
	service string
	version string
	started time.Time
	timeout time.Duration
	env     Environment
	now     func() time.Time

	mu     sync.RWMutex
	probes []Probe
}

// NewAggregator creates an aggregator. A zero StartTime means now.
func NewAggregator(opts Options) *Aggregator {
	started := opts.StartTime
	if started.IsZero() {
		started = time.Now()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = infracontext.DefaultProbeTimeout
	}

	return &Aggregator{
		service: opts.Service,
		version: opts.Version,
		started: started,
		timeout: timeout,
		env:     opts.Environment,
		now:     time.Now,
		probes:  append([]Probe(nil), opts.Probes...),
	}
}

// Register adds a probe.
func (a *Aggregator) Register(p Probe) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes = append(a.probes, p)
}

// Basic returns the O(1) record; it performs no external calls.
func (a *Aggregator) Basic() Record {
	now := a.now()
	return Record{
		Status:    StatusOK,
		Timestamp: now.UTC(),
		Service:   a.service,
		Version:   a.version,
		Uptime:    int64(now.Sub(a.started).Seconds()),
	}
}

// Detailed runs every probe concurrently and reports dependencies and
// environment. The overall status is degraded if any probe failed.
func (a *Aggregator) Detailed(ctx context.Context) Record {
	a.mu.RLock()
	probes := append([]Probe(nil), a.probes...)
	a.mu.RUnlock()

	results := make([]Dependency, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			results[i] = a.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	record := a.Basic()
	record.Status = StatusHealthy
	record.Dependencies = make(map[string]Dependency, len(probes))
	for i, p := range probes {
		record.Dependencies[p.Name] = results[i]
		if results[i].Status != StatusHealthy {
			record.Status = StatusDegraded
		}
	}
	env := a.env
	record.Environment = &env
	rt := monitoring.Snapshot()
	record.Runtime = &rt

	return record
}

func (a *Aggregator) run(ctx context.Context, p Probe) (dep Dependency) {
	if p.Check == nil {
		return Dependency{Status: StatusDegraded, Message: "not configured"}
	}

	probeCtx, cancel := infracontext.WithProbeTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			dep = Dependency{
				Status:     StatusDegraded,
				Configured: true,
				Latency:    time.Since(start).String(),
				Message:    fmt.Sprintf("probe panicked: %v", r),
			}
		}
	}()

	err := p.Check(probeCtx)
	latency := time.Since(start).String()
	if err != nil {
		return Dependency{
			Status:     StatusDegraded,
			Configured: true,
			Latency:    latency,
			Message:    err.Error(),
		}
	}

	return Dependency{
		Status:     StatusHealthy,
		Connected:  true,
		Configured: true,
		Latency:    latency,
	}
}
