package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ginpkg "github.com/gin-gonic/gin"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	infragin "github.com/jonesrussell/north-crm/infrastructure/gin"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	"github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestServer(t *testing.T, configure func(b *infragin.ServerBuilder)) *ginpkg.Engine {
	t.Helper()

	b := infragin.NewServerBuilder("users", 3001).
		WithLogger(logger.NewNop()).
		WithVersion("1.2.3")
	if configure != nil {
		configure(b)
	}
	return b.Build().Router()
}

func TestServer_BasicHealth(t *testing.T) {
	router := buildTestServer(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var rec health.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, health.StatusOK, rec.Status)
	assert.Equal(t, "users", rec.Service)
	assert.Equal(t, "1.2.3", rec.Version)
	assert.False(t, rec.Timestamp.IsZero())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestServer_DetailedHealthDegradedStill200(t *testing.T) {
	router := buildTestServer(t, func(b *infragin.ServerBuilder) {
		b.WithHealth("database", func(context.Context) error { return errors.New("connection refused") }).
			WithEnvironment(health.Environment{Name: "test", DatabaseConfigured: true})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/detailed", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status    string `json:"status"`
			Connected bool   `json:"connected"`
		} `json:"dependencies"`
		Environment map[string]any `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "degraded", body.Dependencies["database"].Status)
	assert.False(t, body.Dependencies["database"].Connected)
	assert.Equal(t, true, body.Environment["database_configured"])
	assert.Equal(t, false, body.Environment["jwt_secret_configured"])
}

func TestServer_ProtectedDetailedHealth(t *testing.T) {
	router := buildTestServer(t, func(b *infragin.ServerBuilder) {
		b.WithProtectedDetailedHealth(func(c *ginpkg.Context) {
			infraerrors.Abort(c, http.StatusUnauthorized, "missing authorization header")
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/detailed", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_MetricsAndNotFound(t *testing.T) {
	m := metrics.New("crm_test")
	router := buildTestServer(t, func(b *infragin.ServerBuilder) {
		b.WithMetrics(m)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp infraerrors.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Cannot GET /nope", resp.Message)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `crm_test_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	port := freePort(t)
	srv := infragin.NewServerBuilder("users", port).
		WithLogger(logger.NewNop()).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test probe
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_ServeReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	srv := infragin.NewServerBuilder("users", ln.Addr().(*net.TCPAddr).Port).
		WithLogger(logger.NewNop()).
		Build()

	err = srv.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}
