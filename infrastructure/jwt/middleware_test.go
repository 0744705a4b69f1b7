package jwt_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	"github.com/jonesrussell/north-crm/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-32-chars-minimum"

func newGuardedRouter(t *testing.T, calls *int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/users", jwt.Middleware(testSecret), func(c *gin.Context) {
		*calls++
		p, ok := jwt.GetPrincipal(c)
		require.True(t, ok)
		fromCtx, ok := jwt.PrincipalFromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sub": p.Subject, "ctx_sub": fromCtx.Subject})
	})
	return router
}

func signed(t *testing.T, method gojwt.SigningMethod, key any, claims gojwt.Claims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestMiddleware_AcceptsValidToken(t *testing.T) {
	t.Helper()

	calls := 0
	router := newGuardedRouter(t, &calls)

	token, err := jwt.NewManager(testSecret, time.Hour).GenerateToken("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"alice","ctx_sub":"alice"}`, w.Body.String())
	assert.Equal(t, 1, calls)
}

func TestMiddleware_Rejects(t *testing.T) {
	t.Helper()

	now := time.Now()
	expired := signed(t, gojwt.SigningMethodHS256, []byte(testSecret), gojwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: gojwt.NewNumericDate(now.Add(-time.Minute)),
	})
	noExpiry := signed(t, gojwt.SigningMethodHS256, []byte(testSecret), gojwt.RegisteredClaims{Subject: "alice"})
	wrongSecret := signed(t, gojwt.SigningMethodHS256, []byte("another-secret"), gojwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
	})
	wrongAlg := signed(t, gojwt.SigningMethodHS512, []byte(testSecret), gojwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired", "Bearer " + expired},
		{"no exp claim", "Bearer " + noExpiry},
		{"wrong secret", "Bearer " + wrongSecret},
		{"wrong algorithm", "Bearer " + wrongAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			router := newGuardedRouter(t, &calls)

			req := httptest.NewRequest(http.MethodGet, "/users", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if calls != 0 {
				t.Errorf("handler ran %d times, want 0", calls)
			}

			var resp infraerrors.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Unauthorized", resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestManager_ValidateToken(t *testing.T) {
	t.Helper()

	mgr := jwt.NewManager(testSecret, time.Hour)
	token, err := mgr.GenerateToken("dashboard")
	require.NoError(t, err)

	p, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", p.Subject)

	_, err = jwt.NewManager("different", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
