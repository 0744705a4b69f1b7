package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jonesrussell/north-crm/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps stray .env files and config.yml out of the command.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "absent.env"))
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "absent.yml"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TOKEN_TTL", "")
}

func lifetime(t *testing.T, token, secret string) time.Duration {
	t.Helper()

	claims := &jwtlib.RegisteredClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	return claims.ExpiresAt.Sub(claims.IssuedAt.Time)
}

func TestTokenCommand_MintsValidToken(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	cmd := newCommand(&out)
	cmd.SetArgs([]string{"--subject", "ops", "--secret", "s3cret", "--ttl", "5m"})

	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	principal, err := jwt.NewManager("s3cret", time.Minute).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", principal.Subject)
	assert.Equal(t, 5*time.Minute, lifetime(t, token, "s3cret"))
}

func TestTokenCommand_DefaultsFromGatewayConfig(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "from-env")

	var out bytes.Buffer
	cmd := newCommand(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	_, err := jwt.NewManager("from-env", time.Minute).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, lifetime(t, token, "from-env"))
}

func TestTokenCommand_TTLFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_TOKEN_TTL", "2h")

	var out bytes.Buffer
	cmd := newCommand(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 2*time.Hour, lifetime(t, strings.TrimSpace(out.String()), "from-env"))
}

func TestTokenCommand_Errors(t *testing.T) {
	isolate(t)

	cmd := newCommand(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorIs(t, cmd.Execute(), errMissingSecret)

	cmd = newCommand(&bytes.Buffer{})
	cmd.SetArgs([]string{"--secret", "x", "--ttl=-1m"})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
