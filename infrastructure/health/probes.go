package health

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Execer is satisfied by *sql.DB and *sqlx.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DatabaseProbe runs SELECT 1 through the pool.
func DatabaseProbe(db Execer) ProbeFunc {
	return func(ctx context.Context) error {
		if _, err := db.ExecContext(ctx, "SELECT 1"); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		return nil
	}
}

// HTTPProbe issues GET url and succeeds on any 2xx response.
func HTTPProbe(client *http.Client, url string) ProbeFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("unreachable: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("unexpected status %s", strings.TrimSpace(resp.Status))
		}
		return nil
	}
}
