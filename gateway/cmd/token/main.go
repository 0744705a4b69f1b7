// Command token mints bearer tokens accepted by the gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonesrussell/north-crm/gateway/internal/config"
	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	"github.com/jonesrussell/north-crm/infrastructure/jwt"
	"github.com/spf13/cobra"
)

var errMissingSecret = errors.New("signing secret required: pass --secret or set JWT_SECRET")

func main() {
	if err := newCommand(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cobra.Command {
	var (
		configPath string
		subject    string
		secret     string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the gateway",
		Long: `Signs an HS256 token for --subject and prints it. The secret and
lifetime default to the gateway's auth.jwt_secret and auth.token_ttl
(JWT_SECRET, JWT_TOKEN_TTL).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("secret") {
				secret = cfg.Auth.JWTSecret
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.Auth.TokenTTL
			}

			if secret == "" {
				return errMissingSecret
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			token, err := jwt.NewManager(secret, ttl).GenerateToken(subject)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", infraconfig.GetConfigPath("config.yml"), "gateway config file")
	cmd.Flags().StringVar(&subject, "subject", "admin", "subject (sub claim) of the token")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default auth.jwt_secret)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")

	return cmd
}
