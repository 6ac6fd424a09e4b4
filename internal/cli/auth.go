package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/internal/middleware"
)

func newTokenCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue JWT bearer tokens",
	}

	var (
		subject string
		ttl     time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a user id with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.setup(os.Stderr)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpiryDuration
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, cfg.JWTIssuer, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "user id the token authenticates")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_EXPIRY_DURATION)")
	_ = issue.MarkFlagRequired("subject")

	cmd.AddCommand(issue)
	return cmd
}

func newAPIKeyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Create API keys for service callers",
	}

	var secret string
	hash := &cobra.Command{
		Use:   "hash <subject>",
		Short: "Generate (or hash) a key and print the API_KEY_HASHES entry",
		Long: `Print the X-API-Key header value for subject and the entry to append to
API_KEY_HASHES. A random secret is generated unless --secret is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := args[0]
			if strings.ContainsAny(subject, ":=,") {
				return fmt.Errorf("subject must not contain ':', '=' or ','")
			}
			if secret == "" {
				secret = strings.ReplaceAll(uuid.NewString(), "-", "")
			}
			hashed, err := middleware.HashAPIKey(secret)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, map[string]string{
					"header":         subject + ":" + secret,
					"api_key_hashes": subject + "=" + hashed,
				})
			}
			fmt.Fprintf(out, "%s: %s:%s\n", middleware.APIKeyHeader, subject, secret)
			fmt.Fprintf(out, "API_KEY_HASHES entry: %s=%s\n", subject, hashed)
			return nil
		},
	}
	hash.Flags().StringVar(&secret, "secret", "", "use this secret instead of a random one")

	cmd.AddCommand(hash)
	return cmd
}
