package main

import (
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"usergate/internal/jwttoken"
	"usergate/internal/platform/config"
)

// tokenCmd mints a bearer token with the configured secret, issuer and
// audience so the API can be exercised locally.
func tokenCmd() *cobra.Command {
	var (
		subject string
		email   string
		name    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return oops.In("main").Wrapf(err, "Failed to load configuration")
			}
			if err := cfg.Validate(); err != nil {
				return oops.In("main").Wrapf(err, "Invalid configuration")
			}

			svc := jwttoken.NewJWTService(cfg.JWT.AlgorithmSecret, cfg.JWT.Issuer, cfg.JWT.Audience)
			var opts []jwttoken.TokenOption
			if email != "" {
				opts = append(opts, jwttoken.WithEmail(email))
			}
			if name != "" {
				opts = append(opts, jwttoken.WithName(name))
			}
			token, err := svc.GenerateAccessToken(subject, ttl, opts...)
			if err != nil {
				return oops.In("main").Wrapf(err, "Failed to sign token")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "local-user", "sub claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
