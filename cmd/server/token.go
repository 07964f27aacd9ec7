package main

import (
	"time"

	"github.com/spf13/cobra"

	jwttoken "idvmgt/internal/jwt_token"
)

// tokenCmd issues a management API token signed with the configured key.
func tokenCmd() *cobra.Command {
	var (
		subject  string
		tenantID int
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the management API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
			token, err := svc.IssueToken(subject, tenantID, ttl)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "actor recorded on audit events")
	cmd.Flags().IntVar(&tenantID, "tenant", -1234, "tenant the token is scoped to")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
