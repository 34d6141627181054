package main

import (
	"fmt"
	"time"

	"github.com/jekabolt/farmgoods-reports/config"
	"github.com/jekabolt/farmgoods-reports/internal/auth/jwt"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the reports API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("cannot load a config %v", err.Error())
			}
			if ttl == 0 {
				ttl = cfg.Auth.JWTTTL
			}
			tok, err := jwt.NewTokenWithSubject(jwt.New(&cfg.Auth), ttl, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator name recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, auth.jwt_ttl when zero")
	return cmd
}
