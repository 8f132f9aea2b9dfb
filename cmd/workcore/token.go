package main

import (
	"errors"
	"fmt"
	"workcore/internal/identity"
	"workcore/pkg/domain"

	"github.com/spf13/cobra"
)

func newTokenCmd(flags *rootFlags) *cobra.Command {
	var (
		user        string
		role        string
		permissions []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return errors.New("--user is required")
			}
			r := domain.SystemRole(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			tokens, err := identity.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(domain.Principal{ID: user, Role: r, Permissions: permissions})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to embed as the token subject")
	cmd.Flags().StringVar(&role, "role", string(domain.SystemRoleUser), "system role: guest, user, admin or superadmin")
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "extra permission grant, repeatable")
	return cmd
}
