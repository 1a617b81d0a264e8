package main

import (
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
)

// NewRolesCmd creates the roles subcommand group.
func NewRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage account roles",
	}
	cmd.AddCommand(newRolesGrantCmd())
	return cmd
}

func newRolesGrantCmd() *cobra.Command {
	var username, roleName string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a role to an existing account",
		Long: `Grant one of the baseline roles (` + strings.Join(role.Baseline, ", ") + `) to an
existing account. This is how the first administrator is created.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !role.IsBaseline(roleName) {
				return oops.Code("INVALID_ARGUMENT").
					With("role", roleName).
					Errorf("role must be one of %s", strings.Join(role.Baseline, ", "))
			}
			return runRolesGrant(cmd, username, roleName)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&roleName, "role", role.Admin, "role to grant")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func runRolesGrant(cmd *cobra.Command, username, roleName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sugar, sync, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer sync()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, _, err := newUserService(cfg, db, sugar)
	if err != nil {
		return err
	}
	if err := svc.GrantRole(cmd.Context(), username, roleName); err != nil {
		return oops.Code("ROLE_GRANT_FAILED").
			With("username", username).
			With("role", roleName).
			Wrap(err)
	}
	cmd.Printf("Granted %s to %s\n", roleName, username)
	return nil
}
