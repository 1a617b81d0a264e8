package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the movies API binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies-api",
		Short: "Movie catalog API with account registration and login",
		Long: `movies-api serves the movie catalog over HTTP and manages user
accounts, roles and signed session tokens.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewRolesCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}
