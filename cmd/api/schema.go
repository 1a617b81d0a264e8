package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/docs"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print JSON schemas for the API request and response bodies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := docs.Marshal()
			if err != nil {
				return oops.Code("SCHEMA_FAILED").Wrap(err)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(b, '\n'))
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return oops.Code("SCHEMA_FAILED").With("path", out).Wrap(err)
			}
			cmd.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}
