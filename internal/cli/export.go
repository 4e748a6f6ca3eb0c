package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daqd/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Write a decoded table to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path := out
			if path == "" {
				path = filepath.Join(a.config.DataDir, name+".jsonl")
			}

			// Exporting reads an existing database and never wipes it.
			cfg := a.config
			cfg.FreshDB = false
			backend := sqlite.NewBackend()
			if err := backend.Attach(cfg); err != nil {
				return sysError(fmt.Errorf("attach %s: %w", cfg.DBPath, err))
			}
			defer backend.Detach()

			n, err := backend.ExportJSONL(cmd.Context(), name, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %s to %s\n", n, name, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <data-dir>/<table>.jsonl)")
	return cmd
}
