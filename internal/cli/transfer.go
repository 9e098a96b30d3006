package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entities/pkg/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <list> <path>",
		Short: "Write a list to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, path := args[0], args[1]
			return a.withStore(func(store *sqlite.Backend) error {
				n, err := store.ExportList(cmd.Context(), list, path)
				if err != nil {
					return fmt.Errorf("export %q: %w", list, err)
				}
				return reportTransfer(cmd, a, "exported", list, path, n)
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <list> <path>",
		Short: "Save the entities of a JSONL file to a list",
		Long: `Import reads one JSON entity per line and saves them to the list as a
single batch. Blank lines and lines that are not valid entities are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, path := args[0], args[1]
			return a.withStore(func(store *sqlite.Backend) error {
				n, err := store.ImportList(cmd.Context(), list, path)
				if err != nil {
					return fmt.Errorf("import %q: %w", list, err)
				}
				return reportTransfer(cmd, a, "imported", list, path, n)
			})
		},
	}
}

func reportTransfer(cmd *cobra.Command, a *app, verb, list, path string, n int) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"list": list, "path": path, verb: n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entit%s %s (%s, %s)\n", n, plural(n), verb, list, path)
	return nil
}
