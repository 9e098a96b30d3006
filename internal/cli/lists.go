package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entities/pkg/sqlite"
)

func newListsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show all known lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				lists, err := store.GetLists(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return writeJSON(out, lists)
				}
				if len(lists) == 0 {
					fmt.Fprintln(out, "No lists found.")
					return nil
				}
				for _, name := range lists {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}

func newAddListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-list <list>",
		Short: "Register an empty list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := args[0]
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.AddList(cmd.Context(), list); err != nil {
					return fmt.Errorf("add list %q: %w", list, err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"list": list})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "List %q ready\n", list)
				return nil
			})
		},
	}
}

func newHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <list> [value]",
		Short: "Show or record the content hash of a list",
		Long: `With one argument, hash prints the content hash recorded for the list.
With two, it records value as the list's hash. Unknown lists are ignored.

Example:
  entities hash birds
  entities hash birds 5d41402abc4b2a76`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := args[0]
			return a.withStore(func(store *sqlite.Backend) error {
				out := cmd.OutOrStdout()
				if len(args) == 2 {
					if err := store.UpdateListHash(cmd.Context(), list, args[1]); err != nil {
						return fmt.Errorf("update hash of %q: %w", list, err)
					}
					if a.flags.jsonMode {
						return writeJSON(out, map[string]string{"list": list, "hash": args[1]})
					}
					fmt.Fprintf(out, "Hash of %q updated\n", list)
					return nil
				}

				hash, ok, err := store.GetListHash(cmd.Context(), list)
				if err != nil {
					return fmt.Errorf("get hash of %q: %w", list, err)
				}
				if a.flags.jsonMode {
					var value *string
					if ok {
						value = &hash
					}
					return writeJSON(out, map[string]any{"list": list, "hash": value})
				}
				if !ok {
					fmt.Fprintln(out, "(none)")
					return nil
				}
				fmt.Fprintln(out, hash)
				return nil
			})
		},
	}
}
