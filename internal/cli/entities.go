package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entities/pkg/sqlite"
)

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <list> [file|-]",
		Short: "Save a batch of entities to a list",
		Long: `Save merges entities into a list, creating the list if needed.

Input is a JSON array of entities or one JSON entity per line, read from
file or from stdin when the file is "-" or omitted. Entities without an id
get a generated one. Only the first entity's properties add columns to the
list.

Example:
  entities save birds birds.json
  echo '{"id":"1","label":"Robin","version":1,"state":"offline"}' | entities save birds`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := args[0]
			path := "-"
			if len(args) == 2 {
				path = args[1]
			}

			entities, err := readEntities(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Save(cmd.Context(), list, entities); err != nil {
					return err
				}
				if a.flags.jsonMode {
					ids := make([]string, len(entities))
					for i, e := range entities {
						ids[i] = e.ID
					}
					return writeJSON(cmd.OutOrStdout(), map[string]any{"list": list, "saved": ids})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entit%s to %q\n", len(entities), plural(len(entities)), list)
				return nil
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <list> <id>",
		Short: "Get an entity by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, id := args[0], args[1]
			return a.withStore(func(store *sqlite.Backend) error {
				e, ok, err := store.GetByID(cmd.Context(), list, id)
				if err != nil {
					return err
				}
				if !ok {
					return userError(fmt.Errorf("entity %q not found in list %q", id, list))
				}
				return printEntity(cmd.OutOrStdout(), e)
			})
		},
	}
}

func newAtCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "at <list> <index>",
		Short: "Get the entity at a 0-based index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := args[0]
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return userError(fmt.Errorf("invalid index %q", args[1]))
			}
			return a.withStore(func(store *sqlite.Backend) error {
				e, ok, err := store.GetByIndex(cmd.Context(), list, index)
				if err != nil {
					return err
				}
				if !ok {
					return userError(fmt.Errorf("no entity at index %d in list %q", index, list))
				}
				return printEntity(cmd.OutOrStdout(), e)
			})
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <list> <property> <value>",
		Short: "Find entities whose property equals value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, property, value := args[0], args[1], args[2]
			return a.withStore(func(store *sqlite.Backend) error {
				found, err := store.GetAllByProperty(cmd.Context(), list, property, value)
				if err != nil {
					return err
				}
				return printEntities(cmd.OutOrStdout(), a.flags.jsonMode, found)
			})
		},
	}
}

func newAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all <list>",
		Short: "Show every entity of a list in index order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				all, err := store.GetEntities(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printEntities(cmd.OutOrStdout(), a.flags.jsonMode, all)
			})
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <list>",
		Short: "Print the number of entities in a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				n, err := store.GetCount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"list": args[0], "count": n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity id from every list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %q: %w", id, err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", id)
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return userError(fmt.Errorf("clear drops every list; pass --force to confirm"))
			}
			return a.withStore(func(store *sqlite.Backend) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear: %w", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]bool{"cleared": true})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All lists dropped")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm dropping every list")
	return cmd
}
