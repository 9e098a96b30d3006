package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// maxLabelWidth truncates labels in table output.
const maxLabelWidth = 40

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printEntities prints entities in a human-readable table, or as a JSON array
// in JSON mode.
func printEntities(w io.Writer, jsonMode bool, entities []types.SavedEntity) error {
	if jsonMode {
		if entities == nil {
			entities = []types.SavedEntity{}
		}
		return writeJSON(w, entities)
	}

	if len(entities) == 0 {
		fmt.Fprintln(w, "No entities found.")
		return nil
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tID\tLABEL\tVERSION\tSTATE\tPROPERTIES")
	for _, e := range entities {
		label := e.LabelOr("-")
		if len(label) > maxLabelWidth {
			label = label[:maxLabelWidth-3] + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			e.Index,
			e.ID,
			label,
			e.Version,
			e.State,
			formatProperties(e.Properties),
		)
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "Total: %d entit%s\n", len(entities), plural(len(entities)))
	return nil
}

// printEntity prints a single entity as indented JSON in both modes; the
// full record does not fit a table row.
func printEntity(w io.Writer, e types.SavedEntity) error {
	return writeJSON(w, e)
}

func formatProperties(props []types.Property) string {
	if len(props) == 0 {
		return "-"
	}
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, " ")
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
