package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

var actionsFormat string

// catalogEntry is the machine-readable form of one action.
type catalogEntry struct {
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the provisioning actions and their prerequisites",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "actions")
		defer span.End()

		out := cmd.OutOrStdout()
		switch actionsFormat {
		case "table", "":
			return writeActionsTable(out)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(catalogEntries())
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(catalogEntries()); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q (use table, json or yaml)", actionsFormat)
		}
	},
}

func init() {
	actionsCmd.Flags().StringVarP(&actionsFormat, "format", "o", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(actionsCmd)
}

func catalogEntries() []catalogEntry {
	catalog := provisioning.Catalog()
	entries := make([]catalogEntry, 0, len(catalog))
	for _, a := range catalog {
		entries = append(entries, catalogEntry{
			Name:          string(a),
			Description:   provisioning.Describe(a),
			Prerequisites: provisioning.Strings(provisioning.Prerequisites(a)),
		})
	}
	return entries
}

func writeActionsTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tREQUIRES\tDESCRIPTION")
	for _, e := range catalogEntries() {
		req := "-"
		if len(e.Prerequisites) > 0 {
			req = strings.Join(e.Prerequisites, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, req, e.Description)
	}
	return w.Flush()
}
