package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/colortag/internal/taxonomy"
	"github.com/spf13/cobra"
)

// NewTaxonomyCmd creates the taxonomy command.
func NewTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print or export the color taxonomy",
		Long: `Taxonomy prints every entry of the active color taxonomy with its
reference color and acceptance rule.

With --export the taxonomy is written as a yaml file that can be edited
and loaded back with --taxonomy or the taxonomy key of the config file.

Examples:
  # Print the built-in taxonomy
  colortag taxonomy

  # Export the built-in taxonomy as a starting point
  colortag taxonomy --export colors.yaml

  # Validate and print a custom taxonomy
  colortag taxonomy --taxonomy colors.yaml`,
		Args: cobra.NoArgs,
		RunE: runTaxonomyCmd,
	}

	cmd.Flags().String("taxonomy", "", "Custom taxonomy file (default: built-in taxonomy)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .colortag in current or home directory)")
	cmd.Flags().StringP("export", "e", "", `Write the taxonomy as yaml to this path ("-" for stdout)`)

	return cmd
}

// runTaxonomyCmd executes the taxonomy command.
func runTaxonomyCmd(cmd *cobra.Command, _ []string) error {
	tax, err := taxonomyFromFlags(cmd)
	if err != nil {
		return err
	}

	exportPath, err := cmd.Flags().GetString("export")
	if err != nil {
		return err
	}
	if exportPath == "" {
		writeTaxonomy(cmd.OutOrStdout(), tax)
		return nil
	}

	data, err := taxonomy.Marshal(tax)
	if err != nil {
		return fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	if exportPath == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write taxonomy: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", tax.Len(), exportPath)
	return nil
}

// writeTaxonomy prints the entries in evaluation order.
func writeTaxonomy(w io.Writer, tax *taxonomy.Taxonomy) {
	fallback := tax.Fallback()

	fmt.Fprintf(w, "Color taxonomy (%d entries):\n\n", tax.Len())
	fmt.Fprintf(w, "  %-14s  %-8s  %-34s  %s\n", "Name", "RGB", "Label", "Rule")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))

	for _, e := range tax.Entries() {
		rule := describeRule(e)
		if e.Name == fallback.Name {
			rule += " (default)"
		}
		fmt.Fprintf(w, "  %-14s  %-8s  %-34s  %s\n", e.Name, e.Reference.Hex(), e.DisplayLabel(), rule)
	}
}

// describeRule renders an entry's acceptance rule.
func describeRule(e taxonomy.Entry) string {
	if e.Achromatic() {
		return "achromatic: " + string(e.Tier)
	}

	var parts []string
	if e.Hue != nil {
		parts = append(parts, fmt.Sprintf("H %g-%g", e.Hue.Min, e.Hue.Max))
	}
	if e.SaturationMax != nil {
		parts = append(parts, fmt.Sprintf("S <= %g", *e.SaturationMax))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("V %g-%g", e.Value.Min, e.Value.Max))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
