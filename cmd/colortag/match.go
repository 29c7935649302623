package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/colortag/internal/config"
	"github.com/nao1215/colortag/internal/match"
	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/taxonomy"
	"github.com/spf13/cobra"
)

// NewMatchCmd creates the match command.
func NewMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <color>...",
		Short: "Match explicit colors against the taxonomy",
		Long: `Match converts each color to HSV and prints the taxonomy label it receives.
It runs the same matcher as classify, without downloading anything, which
makes it useful when tuning a custom taxonomy.

Colors are written as #rrggbb, rrggbb, r,g,b or rgb(r,g,b).

Examples:
  colortag match "#1f2a44"
  colortag match 200,16,46 "rgb(128,128,128)"
  colortag match --taxonomy colors.yaml --json "#f7a8b8"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMatchCmd,
	}

	cmd.Flags().String("taxonomy", "", "Custom taxonomy file (default: built-in taxonomy)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .colortag in current or home directory)")
	cmd.Flags().BoolP("json", "j", false, "Output results in JSON format")

	return cmd
}

// matchOutput is one matched color in JSON output.
type matchOutput struct {
	Input string      `json:"input"`
	RGB   string      `json:"rgb"`
	Match model.Match `json:"match"`
}

// runMatchCmd executes the match command.
func runMatchCmd(cmd *cobra.Command, args []string) error {
	tax, err := taxonomyFromFlags(cmd)
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	colors := make([]model.RGB, len(args))
	for i, arg := range args {
		c, err := model.ParseRGB(arg)
		if err != nil {
			return err
		}
		colors[i] = c
	}

	m := match.New(tax)
	outputs := make([]matchOutput, len(colors))
	for i, c := range colors {
		outputs[i] = matchOutput{Input: args[i], RGB: c.Hex(), Match: m.Match(c)}
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(outputs)
	}
	writeMatches(cmd.OutOrStdout(), outputs)
	return nil
}

// writeMatches prints one line per color.
func writeMatches(w io.Writer, outputs []matchOutput) {
	for _, o := range outputs {
		note := ""
		switch {
		case o.Match.Achromatic:
			note = ", achromatic"
		case o.Match.Fallback:
			note = ", fallback"
		}
		fmt.Fprintf(w, "%s  %s  -> %s  [%s, distance %.1f%s]\n",
			o.RGB, o.Match.HSV, o.Match.Label, o.Match.EntryName, o.Match.Distance, note)
	}
}

// taxonomyFromFlags loads the taxonomy named by --taxonomy, or by the
// config file, or the built-in one.
func taxonomyFromFlags(cmd *cobra.Command) (*taxonomy.Taxonomy, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.TaxonomyPath, err = cmd.Flags().GetString("taxonomy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}
	return loadTaxonomy(cfg.TaxonomyPath)
}
