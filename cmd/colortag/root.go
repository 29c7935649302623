package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/colortag/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for colortag.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colortag",
		Short: "Label product images with a named color",
		Long: `colortag assigns a human-readable color label to every row of a product
dataset by downloading the product image, removing its background, finding
the dominant color and matching it against a color taxonomy.

Runs are sequential and checkpointed: the output file is rewritten every few
rows, so an interrupted run can be continued with --resume.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Write logs to a rotating file instead of stderr")

	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewMatchCmd())
	cmd.AddCommand(NewTaxonomyCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFileFlag retrieves the log-file flag from the command or its parent.
func getLogFileFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("log-file")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger creates a sanitizing structured logger. When logFile is set,
// logs go to a rotating file; the returned closer must be called on exit.
func setupLogger(stderr io.Writer, verbose bool, logFile string) (*slog.Logger, func()) {
	if logFile == "" {
		return log.NewSecureLogger(stderr, verbose), func() {}
	}
	w := log.NewFileWriter(logFile)
	return log.NewSecureLogger(w, verbose), func() {
		_ = w.Close() //nolint:errcheck // Best effort cleanup
	}
}
