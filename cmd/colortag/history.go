package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/colortag/internal/config"
	"github.com/nao1215/colortag/internal/database"
	"github.com/nao1215/colortag/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command reads runs and row labels stored by classify.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [identifier]",
		Short: "Show past runs and label history",
		Long: `History reads the database that classify records every run in.

Without arguments it lists recent runs. With an identifier it shows every
label that row received, newest first, so label changes between runs stand
out. With --run it prints the stored summary of one run.

Examples:
  # List recent runs
  colortag history

  # Show the label history of one product
  colortag history E001

  # Print the summary of run 3 as Markdown
  colortag history --run 3 --report markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("runs", false, "List recent runs (default when no identifier is given)")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().Int64P("run", "i", 0, "Print the stored summary of a run by ID")
	cmd.Flags().StringP("report", "f", config.DefaultReportFormat, "Summary format for --run: text, json or markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listRuns, err := flags.GetBool("runs")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	formatName, err := flags.GetString("report")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	if runID != 0 && len(args) > 0 {
		return errors.New("--run cannot be combined with an identifier")
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case runID != 0:
		return showRunSummary(ctx, db, runID, format, out)
	case len(args) == 1 && !listRuns:
		return showLabelHistory(ctx, db, args[0], out)
	default:
		return listRecentRuns(ctx, db, limit, out)
	}
}

// listRecentRuns lists stored runs, newest first.
func listRecentRuns(ctx context.Context, db *database.ResultDB, limit int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'colortag classify <input> -o <output>' to classify a dataset.")
		return nil
	}

	fmt.Fprintf(out, "Recent runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-5s  %-19s  %-30s  %s\n", "ID", "Started", "Input", "Rows")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-5d  %-19s  %-30s  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(run.Input, 30),
			formatRunCounts(run),
		)
	}

	fmt.Fprintln(out, "\nUse 'colortag history --run <id>' to see the summary of a run.")
	return nil
}

// formatRunCounts renders the counters of a run in one short column.
func formatRunCounts(run database.RunRecord) string {
	if run.FinishedAt.IsZero() {
		return fmt.Sprintf("%d total, unfinished", run.Total)
	}
	parts := []string{
		fmt.Sprintf("%d/%d ok", run.Succeeded, run.Total),
	}
	if run.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", run.Failed))
	}
	if run.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d resumed", run.Skipped))
	}
	if run.Interrupted {
		parts = append(parts, "interrupted")
	}
	return strings.Join(parts, ", ")
}

// showLabelHistory prints every stored label of identifier, newest first.
func showLabelHistory(ctx context.Context, db *database.ResultDB, identifier string, out io.Writer) error {
	records, err := db.History(ctx, identifier)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", identifier)
		return nil
	}

	fmt.Fprintf(out, "Label history for %s (%d results):\n\n", identifier, len(records))
	fmt.Fprintf(out, "  %-5s  %-19s  %-8s  %s\n", "Run", "Processed", "Dominant", "Label")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for i, rec := range records {
		label := rec.Label
		if rec.Failed {
			label = rec.Label + " (" + rec.Error + ")"
		} else if i+1 < len(records) && !records[i+1].Failed && records[i+1].Label != rec.Label {
			label += "  (was " + records[i+1].Label + ")"
		}
		dominant := rec.Dominant
		if dominant == "" {
			dominant = "-"
		}
		fmt.Fprintf(out, "  %-5s  %-19s  %-8s  %s\n",
			strconv.FormatInt(rec.RunID, 10),
			rec.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
			dominant,
			label,
		)
	}
	return nil
}

// showRunSummary prints the stored summary of a run.
func showRunSummary(ctx context.Context, db *database.ResultDB, runID int64, format report.Format, out io.Writer) error {
	summary, err := db.GetRunSummary(ctx, runID)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("run %d not found or not finished", runID)
	}

	w, err := report.New(format, out, true)
	if err != nil {
		return err
	}
	_, err = w.Write(summary)
	return err
}

// truncate shortens s to maxLen characters with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
