package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Index    int // optional - filter to one index; -1 means all
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session journal.Session `json:"session"`
	Entries []journal.Entry `json:"entries"`
	Stats   TraceStats      `json:"stats"`
}

// TraceStats counts entries by change kind.
type TraceStats struct {
	Total   int `json:"total"`
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
	Noops   int `json:"noops"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a journaled change feed",
		Long: `Print the change records journaled for one session, in order.

Each record shows its sequence number, the kind of change, the index it
touched and the item after (or, for deletes, before) the change.
--index narrows the output to one index's history.

Examples:
  obstore trace --db ./obstore.db --session 0192a4c1-...
  obstore trace --db ./obstore.db --session 0192a4c1-... --index 3
  obstore trace --db ./obstore.db --session 0192a4c1-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().IntVar(&opts.Index, "index", -1, "only show changes to this index")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := openExistingJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	session, err := j.ReadSessionInfo(ctx, opts.Session)
	if errors.Is(err, journal.ErrSessionNotFound) {
		return WrapExitError(ExitCommandError, "unknown session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	var entries []journal.Entry
	if opts.Index >= 0 {
		entries, err = j.ReadItemHistory(ctx, opts.Session, opts.Index)
	} else {
		entries, err = j.ReadSession(ctx, opts.Session)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{
		Session: session,
		Entries: entries,
		Stats:   computeTraceStats(entries),
	}

	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// openExistingJournal opens a journal that must already exist on disk.
// journal.Open alone would create an empty one.
func openExistingJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

func computeTraceStats(entries []journal.Entry) TraceStats {
	stats := TraceStats{Total: len(entries)}
	for _, e := range entries {
		switch e.Change.Kind() {
		case ir.ChangeCreate:
			stats.Creates++
		case ir.ChangeUpdate:
			stats.Updates++
		case ir.ChangeDelete:
			stats.Deletes++
		case ir.ChangeNoop:
			stats.Noops++
		}
	}
	return stats
}

// outputTraceText outputs the trace in human-readable form.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "=== Session ===")
	fmt.Fprintf(w, "ID: %s\n", result.Session.ID)
	fmt.Fprintf(w, "Capacity: %d\n", result.Session.Capacity)
	fmt.Fprintf(w, "Format: %s (tool %s)\n", result.Session.FormatVersion, result.Session.ToolVersion)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "(no changes)")
	}
	for _, e := range result.Entries {
		fmt.Fprintf(w, "[%d] %s\n", e.Seq, describeEntry(e))
		if verbose {
			fmt.Fprintf(w, "     digest: %s\n", e.Digest)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "Total: %d (create %d, update %d, delete %d, noop %d)\n",
		result.Stats.Total, result.Stats.Creates, result.Stats.Updates, result.Stats.Deletes, result.Stats.Noops)
	return nil
}

// describeEntry renders one entry as "kind index=N {fields}".
func describeEntry(e journal.Entry) string {
	c := e.Change
	switch c.Kind() {
	case ir.ChangeNoop:
		return "noop (empty slot)"
	case ir.ChangeDelete:
		return fmt.Sprintf("delete index=%d %s", c.Index(), formatItemFields(c.Previous))
	default:
		return fmt.Sprintf("%s index=%d %s", c.Kind(), c.Index(), formatItemFields(c.Current))
	}
}

func formatItemFields(it *ir.Item) string {
	fields := it.Fields
	if fields == nil {
		fields = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(fields)
	if err != nil {
		return fmt.Sprintf("<unprintable: %v>", err)
	}
	return string(data)
}

// truncateID shortens a long session id for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
