package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/obstore/internal/harness"
	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal      string
	Capacity     int
	BacklogLimit int
}

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Scenario  string              `json:"scenario"`
	Pass      bool                `json:"pass"`
	Session   string              `json:"session,omitempty"`
	Journaled int                 `json:"journaled,omitempty"`
	Feed      []harness.FeedEvent `json:"feed"`
	Size      int                 `json:"size"`
	Items     []*ir.Item          `json:"items"`
	FreeSlots []int               `json:"free_slots"`
	Errors    []string            `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its change feed",
		Long: `Run one scenario against a fresh store and print the change feed
seen by its subscribers.

With --journal (or journal in the config file) every change is also
appended to a SQLite journal under a new session id. Inspect it with
"obstore trace" and verify it with "obstore replay".

Capacity and backlog limit come from the flags, then the scenario, then
the config file.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed
  2 - Command error (unreadable scenario, journal errors, etc.)

Examples:
  obstore run ./scenarios/reuse.yaml
  obstore run ./scenarios/reuse.yaml --journal ./obstore.db
  obstore run ./scenarios/reuse.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite journal to record the feed in")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "store capacity hint")
	cmd.Flags().IntVar(&opts.BacklogLimit, "backlog-limit", 0, "max records buffered before the first subscriber (0 = unlimited)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	applySettings(opts, scenario, cmd)

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = opts.config().Journal
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		result   *harness.Result
		recorder *journal.Recorder
	)
	if journalPath != "" {
		result, recorder, err = runJournaled(ctx, opts, scenario, journalPath)
	} else {
		result, err = harness.Run(scenario)
		if err != nil {
			err = WrapExitError(ExitCommandError, "failed to run scenario", err)
		}
	}
	if err != nil {
		return err
	}

	out := RunResult{
		Scenario:  scenario.Name,
		Pass:      result.Pass,
		Feed:      result.Feed,
		Size:      result.Size,
		Items:     result.Items,
		FreeSlots: result.FreeSlots,
		Errors:    result.Errors,
	}
	if recorder != nil {
		out.Session = recorder.Session()
		out.Journaled = recorder.Written()
	}

	if opts.Format == "json" {
		if err := outputRunJSON(cmd, out); err != nil {
			return err
		}
	} else if err := outputRunText(cmd, out); err != nil {
		return err
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// applySettings fills capacity and backlog limit: explicit flags win, then
// the scenario's own values, then the config file.
func applySettings(opts *RunOptions, scenario *harness.Scenario, cmd *cobra.Command) {
	cfg := opts.config()

	switch {
	case cmd.Flags().Changed("capacity"):
		scenario.Capacity = opts.Capacity
	case scenario.Capacity == 0:
		scenario.Capacity = cfg.Capacity
	}

	switch {
	case cmd.Flags().Changed("backlog-limit"):
		scenario.BacklogLimit = opts.BacklogLimit
	case scenario.BacklogLimit == 0:
		scenario.BacklogLimit = cfg.BacklogLimit
	}
}

// runJournaled runs the scenario with a journal recorder tapped into the
// store, under a fresh session.
func runJournaled(ctx context.Context, opts *RunOptions, scenario *harness.Scenario, path string) (*harness.Result, *journal.Recorder, error) {
	slog.Info("opening journal", "path", path)
	j, err := journal.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	session := opts.sessions().Generate()
	if err := j.BeginSession(ctx, session, scenario.Capacity); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to start journal session", err)
	}
	slog.Info("journal session started", "session", session, "scenario", scenario.Name)

	recorder := journal.NewRecorder(ctx, j, session, nil)
	result, err := harness.Run(scenario, harness.WithTap(recorder))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to run scenario", err)
	}
	if err := recorder.Err(); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "journal write failed", err)
	}

	slog.Info("journal session complete", "session", session, "changes", recorder.Written())
	return result, recorder, nil
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeScenarioFailed,
			Message: fmt.Sprintf("scenario %s failed", result.Scenario),
			Details: result.Errors,
		}
	}
	return writeIndentedJSON(cmd.OutOrStdout(), response)
}

// outputRunText prints the feed, one canonical JSON line per record, then
// a summary.
func outputRunText(cmd *cobra.Command, result RunResult) error {
	w := cmd.OutOrStdout()

	feed, err := harness.FormatFeed(result.Feed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to format feed", err)
	}
	if _, err := w.Write(feed); err != nil {
		return err
	}
	if len(result.Feed) > 0 {
		fmt.Fprintln(w)
	}

	status := "✓"
	if !result.Pass {
		status = "✗"
	}
	fmt.Fprintf(w, "%s %s: %d record(s), size %d, free slots %v\n",
		status, result.Scenario, len(result.Feed), result.Size, result.FreeSlots)
	if result.Session != "" {
		fmt.Fprintf(w, "  journal session %s (%d change(s))\n", result.Session, result.Journaled)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}
