package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/obstore/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions      []journal.VerifyResult `json:"sessions"`
	TotalSessions int                    `json:"total_sessions"`
	AllVerified   bool                   `json:"all_verified"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-apply journaled sessions and verify them",
		Long: `Re-apply every journaled session to a fresh store and check that the
store emits exactly the recorded changes.

Each record's digest is recomputed from its content, the operation it
describes is applied again, and the re-emitted change must produce the
same digest. The final state digest of each session is reported.

Exit codes:
  0 - All sessions verified
  1 - At least one session diverged from its journal
  2 - Command error (journal not found, unknown session, etc.)

Examples:
  obstore replay --db ./obstore.db
  obstore replay --db ./obstore.db --session 0192a4c1-...
  obstore replay --db ./obstore.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "verify this session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := openExistingJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		all, err := j.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range all {
			sessions = append(sessions, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:      make([]journal.VerifyResult, 0, len(sessions)),
		TotalSessions: len(sessions),
		AllVerified:   true,
	}

	if len(sessions) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in journal.")
		return nil
	}

	for _, id := range sessions {
		verified, err := journal.Verify(ctx, j, id)
		if errors.Is(err, journal.ErrSessionNotFound) {
			return WrapExitError(ExitCommandError, "unknown session", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}

		result.Sessions = append(result.Sessions, verified)
		if !verified.OK() {
			result.AllVerified = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.AllVerified {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeReplayMismatch,
			Message: "journal verification failed",
		}
	}

	if err := writeIndentedJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllVerified {
		return NewExitError(ExitFailure, "journal verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.OK() {
			status = "✗"
		}
		id := s.Session
		if !verbose {
			id = truncateID(id)
		}

		fmt.Fprintf(w, "%s %s\n", status, id)
		fmt.Fprintf(w, "  Applied: %d, Skipped: %d, Size: %d\n", s.Applied, s.Skipped, s.Size)
		if verbose {
			fmt.Fprintf(w, "  State digest: %s\n", s.StateDigest)
		}
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  seq %d: %s\n", m.Seq, m.Reason)
		}
	}
	fmt.Fprintln(w)

	if !result.AllVerified {
		fmt.Fprintln(w, "✗ Journal verification failed")
		return NewExitError(ExitFailure, "journal verification failed")
	}

	fmt.Fprintln(w, "✓ All sessions verified")
	return nil
}
