package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/obstore/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ConfigErrorDetails locates a config error in its file.
type ConfigErrorDetails struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate an obstore config file",
		Long: `Validate a CUE config file against the obstore config schema.

Fields left out take their defaults: capacity 0, backlog_limit 0
(unlimited), log_level "info", no journal.

Exit codes:
  0 - Config is valid
  1 - Config violates the schema
  2 - Command error (file not readable)

Examples:
  obstore validate ./obstore.cue
  obstore validate ./obstore.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr):
		details := ConfigErrorDetails{File: path}
		if cfgErr.Pos.IsValid() {
			details.Line = cfgErr.Pos.Line()
			details.Column = cfgErr.Pos.Column()
		}
		if outErr := formatter.Error(CodeInvalidConfig, cfgErr.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "invalid config", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}

	if opts.Format == "json" {
		return formatter.Success(cfg)
	}
	return formatter.Success(describeConfig(cfg))
}

func describeConfig(cfg config.Config) string {
	journal := cfg.Journal
	if journal == "" {
		journal = "(none)"
	}
	return fmt.Sprintf("✓ Config valid: capacity=%d backlog_limit=%d log_level=%s journal=%s",
		cfg.Capacity, cfg.BacklogLimit, cfg.LogLevel, journal)
}
