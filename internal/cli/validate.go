package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/config"
	"github.com/roach88/latchlist/internal/orderkey"
)

// ValidationError is one problem found in a config file.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Config *config.Config    `json:"config,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a config file against the schema",
		Long: `Validate a CUE config file against the embedded schema and print the
resolved settings, defaults included.

Exit codes:
  0 - Config valid
  1 - Config invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("config not found: %s", path), nil)
	}
	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.Error
		if !errors.As(err, &cfgErr) {
			return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
		}
		return outputValidationErrors(formatter, []ValidationError{{
			Field:   cfgErr.Field,
			Message: cfgErr.Message,
			Code:    ErrCodeInvalidConfig,
			Line:    cfgErr.Pos.Line(),
		}})
	}

	return outputValidateSuccess(formatter, cfg)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, cfg config.Config) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Config valid")
	fmt.Fprintf(w, "  list:      %s\n", cfg.List)
	fmt.Fprintf(w, "  db:        %s\n", cfg.DB)
	fmt.Fprintf(w, "  step:      %s\n", orderkey.Format(cfg.Step))
	fmt.Fprintf(w, "  precision: %d\n", cfg.Precision)
	if cfg.Dynamo != nil {
		fmt.Fprintf(w, "  dynamo:    %s\n", cfg.Dynamo.Table)
	}
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
