package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/config"
	"github.com/roach88/latchlist/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a CUE config; empty looks for latchlist.cue
	DB      string // overrides the configured database path
	List    string // overrides the configured list name

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the latchlist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "latchlist",
		Short:   "latchlist - ordered lists with latched slots",
		Version: ir.ToolVersion,
		Long: `Maintain ordered lists keyed by fractional indexes.

Items can be latched to a slot; reconcile moves latched items back to the
slot they claim after other edits have shifted them.`,
		SilenceErrors: true, // main prints errors commands did not report
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./"+config.FileName+" if present)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.List, "list", "", "list name (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewAppendCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewLockCommand(opts, true))
	cmd.AddCommand(NewLockCommand(opts, false))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewRenumberCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewListsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Logger returns the logger installed for the running command.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

// ResolveConfig loads the configuration and applies the --db and --list
// overrides.
func (o *RootOptions) ResolveConfig() (config.Config, error) {
	cfg, err := config.Resolve(o.Config)
	if err != nil {
		return config.Config{}, err
	}
	if o.DB != "" {
		cfg.DB = o.DB
	}
	if o.List != "" {
		cfg.List = o.List
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
