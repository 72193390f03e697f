package cli

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/ir"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string // destination file; empty writes to stdout
}

// ExportResult is the JSON output of an export to a file.
type ExportResult struct {
	List  string `json:"list"`
	Items int    `json:"items"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
	Hash  string `json:"hash"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the list as a canonical JSON snapshot",
		Long: `Write the list, its key options and every item as canonical JSON
(RFC 8785). Keys are written as decimal strings so the snapshot
round-trips exactly.

The file is replaced atomically: readers see the old snapshot or the new
one, never a partial write.

Examples:
  latchlist export --out todo.json
  latchlist export --list todo > todo.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	s, err := openSession(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.store.Snapshot(ctx, s.cfg.List)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	data, err := snap.MarshalCanonical()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encode snapshot: %v", err), nil)
	}

	hash, err := ir.SnapshotHash(snap)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("hash snapshot: %v", err), nil)
	}

	if opts.Out == "" {
		_, err := f.Writer.Write(append(data, '\n'))
		return err
	}

	if err := atomic.WriteFile(opts.Out, bytes.NewReader(data)); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("write %s: %v", opts.Out, err), nil)
	}
	f.VerboseLog("Wrote %d bytes to %s (%s)", len(data), opts.Out, hash)

	result := ExportResult{List: snap.List, Items: len(snap.Items), Path: opts.Out, Bytes: len(data), Hash: hash}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Exported %d item(s) of %q to %s\n", result.Items, result.List, result.Path)
	return nil
}
