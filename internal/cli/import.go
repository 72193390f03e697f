package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"

	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/orderkey"
	"github.com/roach88/latchlist/internal/store"
)

// ImportResult is the output of an import.
type ImportResult struct {
	List      string `json:"list"`
	Items     int    `json:"items"`
	Repaired  int    `json:"repaired"`
	Step      string `json:"step"`
	Precision int    `json:"precision"`
	OK        bool   `json:"ok"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the list with a snapshot",
		Long: `Replace the list with the items of a snapshot written by export.

The file may contain comments and trailing commas. The snapshot's key
options replace the list's. Items are sorted, renumbered if their keys
collide and reconciled on load, exactly as a stored list is. Use "-" to
read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	data, err := readInput(cmd, path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("%s: %v", path, err), nil)
	}

	cfg, err := opts.ResolveConfig()
	if err != nil {
		return configFailure(f, err)
	}
	keyOpts, err := snapshotOptions(snap, cfg.Options())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("%s: %v", path, err), nil)
	}
	items, err := store.FromRecords(snap.Items)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("%s: %v", path, err), nil)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open database %s: %v", cfg.DB, err), nil)
	}
	defer st.Close()

	if _, err := st.EnsureList(ctx, cfg.List, keyOpts); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	if err := st.SetOptions(ctx, cfg.List, keyOpts); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	if err := st.ReplaceItems(ctx, cfg.List, items); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	f.VerboseLog("Replaced %q with %d item(s) from %s", cfg.List, len(items), path)

	// Loading repairs the imported order and persists the repair.
	eng, err := engine.New(ctx, st, cfg.List, keyOpts, engine.WithLogger(opts.Logger()))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	results, err := eng.Execute(ctx, engine.Command{Op: engine.OpList})
	if err != nil {
		return commandFailure(f, err)
	}

	result := ImportResult{
		List:      cfg.List,
		Items:     len(results[0].Items),
		Repaired:  countRepaired(items, results[0].Items),
		Step:      orderkey.Format(keyOpts.Step),
		Precision: keyOpts.Precision,
		OK:        results[0].OK,
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Imported %d item(s) into %q", result.Items, result.List)
	if result.Repaired > 0 {
		fmt.Fprintf(f.Writer, " (%d repaired on load)", result.Repaired)
	}
	fmt.Fprintln(f.Writer)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// decodeSnapshot accepts JSON with comments and trailing commas.
func decodeSnapshot(data []byte) (ir.Snapshot, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return ir.ParseSnapshot(standardized)
}

// snapshotOptions returns the key options carried by snap, or fallback
// when the snapshot has none.
func snapshotOptions(snap ir.Snapshot, fallback orderkey.Options) (orderkey.Options, error) {
	if snap.Step == "" {
		return fallback, nil
	}
	step, err := strconv.ParseFloat(snap.Step, 64)
	if err != nil {
		return orderkey.Options{}, fmt.Errorf("invalid step %q: %w", snap.Step, err)
	}
	opts := orderkey.Options{Step: step, Precision: snap.Precision}
	if err := opts.Validate(); err != nil {
		return orderkey.Options{}, err
	}
	return opts, nil
}

// countRepaired counts the items whose key or latch changed on load.
func countRepaired(imported []store.Item, loaded []engine.Positioned) int {
	before := make(map[string]store.Item, len(imported))
	for _, it := range imported {
		before[it.ID] = it
	}
	n := 0
	for _, p := range loaded {
		b, ok := before[p.Item.ID]
		if !ok || b.Order != p.Item.Order || b.Latched != p.Item.Latched {
			n++
		}
	}
	return n
}
