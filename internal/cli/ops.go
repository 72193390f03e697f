package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/store"
)

// ItemView is an item as printed by the CLI. Order is the shortest
// decimal form of the key. Hash is the content hash of the item record.
type ItemView struct {
	Index   int         `json:"index"`
	ID      string      `json:"id"`
	Order   string      `json:"order"`
	Latched int         `json:"latched"`
	Payload ir.IRObject `json:"payload,omitempty"`
	Hash    string      `json:"hash,omitempty"`
}

// OpOutput is the output of a list command.
type OpOutput struct {
	Seq        int64                 `json:"seq"`
	Op         engine.Op             `json:"op"`
	Item       *ItemView             `json:"item,omitempty"`
	Updated    []ItemView            `json:"updated,omitempty"`
	Renumbered []ir.ItemRecord       `json:"renumbered,omitempty"`
	Items      []ItemView            `json:"items,omitempty"`
	OK         bool                  `json:"ok"`
	Violations []latchlist.Violation `json:"violations,omitempty"`
}

// ItemFlags holds flags shared by insert and append.
type ItemFlags struct {
	ID      string
	Lock    bool
	Payload string // JSON object
}

func (fl *ItemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&fl.ID, "id", "", "item id (default a generated UUIDv7)")
	cmd.Flags().BoolVar(&fl.Lock, "lock", false, "latch the item to its slot")
	cmd.Flags().StringVar(&fl.Payload, "payload", "", "item payload as a JSON object")
}

func (fl *ItemFlags) command(op engine.Op, position int) (engine.Command, error) {
	c := engine.Command{Op: op, ID: fl.ID, Position: position, Lock: fl.Lock}
	if fl.Payload != "" {
		payload, err := ir.ParsePayload([]byte(fl.Payload))
		if err != nil {
			return engine.Command{}, fmt.Errorf("invalid --payload: %w", err)
		}
		c.Payload = payload
	}
	return c, nil
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &ItemFlags{}

	cmd := &cobra.Command{
		Use:   "insert <position>",
		Short: "Insert an item at a position",
		Long: `Insert an item before the item currently at <position>.

An unlatched item skips forward past latched items. A latched item takes
the slot and is latched to it.

Examples:
  latchlist insert 0 --id intro
  latchlist insert 3 --id ad --lock --payload '{"kind":"ad"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			pos, err := parsePosition(f, args[0])
			if err != nil {
				return err
			}
			c, err := flags.command(engine.OpInsert, pos)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}
			return runOp(rootOpts, cmd, f, c)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &ItemFlags{}

	cmd := &cobra.Command{
		Use:           "append",
		Short:         "Append an item to the end of the list",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			c, err := flags.command(engine.OpAppend, 0)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}
			return runOp(rootOpts, cmd, f, c)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move an item to a position",
		Long: `Move an item to <position>, counted in the list without the item.

A latched item is re-latched to its new slot.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			pos, err := parsePosition(f, args[1])
			if err != nil {
				return err
			}
			return runOp(rootOpts, cmd, f, engine.Command{Op: engine.OpMove, ID: args[0], Position: pos})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return runOp(rootOpts, cmd, f, engine.Command{Op: engine.OpDelete, ID: args[0]})
		},
	}
}

// NewLockCommand creates the lock command, or unlock when lock is false.
func NewLockCommand(rootOpts *RootOptions, lock bool) *cobra.Command {
	op, short := engine.OpLock, "Latch an item to its current slot"
	if !lock {
		op, short = engine.OpUnlock, "Release an item's latch"
	}

	return &cobra.Command{
		Use:           string(op) + " <id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return runOp(rootOpts, cmd, f, engine.Command{Op: op, ID: args[0]})
		},
	}
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Return latched items to their slots",
		Long: `Move every latched item back to the slot it is latched to.

When two items claim the same slot the first one keeps it; the other is
re-latched where it ends up.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return runOp(rootOpts, cmd, f, engine.Command{Op: engine.OpReconcile})
		},
	}
}

// NewRenumberCommand creates the renumber command.
func NewRenumberCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "renumber",
		Short:         "Respace every key to a multiple of the step",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return runOp(rootOpts, cmd, f, engine.Command{Op: engine.OpRenumber})
		},
	}
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ls",
		Short:         "Print the list in order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return runOp(rootOpts, cmd, f, engine.Command{Op: engine.OpList})
		},
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify key order and latches",
		Long: `Verify that keys strictly increase and every latched item sits at its
slot.

Exit codes:
  0 - The list is in order
  1 - One or more violations
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			results, err := execute(cmd.Context(), rootOpts, f, engine.Command{Op: engine.OpCheck})
			if err != nil {
				return err
			}
			out := toOpOutput(results[0])
			if !out.OK {
				return f.Fail(ExitFailure, ErrCodeOrderBroken,
					fmt.Sprintf("%d violation(s)", len(out.Violations)), out.Violations)
			}
			if f.Format == "json" {
				return f.Success(out)
			}
			fmt.Fprintln(f.Writer, "✓ List in order")
			return nil
		},
	}
}

func parsePosition(f *OutputFormatter, arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return 0, f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid position %q: must be an integer", arg), nil)
	}
	return pos, nil
}

// runOp applies a single command and prints its output.
func runOp(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter, c engine.Command) error {
	results, err := execute(cmd.Context(), opts, f, c)
	if err != nil {
		return err
	}

	out := toOpOutput(results[0])
	for _, r := range out.Renumbered {
		f.VerboseLog("Renumbered %s to %s", r.ID, r.Order)
	}
	if f.Format == "json" {
		return f.Success(out)
	}
	writeOpText(f.Writer, out)
	return nil
}

func toOpOutput(res engine.Result) OpOutput {
	out := OpOutput{
		Seq:        res.Seq,
		Op:         res.Op,
		Updated:    toItemViews(res.Updated),
		Items:      toItemViews(res.Items),
		OK:         res.OK,
		Violations: res.Violations,
	}
	if res.Item != nil {
		v := toItemView(*res.Item)
		out.Item = &v
	}
	if len(res.Renumbered) > 0 {
		out.Renumbered = store.ToRecords(res.Renumbered)
	}
	return out
}

func toItemView(p engine.Positioned) ItemView {
	rec := store.ToRecord(p.Item)
	v := ItemView{
		Index:   p.Index,
		ID:      rec.ID,
		Order:   rec.Order,
		Latched: rec.Latched,
		Payload: rec.Payload,
	}
	// Stored payloads never hold nulls, so hashing only fails on corrupt rows.
	if h, err := ir.ItemHash(rec); err == nil {
		v.Hash = h
	}
	return v
}

func toItemViews(ps []engine.Positioned) []ItemView {
	if len(ps) == 0 {
		return nil
	}
	views := make([]ItemView, len(ps))
	for i, p := range ps {
		views[i] = toItemView(p)
	}
	return views
}

func writeOpText(w io.Writer, out OpOutput) {
	switch out.Op {
	case engine.OpInsert, engine.OpAppend:
		fmt.Fprintf(w, "inserted %s at %d (order %s)\n", out.Item.ID, out.Item.Index, out.Item.Order)
	case engine.OpMove:
		fmt.Fprintf(w, "moved %s to %d (order %s)\n", out.Item.ID, out.Item.Index, out.Item.Order)
	case engine.OpDelete:
		fmt.Fprintf(w, "deleted %s\n", out.Item.ID)
	case engine.OpLock:
		fmt.Fprintf(w, "latched %s to %d\n", out.Item.ID, out.Item.Latched)
	case engine.OpUnlock:
		fmt.Fprintf(w, "unlatched %s\n", out.Item.ID)
	case engine.OpReconcile:
		if len(out.Updated) == 0 {
			fmt.Fprintln(w, "nothing to reconcile")
			break
		}
		fmt.Fprintf(w, "reconciled %d item(s)\n", len(out.Updated))
		writeItemTable(w, out.Updated)
	case engine.OpList:
		writeItemTable(w, out.Items)
	}

	switch {
	case out.Op == engine.OpRenumber:
		fmt.Fprintf(w, "renumbered %d item(s)\n", len(out.Renumbered))
	case len(out.Renumbered) > 0:
		fmt.Fprintf(w, "keys exhausted: renumbered %d item(s)\n", len(out.Renumbered))
	}
	if !out.OK {
		fmt.Fprintln(w, "warning: list out of order; run reconcile")
	}
}

func writeItemTable(w io.Writer, items []ItemView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tID\tORDER\tLATCHED")
	for _, it := range items {
		latched := "-"
		if it.Latched != latchlist.Unlatched {
			latched = strconv.Itoa(it.Latched)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.Index, it.ID, it.Order, latched)
	}
	tw.Flush()
}
