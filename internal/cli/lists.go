package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/orderkey"
	"github.com/roach88/latchlist/internal/store"
)

// ListSummary describes one stored list.
type ListSummary struct {
	Name      string `json:"name"`
	Step      string `json:"step"`
	Precision int    `json:"precision"`
	Renumbers int    `json:"renumbers"`
}

// NewListsCommand creates the lists command.
func NewListsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "lists",
		Short:         "Print every list in the database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLists(rootOpts, cmd)
		},
	}
}

func runLists(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	cfg, err := opts.ResolveConfig()
	if err != nil {
		return configFailure(f, err)
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open database %s: %v", cfg.DB, err), nil)
	}
	defer st.Close()

	infos, err := st.Lists(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}

	summaries := make([]ListSummary, len(infos))
	for i, info := range infos {
		events, err := st.ReadRenumberEvents(ctx, info.Name)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		summaries[i] = ListSummary{
			Name:      info.Name,
			Step:      orderkey.Format(info.Options.Step),
			Precision: info.Options.Precision,
			Renumbers: len(events),
		}
	}

	if f.Format == "json" {
		return f.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(f.Writer, "No lists.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTEP\tPRECISION\tRENUMBERS")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.Name, s.Step, s.Precision, s.Renumbers)
	}
	return tw.Flush()
}
