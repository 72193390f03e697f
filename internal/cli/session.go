package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/latchlist/internal/config"
	"github.com/roach88/latchlist/internal/dynamo"
	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/store"
)

// session is one list opened for a single command.
type session struct {
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
}

// newFormatter builds the formatter for cmd. Verbose logs go to stderr to
// avoid corrupting JSON.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession resolves the config, opens the database and loads the list.
// Failures are reported through f and returned as an *ExitError.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := opts.ResolveConfig()
	if err != nil {
		return nil, configFailure(f, err)
	}
	f.VerboseLog("Using database %s, list %q", cfg.DB, cfg.List)

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open database %s: %v", cfg.DB, err), nil)
	}

	options := []engine.Option{engine.WithLogger(opts.Logger())}
	if cfg.Dynamo != nil {
		sink, err := dynamo.NewFromConfig[ir.IRObject](ctx, cfg.Dynamo.Table, cfg.Dynamo.Region, cfg.List)
		if err != nil {
			st.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeLoadFailed, fmt.Sprintf("configure dynamodb sink: %v", err), nil)
		}
		f.VerboseLog("Mirroring renumbers to DynamoDB table %s", cfg.Dynamo.Table)
		options = append(options, engine.WithSink(sink))
	}

	eng, err := engine.New(ctx, st, cfg.List, cfg.Options(), options...)
	if err != nil {
		st.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	return &session{cfg: cfg, store: st, engine: eng}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// execute applies cmds and closes the session. A rejected command is
// reported with its list error code and exit code 1.
func execute(ctx context.Context, opts *RootOptions, f *OutputFormatter, cmds ...engine.Command) ([]engine.Result, error) {
	s, err := openSession(ctx, opts, f)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	results, err := s.engine.Execute(ctx, cmds...)
	if err != nil {
		return results, commandFailure(f, err)
	}
	return results, nil
}

func configFailure(f *OutputFormatter, err error) error {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return f.Fail(ExitCommandError, ErrCodeInvalidConfig, err.Error(), map[string]any{
			"field": cfgErr.Field,
			"line":  cfgErr.Pos.Line(),
		})
	}
	return f.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
}

func commandFailure(f *OutputFormatter, err error) error {
	code := listErrorCode(latchlist.CodeOf(err))
	if code == "" {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}

	var details map[string]any
	var cmdErr *engine.CommandError
	if errors.As(err, &cmdErr) {
		details = map[string]any{"seq": cmdErr.Seq, "op": cmdErr.Op, "id": cmdErr.ID}
	}
	return f.Fail(ExitFailure, code, err.Error(), details)
}

// listErrorCode maps a list error code to its CLI error code.
func listErrorCode(code latchlist.ErrorCode) string {
	switch code {
	case latchlist.ErrCodeRange:
		return ErrCodeRange
	case latchlist.ErrCodeDuplicateID:
		return ErrCodeDuplicateID
	case latchlist.ErrCodeNotFound:
		return ErrCodeItemMissing
	}
	return ""
}
