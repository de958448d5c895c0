package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/cloudsync"
	"github.com/roach88/aads/internal/metrics"
	"github.com/roach88/aads/internal/remote"
	"github.com/roach88/aads/internal/store"
)

// app bundles what a command needs: the local store, the sync engine and
// the output formatter.
type app struct {
	opts    *RootOptions
	out     *OutputFormatter
	store   *store.Store
	sync    *cloudsync.Engine
	metrics *metrics.Manager
}

// openApp opens the database and the remote store. A remote store without
// credentials leaves sync disabled; any other remote error is a command
// error.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)
	cfg := opts.Config

	var storeOpts []store.Option
	if opts.now != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.now))
	}
	st, err := store.Open(cfg.DBPath, storeOpts...)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}

	openRemote := opts.openRemote
	if openRemote == nil {
		openRemote = remote.Open
	}
	rs, err := openRemote(cfg.Remote())
	switch {
	case errors.Is(err, remote.ErrNotConfigured):
		slog.Debug("cloud sync disabled", "reason", err)
		rs = nil
	case err != nil:
		st.Close()
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "failed to open remote store", err)
	}

	m := metrics.NewManager()
	syncOpts := []cloudsync.Option{
		cloudsync.WithAutoSync(cfg.AutoSync),
		cloudsync.WithPushAttempts(cfg.PushAttempts),
		cloudsync.WithMetrics(m),
	}
	if opts.now != nil {
		syncOpts = append(syncOpts, cloudsync.WithClock(opts.now))
	}
	if opts.runIDs != nil {
		syncOpts = append(syncOpts, cloudsync.WithRunIDs(opts.runIDs))
	}

	return &app{
		opts:    opts,
		out:     out,
		store:   st,
		sync:    cloudsync.New(st, rs, syncOpts...),
		metrics: m,
	}, nil
}

// close writes the metrics file, if configured, and releases both stores.
func (a *app) close() {
	if err := a.metrics.WriteToTextfile(a.opts.Config.MetricsFile); err != nil {
		slog.Warn("metrics not written", "path", a.opts.Config.MetricsFile, "error", err)
	}
	if err := a.sync.Close(); err != nil {
		slog.Warn("closing remote store", "error", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}

// autoPush pushes after a mutating command when auto-sync is on. The
// outcome goes to stderr so stdout carries only the command's result.
func (a *app) autoPush(ctx context.Context) {
	res, pushed := a.sync.AutoPush(ctx)
	if !pushed {
		return
	}
	w := a.out.GetErrWriter()
	if res.OK {
		fmt.Fprintf(w, "Auto-sync: pushed %d players, %d events, %d participants\n",
			res.Players, res.Events, res.Participants)
		return
	}
	fmt.Fprintf(w, "Auto-sync failed: %s\n", res.Cause)
}

// storeFailure maps a store error to an exit error.
func (a *app) storeFailure(message string, err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return a.out.Fail(ExitCommandError, ErrCodeInvalidInput, message, err)
	case errors.Is(err, store.ErrEventNotFound):
		return a.out.Fail(ExitFailure, ErrCodeNotFound, message, err)
	case errors.Is(err, store.ErrStatusRegression):
		return a.out.Fail(ExitFailure, ErrCodeRefused, message, err)
	default:
		return a.out.Fail(ExitFailure, ErrCodeDatabase, message, err)
	}
}
