package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/cloudsync"
	"github.com/roach88/aads/internal/remote"
)

// NewSyncCommand creates the sync command group.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the local database to the cloud",
		Long: `Copy the series tables between the local database and the configured
remote store.

Configure the remote with remote_driver plus remote_url and remote_key
(supabase) or remote_dsn (postgres). SUPABASE_URL and SUPABASE_KEY are
also read from the environment.`,
	}
	cmd.AddCommand(newSyncPushCommand(rootOpts))
	cmd.AddCommand(newSyncPullCommand(rootOpts))
	cmd.AddCommand(newSyncTestCommand(rootOpts))
	cmd.AddCommand(newSyncStatusCommand(rootOpts))
	cmd.AddCommand(newSyncSchemaCommand(rootOpts))
	return cmd
}

func newSyncPushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "push",
		Short:         "Upload every local row to the remote store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncOp(rootOpts, cmd, (*cloudsync.Engine).Push, func(w io.Writer, r cloudsync.Result) {
				fmt.Fprintf(w, "Pushed %d players, %d events, %d participants\n", r.Players, r.Events, r.Participants)
				fmt.Fprintf(w, "Run: %s (%d attempt(s))\n", r.RunID, r.Attempts)
			})
		},
	}
}

func newSyncPullCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download every remote row into the local database",
		Long: `Download the remote tables and merge them into the local database.

Remote rows overwrite local rows with the same id; local rows the remote does
not have are kept. The import is a single transaction: on any failure the
local database is left as it was.

Pass --yes to confirm.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return newFormatter(rootOpts, cmd).Fail(ExitCommandError, ErrCodeInvalidInput,
					"pull overwrites local rows with remote data; re-run with --yes to confirm", nil)
			}
			return runSyncOp(rootOpts, cmd, (*cloudsync.Engine).Pull, func(w io.Writer, r cloudsync.Result) {
				fmt.Fprintf(w, "Pulled %d players, %d events, %d participants\n", r.Players, r.Events, r.Participants)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm overwriting local rows")

	return cmd
}

func newSyncTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "test",
		Short:         "Check that the remote store is reachable",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncOp(rootOpts, cmd, (*cloudsync.Engine).Probe, func(w io.Writer, r cloudsync.Result) {
				fmt.Fprintf(w, "Connected: %d players in the remote store\n", r.RemotePlayers)
			})
		},
	}
}

// runSyncOp runs one engine operation and renders its Result. A failed or
// disabled operation is reported with the Result's cause.
func runSyncOp(opts *RootOptions, cmd *cobra.Command, op func(*cloudsync.Engine, context.Context) cloudsync.Result, text func(io.Writer, cloudsync.Result)) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res := op(a.sync, context.Background())
	if !res.OK {
		return a.out.Fail(ExitFailure, ErrCodeSync, fmt.Sprintf("sync %s failed", res.Op), errors.New(res.Cause))
	}
	return a.out.Render(res, func(w io.Writer) { text(w, res) })
}

func newSyncStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the sync configuration and the last push",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			st := a.sync.Status(context.Background())
			return a.out.Render(st, func(w io.Writer) {
				fmt.Fprintf(w, "Cloud sync: %s\n", onOff(st.Enabled, "enabled", "disabled"))
				fmt.Fprintf(w, "Auto-sync:  %s\n", onOff(st.AutoSync, "on", "off"))
				fmt.Fprintf(w, "Last sync:  %s\n", st.Message)
			})
		},
	}
}

// schemaApplier is implemented by remote stores that can create their own
// tables.
type schemaApplier interface {
	EnsureSchema(ctx context.Context) error
}

// SchemaResult is the payload of sync schema.
type SchemaResult struct {
	Applied bool   `json:"applied"`
	Schema  string `json:"schema,omitempty"`
}

func newSyncSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the remote table definitions",
		Long: `Print the SQL that creates the remote tables. Supabase users paste it into
the project's SQL editor.

With --apply the tables are created directly; this needs the postgres driver.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			if !apply {
				return formatter.Render(SchemaResult{Schema: remote.Schema()}, func(w io.Writer) {
					fmt.Fprint(w, remote.Schema())
				})
			}
			return runSchemaApply(rootOpts, formatter)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "create the tables on the remote database")

	return cmd
}

func runSchemaApply(opts *RootOptions, formatter *OutputFormatter) error {
	openRemote := opts.openRemote
	if openRemote == nil {
		openRemote = remote.Open
	}
	rs, err := openRemote(opts.Config.Remote())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to open remote store", err)
	}
	defer rs.Close()

	applier, ok := rs.(schemaApplier)
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeConfig,
			fmt.Sprintf("driver %q cannot apply the schema; print it and run it in the SQL editor", opts.Config.RemoteDriver), nil)
	}
	if err := applier.EnsureSchema(context.Background()); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSync, "failed to apply schema", err)
	}
	return formatter.Render(SchemaResult{Applied: true}, func(w io.Writer) {
		fmt.Fprintln(w, "Remote schema is up to date")
	})
}

func onOff(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}
