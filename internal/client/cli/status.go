package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/client/auth"
	clientsync "github.com/iudanet/ledgersync/internal/client/sync"
)

// StatusView - вывод команды status.
type StatusView struct {
	Sync          *clientsync.Status `json:"sync"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	Username      string             `json:"username,omitempty"`
	Server        string             `json:"server"`
	Authenticated bool               `json:"authenticated"`
	Expired       bool               `json:"expired"`
}

func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, runStatus)
		},
	}
}

func runStatus(ctx context.Context, app *App) error {
	view := StatusView{Server: app.Config.Client.ServerURL}

	session, err := app.Auth.Session(ctx)
	switch {
	case err == nil:
		view.Authenticated = true
	case errors.Is(err, auth.ErrSessionExpired):
		view.Expired = true
	case errors.Is(err, auth.ErrNotAuthenticated):
	default:
		return err
	}
	if session != nil {
		view.Username = session.Username
		expires := time.Unix(session.ExpiresAt, 0).UTC()
		view.ExpiresAt = &expires
	}

	view.Sync, err = app.Engine.Status(ctx)
	if err != nil {
		return err
	}

	return app.Out.Print(view, func(w io.Writer) {
		printStatus(w, view)
	})
}

func printStatus(w io.Writer, view StatusView) {
	fmt.Fprintln(w, "=== Status ===")
	fmt.Fprintf(w, "Server:  %s\n", view.Server)
	fmt.Fprintf(w, "Node ID: %s\n", view.Sync.NodeID)
	fmt.Fprintln(w)

	switch {
	case view.Authenticated:
		fmt.Fprintf(w, "Authenticated as %s\n", view.Username)
		fmt.Fprintf(w, "Token expires: %s\n", view.ExpiresAt.Format(time.RFC3339))
	case view.Expired:
		fmt.Fprintln(w, "⚠️  Session has expired. Please login again.")
	default:
		fmt.Fprintln(w, "Status: Not authenticated")
		fmt.Fprintln(w, "Run 'ledgersync login' to authenticate.")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Last sync version: %d\n", view.Sync.LastSyncVersion)
	q := view.Sync.Queue
	if q.Pending+q.Processing > 0 {
		fmt.Fprintf(w, "⚠️  Pending sync: %d mutation(s) waiting to be sent\n", q.Pending+q.Processing)
	} else {
		fmt.Fprintln(w, "✓ All local changes sent")
	}
	if q.Failed > 0 {
		fmt.Fprintf(w, "⚠️  Failed: %d mutation(s), see 'ledgersync queue'\n", q.Failed)
	}
}

// VersionView - вывод команды version.
type VersionView struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := VersionView{Version: Version, BuildDate: BuildDate, GitCommit: GitCommit, GoVersion: runtime.Version()}
			return newOutput(cmd, opts).Print(v, func(w io.Writer) {
				fmt.Fprintln(w, "ledgersync client")
				fmt.Fprintf(w, "Version:    %s\n", v.Version)
				fmt.Fprintf(w, "Build Date: %s\n", v.BuildDate)
				fmt.Fprintf(w, "Git Commit: %s\n", v.GitCommit)
			})
		},
	}
}
