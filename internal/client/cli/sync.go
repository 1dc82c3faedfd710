package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/queue"
	clientsync "github.com/iudanet/ledgersync/internal/client/sync"
	"github.com/iudanet/ledgersync/internal/models"
)

type SyncOptions struct {
	*RootOptions
	Strategy string
}

// ConflictView - конфликт, ожидающий решения, в выводе команд.
type ConflictView struct {
	EntityType   models.EntityType   `json:"entity_type"`
	EntityID     string              `json:"entity_id"`
	Type         models.ConflictType `json:"type"`
	Conflicting  []string            `json:"conflicting,omitempty"`
	LocalFields  []string            `json:"local_fields,omitempty"`
	RemoteFields []string            `json:"remote_fields,omitempty"`
}

func conflictView(r *conflict.Result) ConflictView {
	return ConflictView{
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		Type:         r.Type,
		Conflicting:  r.Conflicting,
		LocalFields:  r.LocalFields,
		RemoteFields: r.RemoteFields,
	}
}

// SyncView - итог команды sync.
type SyncView struct {
	Queue     *queue.ProcessResult `json:"queue,omitempty"`
	Pending   []ConflictView       `json:"pending_conflicts,omitempty"`
	Version   int64                `json:"version"`
	Pulled    int                  `json:"pulled"`
	Applied   int                  `json:"applied"`
	Conflicts int                  `json:"conflicts"`
	Resolved  int                  `json:"resolved"`
}

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Send queued changes and pull changes from the server",
		Long: `Send the mutation queue, then pull everything changed on the server since
the last sync. Conflicts that the configured policy leaves to the user are
reported; pass --strategy to settle them in the same run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Strategy != "" {
				if _, err := models.ParseStrategy(opts.Strategy); err != nil {
					return err
				}
				if models.Strategy(opts.Strategy) == models.StrategyManual {
					return fmt.Errorf("--strategy manual is not applicable, edit the entity and sync again")
				}
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App) error {
				return runSync(ctx, app, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "settle pending conflicts: localWins|remoteWins|latestWins|merge")
	return cmd
}

func runSync(ctx context.Context, app *App, opts *SyncOptions) error {
	// без сессии сервер ответит 401, и очередь пометит записи failed
	if _, err := app.Auth.Session(ctx); err != nil {
		return err
	}
	if !app.CheckServer(ctx) {
		return fmt.Errorf("server %s is unreachable, changes stay queued: %w", app.Config.Client.ServerURL, clientsync.ErrOffline)
	}
	if err := app.Engine.Queue().Recover(ctx); err != nil {
		return err
	}

	result, err := app.Engine.Sync(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	view := SyncView{
		Queue:     result.Queue,
		Version:   result.Version,
		Pulled:    result.Pulled,
		Applied:   result.Applied,
		Conflicts: result.Conflicts,
	}

	var failures []string
	if opts.Strategy != "" {
		for _, c := range app.Engine.PendingConflicts() {
			_, err := app.Engine.ResolveWith(ctx, c.EntityType, c.EntityID, models.Strategy(opts.Strategy))
			if err != nil {
				if errors.Is(err, conflict.ErrNotMergeable) {
					failures = append(failures, fmt.Sprintf("%s %s: %v", c.EntityType, c.EntityID, err))
					continue
				}
				return err
			}
			view.Resolved++
		}
		if view.Resolved > 0 {
			// отправляем решения сразу, не дожидаясь следующего sync
			if _, err := app.Engine.Queue().ProcessQueue(ctx); err != nil {
				return fmt.Errorf("failed to send resolutions: %w", err)
			}
		}
	}

	for _, c := range app.Engine.PendingConflicts() {
		view.Pending = append(view.Pending, conflictView(c))
	}

	return app.Out.Print(view, func(w io.Writer) {
		printSync(w, view, failures)
	})
}

func printSync(w io.Writer, view SyncView, failures []string) {
	fmt.Fprintln(w, "=== Synchronization ===")
	fmt.Fprintln(w, "✓ Synchronization completed")
	fmt.Fprintln(w)
	if view.Queue != nil {
		fmt.Fprintf(w, "Sent to server:     %d mutation(s)\n", view.Queue.Completed)
		if view.Queue.Retried > 0 || view.Queue.Deferred > 0 {
			fmt.Fprintf(w, "Waiting to retry:   %d\n", view.Queue.Retried+view.Queue.Deferred)
		}
		if view.Queue.Failed > 0 {
			fmt.Fprintf(w, "⚠️  Failed:          %d (see 'ledgersync queue')\n", view.Queue.Failed)
		}
	}
	fmt.Fprintf(w, "Pulled from server: %d change(s)\n", view.Pulled)
	fmt.Fprintf(w, "Applied locally:    %d\n", view.Applied)
	if view.Resolved > 0 {
		fmt.Fprintf(w, "Conflicts settled:  %d\n", view.Resolved)
	}
	for _, f := range failures {
		fmt.Fprintf(w, "⚠️  %s\n", f)
	}

	if len(view.Pending) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "⚠️  %d conflict(s) need a decision:\n", len(view.Pending))
		for _, c := range view.Pending {
			fmt.Fprintf(w, "  %s %s  %s", c.EntityType, c.EntityID, c.Type)
			if len(c.Conflicting) > 0 {
				fmt.Fprintf(w, "  fields: %s", strings.Join(c.Conflicting, ", "))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Run 'ledgersync sync --strategy localWins|remoteWins|latestWins' to settle them.")
	}
}

type ConflictsOptions struct {
	*RootOptions
	Limit int
}

// ConflictLogView - запись журнала разрешенных конфликтов.
type ConflictLogView struct {
	ResolvedAt time.Time           `json:"resolved_at"`
	EntityType models.EntityType   `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Type       models.ConflictType `json:"conflict_type"`
	Resolution models.Strategy     `json:"resolution"`
}

func NewConflictsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Show the log of resolved conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *App) error {
				logs, err := app.Store.ListConflictLogs(ctx, opts.Limit)
				if err != nil {
					return err
				}
				views := make([]ConflictLogView, 0, len(logs))
				for _, l := range logs {
					views = append(views, ConflictLogView{
						ResolvedAt: l.ResolvedAt,
						EntityType: l.EntityType,
						EntityID:   l.EntityID,
						Type:       l.ConflictType,
						Resolution: l.Resolution,
					})
				}
				return app.Out.Print(views, func(w io.Writer) {
					fmt.Fprintln(w, "=== Resolved conflicts ===")
					if len(views) == 0 {
						fmt.Fprintln(w, "No conflicts recorded.")
						return
					}
					for _, v := range views {
						fmt.Fprintf(w, "  %s  %s %s  %s -> %s\n",
							v.ResolvedAt.Format(time.RFC3339), v.EntityType, v.EntityID, v.Type, v.Resolution)
					}
				})
			})
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of entries (0 - all)")
	return cmd
}
