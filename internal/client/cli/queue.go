package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/models"
)

// QueueView - JSON представление очереди.
type QueueView struct {
	Pending []*models.MutationRecord `json:"pending"`
	Failed  []*models.MutationRecord `json:"failed"`
}

func NewQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show mutations waiting to be sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				return runQueueList(ctx, app)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Return failed mutations to the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				n, err := app.Engine.Queue().RetryFailedItems(ctx)
				if err != nil {
					return err
				}
				return app.Out.Print(map[string]int{"requeued": n}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %d mutation(s) returned to the queue\n", n)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "discard <mutation-id>",
		Short: "Drop a failed mutation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Engine.Queue().Discard(ctx, args[0]); err != nil {
					return err
				}
				return app.Out.Print(map[string]string{"discarded": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Mutation %s discarded\n", args[0])
				})
			})
		},
	})

	return cmd
}

func runQueueList(ctx context.Context, app *App) error {
	q := app.Engine.Queue()

	pending, err := q.Pending(ctx)
	if err != nil {
		return err
	}
	failed, err := q.Failed(ctx)
	if err != nil {
		return err
	}

	view := QueueView{Pending: pending, Failed: failed}
	return app.Out.Print(view, func(w io.Writer) {
		fmt.Fprintln(w, "=== Mutation queue ===")
		if len(pending) == 0 && len(failed) == 0 {
			fmt.Fprintln(w, "✓ Queue is empty")
			return
		}
		for _, rec := range pending {
			printMutation(w, rec)
		}
		if len(failed) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "⚠️  Failed: %d mutation(s) need 'ledgersync queue retry' or 'discard'\n", len(failed))
			for _, rec := range failed {
				printMutation(w, rec)
			}
		}
	})
}

func printMutation(w io.Writer, rec *models.MutationRecord) {
	fmt.Fprintf(w, "  %s  %-10s %-6s %-11s %s  retries=%d",
		rec.ID, rec.Status, rec.Operation, rec.EntityType, rec.EntityID, rec.RetryCount)
	if !rec.NextAttemptAt.IsZero() && rec.Status == models.MutationPending {
		fmt.Fprintf(w, "  next=%s", rec.NextAttemptAt.Format(time.RFC3339))
	}
	if rec.LastError != "" {
		fmt.Fprintf(w, "  error=%q", rec.LastError)
	}
	fmt.Fprintln(w)
}
