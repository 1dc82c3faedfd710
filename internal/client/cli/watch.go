package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/pkg/api"
)

type WatchOptions struct {
	*RootOptions
	CheckInterval time.Duration
	MetricsAddr   string
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and apply changes from other devices live",
		Long: `Keep a websocket connection to the server: local changes are sent as soon
as the server is reachable, pushes from other devices are applied immediately.
Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := openApp(ctx, cmd, rootOpts, true)
			if err != nil {
				return err
			}
			defer app.Close()

			return runWatch(ctx, app, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.CheckInterval, "check-interval", 10*time.Second, "how often server reachability is checked")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	return cmd
}

func runWatch(ctx context.Context, app *App, opts *WatchOptions) error {
	if _, err := app.Auth.Session(ctx); err != nil {
		return err
	}

	app.CheckServer(ctx)
	if err := app.Engine.Initialize(ctx); err != nil {
		return err
	}
	app.Out.Textf("=== Watching %s (node %s) ===\n", app.Config.Client.ServerURL, app.Engine.NodeID())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(opts.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				app.CheckServer(ctx)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case c := <-app.Engine.Conflicts():
				app.Out.Textf("⚠️  Conflict on %s %s (%s), run 'ledgersync sync --strategy ...' to settle\n",
					c.EntityType, c.EntityID, c.Type)
			case msg := <-app.Engine.Events():
				printEvent(app, msg)
			}
		}
	})

	addr := opts.MetricsAddr
	if addr == "" {
		addr = app.Config.Client.MetricsAddr
	}
	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metrics.Handler(app.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			app.Logger.Info("Serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	app.Out.Textf("✓ Stopped\n")
	return err
}

func printEvent(app *App, msg api.Message) {
	var ev api.MemberEvent
	switch msg.Type {
	case api.TypeMemberJoined, api.TypeMemberLeft:
		if err := msg.Decode(&ev); err != nil {
			app.Logger.Warn("Invalid member event", "error", err)
			return
		}
		app.Out.Textf("Book %s: %s %s\n", ev.BookID, firstNonEmpty(ev.Username, ev.UserID), msg.Type)
	default:
		app.Out.Textf("Event %s\n", msg.Type)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
