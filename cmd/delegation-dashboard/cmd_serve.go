package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stakingagency/delegation-dashboard/internal/exitcodes"
	"github.com/stakingagency/delegation-dashboard/internal/webserver"
)

func createServeCmd() *cobra.Command {
	var (
		listen      string
		refreshCron string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser dashboard, JSON API and Prometheus metrics",
		Long: `Serve the dashboard over HTTP:

  /              dashboard page with live updates
  /api/snapshot  full snapshot as JSON
  /api/apr       APR estimate (?explain=1 adds the breakdown)
  /api/health    503 until the first snapshot is fetched
  /ws            snapshot push over WebSocket
  /metrics       Prometheus metrics

The snapshot is refreshed on the server.refresh_cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps(nil)
			if err != nil {
				return err
			}
			defer d.Close()

			if listen != "" {
				d.Cfg.Server.Listen = listen
			}
			if refreshCron != "" {
				d.Cfg.Server.RefreshCron = refreshCron
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, d)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")
	cmd.Flags().StringVar(&refreshCron, "refresh-cron", "", "Refresh schedule, cron or @every syntax (overrides server.refresh_cron)")
	return cmd
}

func runServe(ctx context.Context, d *Deps) error {
	srv, err := webserver.New(d.Service, webserver.Options{
		Listen:         d.Cfg.Server.Listen,
		RefreshCron:    d.Cfg.Server.RefreshCron,
		AllowedOrigins: d.Cfg.Server.AllowedOrigins,
		Network:        d.Cfg.Network,
		Version:        Version,
		RefreshTimeout: d.Cfg.RequestTimeout * 2,
		Logger:         d.Log,
		Metrics:        d.Metrics,
	})
	if err != nil {
		return exitcodes.InvalidArgsError(err.Error())
	}
	if err := srv.Run(ctx); err != nil {
		return exitcodes.NetworkErr("web server", err)
	}
	return nil
}
