package main

import (
	"github.com/spf13/cobra"

	"github.com/wpcheck/plugin-check/internal/metrics"
	"github.com/wpcheck/plugin-check/internal/webserver"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		port      int
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin page for running checks from a browser",
		Long: `Serve the admin page for running checks from a browser.

The page lists the installed plugins and runs checks through the
admin-ajax endpoint. Runs are kept in memory and listed under /api/runs;
Prometheus metrics are served on /metrics. The server binds to 127.0.0.1.

The page runs every registered check, leaving out runtime checks when no
database is configured; configured defaults and categories only apply to
"plugin check".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			defer w.Close() //nolint:errcheck

			if !cmd.Flags().Changed("port") {
				port = w.cfg.Server.Port
			}
			srv, err := webserver.New(webserver.Config{
				Port:           port,
				NoBrowser:      noBrowser,
				Locator:        w.locator,
				RunnerOptions:  a.runnerOptions(w, serveSelection(w.cfg)),
				NonceSecret:    w.cfg.Server.NonceSecret,
				AllowedOrigins: w.cfg.Server.AllowedOrigins,
				Metrics:        metrics.NewCollector(),
			})
			if err != nil {
				return err
			}

			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", webserver.DefaultPort, "Port to listen on")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	return cmd
}
