package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formulagrid/internal/server"
	"formulagrid/internal/sheet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Serve a sheet over HTTP",
		Long: `Starts an HTTP server exposing the cells of a sheet as JSON under /cells
and Prometheus metrics under /metrics. FILE, a .csv or .xlsx file or a
redis:// URL, is loaded first when given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.Server.Addr
			}
			logger := opts.logger

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			s := opts.newSheet(sheet.WithMetrics(sheet.NewMetrics(reg)))
			if len(args) == 1 {
				cells, err := opts.load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				s.Load(cells)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewHandler(s, reg, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", "err", err)
					return err
				}
				return nil
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("graceful shutdown failed", "err", err)
					return srv.Close()
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
