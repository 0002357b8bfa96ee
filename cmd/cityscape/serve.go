package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cityscape/internal/geo"
	"cityscape/internal/metrics"
	"cityscape/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve the building list over HTTP",
	Long:  "Loads buildings once and serves them at /api/buildings in the array format the web viewer reads, with /health and /metrics.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src := cfg.Server.Source
		if len(args) > 0 {
			src = args[0]
		}
		buildings, err := geo.Load(ctx, src)
		if err != nil {
			return err
		}

		collector, err := metrics.NewCollector(nil)
		if err != nil {
			return err
		}
		// build once so /metrics reports rejected and degenerate footprints
		builder, err := newBuilder(collector)
		if err != nil {
			return err
		}
		builder.Build(buildings)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(buildings, collector).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("source", src),
			zap.Int("buildings", len(buildings)),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
