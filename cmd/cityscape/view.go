package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cityscape/internal/metrics"
	"cityscape/internal/selection"
	"cityscape/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [path|url]",
	Short: "Open the interactive terminal scene",
	Long:  "Loads buildings from a .geojson/.json/.csv/.kml/.shp file or an http(s) URL serving the building list, and draws them as extruded solids. Click a building to select it; Esc clears the selection.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := cfg.View.Source
		if len(args) > 0 {
			src = args[0]
		}

		store := selection.New()
		unsubscribe := store.Subscribe(func(prev, next selection.Change) {
			zap.L().Info("selection changed",
				zap.String("from", string(prev.ID)),
				zap.String("to", string(next.ID)),
				zap.Bool("selected", next.Valid),
			)
		})
		defer unsubscribe()

		collector, stopWatch, err := viewMetrics(store)
		if err != nil {
			return err
		}
		defer stopWatch()
		if addr := cfg.View.MetricsAddr; addr != "" {
			stopListener := serveViewMetrics(addr, collector)
			defer stopListener()
		}
		defer func() {
			selects, clears := collector.Selections()
			zap.L().Info("viewer closed", zap.Int("selects", selects), zap.Int("clears", clears))
		}()

		builder, err := newBuilder(collector)
		if err != nil {
			return err
		}

		m := tui.New(tui.Options{
			Builder: builder,
			Store:   store,
			Dir:     cfg.View.Dir,
			Source:  src,
			Tilt:    cfg.View.Tilt,
			Outline: cfg.View.Outline,
		})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return eris.Wrap(err, "run viewer")
		}
		return nil
	},
}

// viewMetrics counts scene builds and selection changes for one viewer
// session on a private registry.
func viewMetrics(store *selection.Store) (*metrics.Collector, func(), error) {
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	return collector, collector.Watch(store), nil
}

func serveViewMetrics(addr string, collector *metrics.Collector) (stop func()) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("viewer metrics listener", zap.String("addr", addr), zap.Error(err))
		}
	}()
	zap.L().Info("viewer metrics listening", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
