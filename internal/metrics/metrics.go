// Package metrics exposes Prometheus metrics for scene builds and selection.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rotisserie/eris"

	"cityscape/internal/selection"
)

// Collector bundles the scene metrics. It satisfies scene.Recorder, and a
// nil *Collector records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	BuildingsBuilt       prometheus.Counter
	DegenerateFootprints prometheus.Counter
	BuildingsRejected    *prometheus.CounterVec
	SelectionChanges     *prometheus.CounterVec
	SceneBuildDuration   prometheus.Histogram
	SceneBuildings       prometheus.Gauge
	BuildingsServed      prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	built, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityscape_buildings_built_total",
		Help: "Buildings added to a scene.",
	}))
	if err != nil {
		return nil, err
	}
	degenerate, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityscape_degenerate_footprints_total",
		Help: "Buildings whose footprint produced no faces.",
	}))
	if err != nil {
		return nil, err
	}
	rejected, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cityscape_buildings_rejected_total",
		Help: "Buildings left out of a scene, labeled by reason.",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}
	changes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cityscape_selection_changes_total",
		Help: "Selection slot transitions, labeled by kind (select, clear).",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cityscape_scene_build_duration_seconds",
		Help:    "Time to project, extrude and color every building of a scene.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}))
	if err != nil {
		return nil, err
	}
	buildings, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cityscape_scene_buildings",
		Help: "Buildings in the most recently built scene.",
	}))
	if err != nil {
		return nil, err
	}
	served, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityscape_buildings_served_total",
		Help: "Building records returned by /api/buildings.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:             gatherer,
		BuildingsBuilt:       built,
		DegenerateFootprints: degenerate,
		BuildingsRejected:    rejected,
		SelectionChanges:     changes,
		SceneBuildDuration:   duration,
		SceneBuildings:       buildings,
		BuildingsServed:      served,
	}, nil
}

func (c *Collector) BuildingBuilt() {
	if c == nil {
		return
	}
	c.BuildingsBuilt.Inc()
}

func (c *Collector) DegenerateFootprint() {
	if c == nil {
		return
	}
	c.DegenerateFootprints.Inc()
}

func (c *Collector) BuildingRejected(reason string) {
	if c == nil {
		return
	}
	c.BuildingsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) SceneBuilt(buildings int, took time.Duration) {
	if c == nil {
		return
	}
	c.SceneBuildings.Set(float64(buildings))
	c.SceneBuildDuration.Observe(took.Seconds())
}

// Served counts records written by the building service.
func (c *Collector) Served(n int) {
	if c == nil {
		return
	}
	c.BuildingsServed.Add(float64(n))
}

// Watch counts every transition of store until the returned function is
// called.
func (c *Collector) Watch(store *selection.Store) (stop func()) {
	if c == nil || store == nil {
		return func() {}
	}
	return store.Subscribe(func(_, next selection.Change) {
		kind := "clear"
		if next.Valid {
			kind = "select"
		}
		c.SelectionChanges.WithLabelValues(kind).Inc()
	})
}

// Selections reports how many select and clear transitions were counted.
func (c *Collector) Selections() (selects, clears int) {
	if c == nil {
		return 0, 0
	}
	return int(counterValue(c.SelectionChanges.WithLabelValues("select"))),
		int(counterValue(c.SelectionChanges.WithLabelValues("clear")))
}

func counterValue(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, eris.Errorf("metrics: collector already registered with incompatible type: %v", err)
		}
		var zero T
		return zero, eris.Wrap(err, "metrics: register collector")
	}
	return c, nil
}
