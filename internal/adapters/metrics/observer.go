// Package metrics exports artifact cache events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheObserver = (*Observer)(nil)

// Observer counts cache events on its own registry.
type Observer struct {
	registry *prometheus.Registry

	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	builds    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	discarded *prometheus.CounterVec
	released  *prometheus.CounterVec
}

// NewObserver creates an Observer and registers its collectors.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shade_cache_hits_total",
				Help: "Total number of artifact lookups served from the cache",
			},
			[]string{"kind"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shade_cache_misses_total",
				Help: "Total number of artifact lookups that required a build",
			},
			[]string{"kind"},
		),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shade_builds_total",
				Help: "Total number of artifact builds",
			},
			[]string{"kind", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shade_build_duration_seconds",
				Help:    "Artifact build duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"kind"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shade_builds_discarded_total",
				Help: "Total number of finished builds destroyed instead of cached, by reason",
			},
			[]string{"kind", "reason"},
		),
		released: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shade_artifacts_released_total",
				Help: "Total number of artifacts torn down",
			},
			[]string{"kind"},
		),
	}

	o.registry.MustRegister(o.hits, o.misses, o.builds, o.duration, o.discarded, o.released)
	return o
}

// Registry returns the registry the collectors are registered on.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Hit counts a cache hit.
func (o *Observer) Hit(kind domain.ArtifactKind) {
	o.hits.WithLabelValues(kind.String()).Inc()
}

// Miss counts a cache miss.
func (o *Observer) Miss(kind domain.ArtifactKind) {
	o.misses.WithLabelValues(kind.String()).Inc()
}

// Built counts a finished build and observes its duration.
func (o *Observer) Built(kind domain.ArtifactKind, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	o.builds.WithLabelValues(kind.String(), status).Inc()
	o.duration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// Discarded counts a finished build that was not cached.
func (o *Observer) Discarded(kind domain.ArtifactKind, reason domain.DiscardReason) {
	o.discarded.WithLabelValues(kind.String(), reason.String()).Inc()
}

// Released counts torn down artifacts.
func (o *Observer) Released(kind domain.ArtifactKind, count int) {
	o.released.WithLabelValues(kind.String()).Add(float64(count))
}

// WriteTextfile writes the current metrics in the text exposition format, as
// read by the node exporter's textfile collector.
func (o *Observer) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, o.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics"), "path", path)
	}
	return nil
}
