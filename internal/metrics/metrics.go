// Package metrics holds the Prometheus collectors for the frame pipelines.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// Frame outcomes.
const (
	OutcomeFace   = "face"
	OutcomeNoFace = "no_face"
	OutcomeError  = "error"
)

// Enrollment outcomes.
const (
	EnrollCreated   = "created"
	EnrollNoSamples = "no_samples"
	EnrollAborted   = "aborted"
	EnrollFailed    = "failed"
)

type Metrics struct {
	FramesTotal          *prometheus.CounterVec
	DetectDuration       prometheus.Histogram
	MatchTotal           *prometheus.CounterVec
	MatchScore           prometheus.Histogram
	EnrollmentsTotal     *prometheus.CounterVec
	GallerySize          prometheus.Gauge
	NotificationsDropped prometheus.Counter
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinface_frames_total",
				Help: "Frames run through the detector, partitioned by pipeline and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		DetectDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kinface_detect_duration_seconds",
				Help:    "Time spent in the face provider per frame.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		MatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinface_matches_total",
				Help: "Gallery lookups partitioned by result.",
			},
			[]string{"result"},
		),
		MatchScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kinface_match_score",
				Help:    "Best similarity score (0-100) per gallery lookup.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		EnrollmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinface_enrollments_total",
				Help: "Enrollment sessions partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		GallerySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kinface_gallery_size",
				Help: "Identities with a usable embedding in the last loaded gallery.",
			},
		),
		NotificationsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kinface_notifications_dropped_total",
				Help: "Spoken notifications dropped because another was still playing.",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.FramesTotal,
		m.DetectDuration,
		m.MatchTotal,
		m.MatchScore,
		m.EnrollmentsTotal,
		m.GallerySize,
		m.NotificationsDropped,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) ObserveFrame(mode, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(mode, outcome).Inc()
	m.DetectDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveMatch(result domain.MatchResult) {
	if m == nil {
		return
	}
	label := "unknown"
	if result.Matched {
		label = "matched"
	}
	m.MatchTotal.WithLabelValues(label).Inc()
	m.MatchScore.Observe(result.Score)
}

func (m *Metrics) ObserveEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.EnrollmentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetGallerySize(n int) {
	if m == nil {
		return
	}
	m.GallerySize.Set(float64(n))
}

func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}
