// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// Collector
// =============================================================================

// Collector holds the Prometheus instruments for channel arbitration and
// speech synthesis playback. It satisfies both focus.MetricsRecorder and
// speechsynthesizer.MetricsRecorder directly.
type Collector struct {
	focusAcquiresTotal    *prometheus.CounterVec
	focusPreemptionsTotal *prometheus.CounterVec
	focusReleasesTotal    *prometheus.CounterVec

	speechStartedTotal  prometheus.Counter
	speechFinishedTotal prometheus.Counter
	speechFailedTotal   prometheus.Counter
	speechDuration      prometheus.Histogram

	logger *zap.Logger
}

// NewCollector registers the Prometheus instrument families under namespace
// and returns a Collector wrapping them.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.focusAcquiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "focus_acquires_total",
			Help:      "Total number of successful channel acquisitions",
		},
		[]string{"channel"},
	)

	c.focusPreemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "focus_preemptions_total",
			Help:      "Total number of channel observers displaced by a higher-priority acquirer",
		},
		[]string{"channel"},
	)

	c.focusReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "focus_releases_total",
			Help:      "Total number of channel releases",
		},
		[]string{"channel"},
	)

	c.speechStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_started_total",
			Help:      "Total number of Speak directives that began playback",
		},
	)

	c.speechFinishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_finished_total",
			Help:      "Total number of Speak directives that completed playback",
		},
	)

	c.speechFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_failed_total",
			Help:      "Total number of Speak directives that failed",
		},
	)

	c.speechDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_duration_seconds",
			Help:      "Duration of completed speech playback in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// focus.MetricsRecorder
// =============================================================================

// RecordAcquire records a successful channel acquisition.
func (c *Collector) RecordAcquire(channel string) {
	c.focusAcquiresTotal.WithLabelValues(channel).Inc()
}

// RecordPreempt records that channel's previous observer was displaced.
func (c *Collector) RecordPreempt(channel string) {
	c.focusPreemptionsTotal.WithLabelValues(channel).Inc()
}

// RecordRelease records a channel release.
func (c *Collector) RecordRelease(channel string) {
	c.focusReleasesTotal.WithLabelValues(channel).Inc()
}

// =============================================================================
// speechsynthesizer.MetricsRecorder
// =============================================================================

// RecordSpeechStarted records that a Speak directive began playback.
func (c *Collector) RecordSpeechStarted() {
	c.speechStartedTotal.Inc()
}

// RecordSpeechFinished records that a Speak directive finished playback
// after duration.
func (c *Collector) RecordSpeechFinished(duration time.Duration) {
	c.speechFinishedTotal.Inc()
	c.speechDuration.Observe(duration.Seconds())
}

// RecordSpeechFailed records that a Speak directive failed.
func (c *Collector) RecordSpeechFailed() {
	c.speechFailedTotal.Inc()
}
