// Copyright 2026 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"errors"
	"net/http"
	"time"

	"github.com/frostbyte73/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/livekit/wavrec/pkg/config"
)

// Durations are in seconds
var (
	// durBucketsLong lists histogram buckets for recording durations.
	durBucketsLong = []float64{
		1, 10, 60, 10 * 60, 30 * 60, 3600, 6 * 3600, 12 * 3600, 24 * 3600,
	}
	// durBucketsOp lists histogram buckets for short operations like finalizing a file.
	durBucketsOp = []float64{
		0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
	}
)

// Status of a finished recording session.
type Status string

const (
	StatusOK       = Status("ok")
	StatusError    = Status("error")
	StatusCanceled = Status("canceled")
)

type Monitor struct {
	nodeID string

	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	pcmBytes         prometheus.Counter
	captureErrors    prometheus.Counter
	durSession       *prometheus.HistogramVec
	durFinalize      prometheus.Histogram

	metrics  []prometheus.Collector
	started  core.Fuse
	shutdown core.Fuse
}

func NewMonitor(conf *config.Config) *Monitor {
	return &Monitor{
		nodeID: conf.NodeID,
	}
}

func mustRegister[T prometheus.Collector](m *Monitor, c T) T {
	err := prometheus.Register(c)
	if err != nil {
		var e prometheus.AlreadyRegisteredError
		if errors.As(err, &e) {
			return e.ExistingCollector.(T)
		} else {
			panic(err)
		}
	}
	m.metrics = append(m.metrics, c)
	return c
}

func (m *Monitor) Start() error {
	prometheus.Unregister(collectors.NewGoCollector())
	mustRegister(m, collectors.NewGoCollector(collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll)))

	labels := prometheus.Labels{"node_id": m.nodeID}

	m.sessionsStarted = mustRegister(m, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "sessions_started",
		Help:        "Number of recording sessions started",
		ConstLabels: labels,
	}))

	m.sessionsFinished = mustRegister(m, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "sessions_finished",
		Help:        "Number of recording sessions finished, by status",
		ConstLabels: labels,
	}, []string{"status"}))

	m.sessionsActive = mustRegister(m, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "sessions_active",
		Help:        "Number of recording sessions currently capturing",
		ConstLabels: labels,
	}))

	m.pcmBytes = mustRegister(m, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "pcm_bytes",
		Help:        "Number of PCM bytes written to WAV files",
		ConstLabels: labels,
	}))

	m.captureErrors = mustRegister(m, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "capture_errors",
		Help:        "Number of capture loops terminated by a source or sink error",
		ConstLabels: labels,
	}))

	m.durSession = mustRegister(m, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "dur_session_sec",
		Help:        "Recording session duration (from start to finalized)",
		ConstLabels: labels,
		Buckets:     durBucketsLong,
	}, []string{"status"}))

	m.durFinalize = mustRegister(m, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "livekit",
		Subsystem:   "wavrec",
		Name:        "dur_finalize_sec",
		Help:        "Time spent flushing and rewriting the WAV header",
		ConstLabels: labels,
		Buckets:     durBucketsOp,
	}))

	m.started.Break()

	return nil
}

func (m *Monitor) Shutdown() {
	m.shutdown.Break()
}

func (m *Monitor) Stop() {
	for _, c := range m.metrics {
		prometheus.Unregister(c)
	}
	m.metrics = nil
}

// Handler serves registered metrics.
func (m *Monitor) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Monitor) enabled() bool {
	return m != nil && m.started.IsBroken() && !m.shutdown.IsBroken()
}

func (m *Monitor) SessionStarted() {
	if !m.enabled() {
		return
	}
	m.sessionsStarted.Inc()
	m.sessionsActive.Inc()
}

func (m *Monitor) SessionFinished(status Status, dur time.Duration) {
	if !m.enabled() {
		return
	}
	m.sessionsActive.Dec()
	m.sessionsFinished.WithLabelValues(string(status)).Inc()
	m.durSession.WithLabelValues(string(status)).Observe(dur.Seconds())
}

func (m *Monitor) PCMBytes(n int) {
	if !m.enabled() {
		return
	}
	m.pcmBytes.Add(float64(n))
}

func (m *Monitor) CaptureError() {
	if !m.enabled() {
		return
	}
	m.captureErrors.Inc()
}

func (m *Monitor) Finalized(dur time.Duration) {
	if !m.enabled() {
		return
	}
	m.durFinalize.Observe(dur.Seconds())
}
