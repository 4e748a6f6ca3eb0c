// Package metrics exposes daqd decoder counters to prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "decoder",
			Name:      "frames_total",
			Help:      "Frames fully decoded, by message type.",
		},
		[]string{"type"},
	)
	framesMalformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "decoder",
			Name:      "malformed_frames_total",
			Help:      "Frames discarded as malformed, by message type.",
		},
		[]string{"type"},
	)
	resyncBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "decoder",
			Name:      "resync_bytes_total",
			Help:      "Bytes skipped while searching for a frame header.",
		},
	)
	rowsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "sink",
			Name:      "rows_inserted_total",
			Help:      "Rows written to the sink.",
		},
	)
	tablesEnsured = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "sink",
			Name:      "tables_ensured_total",
			Help:      "EnsureTable calls issued for registered descriptors.",
		},
	)
	sessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "daqd",
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Sessions ended, by error kind.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, framesMalformed, resyncBytes, rowsInserted, tablesEnsured, sessionsEnded)
	})
}

func RecordFrame(msgType string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(msgType).Inc()
}

func RecordMalformed(msgType string) {
	RegisterMetrics()
	framesMalformed.WithLabelValues(msgType).Inc()
}

func RecordResync(skipped int) {
	RegisterMetrics()
	resyncBytes.Add(float64(skipped))
}

func RecordRow() {
	RegisterMetrics()
	rowsInserted.Inc()
}

func RecordTable() {
	RegisterMetrics()
	tablesEnsured.Inc()
}

func RecordSessionEnd(kind string) {
	RegisterMetrics()
	sessionsEnded.WithLabelValues(kind).Inc()
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
