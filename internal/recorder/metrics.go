// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

type metrics struct {
	events        *prometheus.CounterVec
	eventErrors   *prometheus.CounterVec
	recordsOK     prometheus.Counter
	writeDuration prometheus.Histogram
	latitude      prometheus.Gauge
	longitude     prometheus.Gauge
}

// newMetrics registers the recorder metrics. A nil registerer disables them.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navrecorder",
			Name:      "events_total",
			Help:      "Events handled, by kind",
		}, []string{"kind"}),
		eventErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navrecorder",
			Name:      "event_errors_total",
			Help:      "Events whose handling returned an error, by kind",
		}, []string{"kind"}),
		recordsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navrecorder",
			Name:      "records_written_total",
			Help:      "Records acknowledged by the store",
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navrecorder",
			Name:      "write_duration_seconds",
			Help:      "Store write latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		latitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navrecorder",
			Name:      "position_latitude",
			Help:      "Latitude of the current position",
		}),
		longitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navrecorder",
			Name:      "position_longitude",
			Help:      "Longitude of the current position",
		}),
	}
	for _, c := range []prometheus.Collector{m.events, m.eventErrors, m.recordsOK, m.writeDuration, m.latitude, m.longitude} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observeEvent(kind navdata.Kind, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind.String()).Inc()
	if err != nil {
		m.eventErrors.WithLabelValues(kind.String()).Inc()
	}
}

func (m *metrics) observeWrite(start time.Time, err error) {
	if m == nil {
		return
	}
	m.writeDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		m.recordsOK.Inc()
	}
}

func (m *metrics) observePosition(p navdata.Position) {
	if m == nil {
		return
	}
	m.latitude.Set(p.Latitude)
	m.longitude.Set(p.Longitude)
}
