package client

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the session's silent drop paths (batch-element decode
// failures, stale-stream_id frames) and observed heartbeats, without
// surfacing any of them as DataMessages.
type Metrics struct {
	DecodeDrops prometheus.Counter
	StaleFrames prometheus.Counter
	Heartbeats  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecodeDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "client",
			Name:      "batch_element_decode_drops_total",
			Help:      "Batch elements silently dropped due to decode failure.",
		}),
		StaleFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "client",
			Name:      "stale_frames_total",
			Help:      "Responses discarded for stale stream_id or empty message.",
		}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaindna",
			Subsystem: "client",
			Name:      "heartbeats_total",
			Help:      "Heartbeats observed.",
		}),
	}
	reg.MustRegister(m.DecodeDrops, m.StaleFrames, m.Heartbeats)
	return m
}
