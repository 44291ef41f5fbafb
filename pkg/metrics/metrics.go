// Package metrics exposes Prometheus counters for assistant turns.
//
// All methods are safe to call on a nil *Metrics, so components take an
// optional *Metrics and record unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "julesvoice"

// Input labels.
const (
	InputVoice = "voice"
	InputText  = "text"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics contains the Prometheus metrics of one assistant.
type Metrics struct {
	Turns                 *prometheus.CounterVec
	TurnDuration          *prometheus.HistogramVec
	ToolDispatches        *prometheus.CounterVec
	BackendRounds         *prometheus.CounterVec
	TranscriptionFailures prometheus.Counter
	State                 *prometheus.GaugeVec
}

// New creates the metrics and registers them on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of completed turns by input kind and outcome",
		}, []string{"input", "outcome"}),
		TurnDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time from end of input to final answer",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
		}, []string{"input"}),
		ToolDispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatches_total",
			Help:      "Total number of tool dispatches by tool and outcome",
		}, []string{"tool", "outcome"}),
		BackendRounds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_rounds_total",
			Help:      "Total number of language backend requests by round and outcome",
		}, []string{"round", "outcome"}),
		TranscriptionFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_failures_total",
			Help:      "Total number of failed transcriptions",
		}),
		State: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "1 for the current capture state, 0 otherwise",
		}, []string{"state"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// RecordTurn records a finished turn.
func (m *Metrics) RecordTurn(input string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(input, outcome(err)).Inc()
	m.TurnDuration.WithLabelValues(input).Observe(d.Seconds())
}

// RecordToolDispatch records one tool dispatch. failed is true when the
// tool result carries an error.
func (m *Metrics) RecordToolDispatch(tool string, failed bool) {
	if m == nil {
		return
	}
	o := OutcomeOK
	if failed {
		o = OutcomeError
	}
	m.ToolDispatches.WithLabelValues(tool, o).Inc()
}

// RecordBackendRound records one request to the language backend.
func (m *Metrics) RecordBackendRound(round string, err error) {
	if m == nil {
		return
	}
	m.BackendRounds.WithLabelValues(round, outcome(err)).Inc()
}

// RecordTranscriptionFailure counts a failed transcription.
func (m *Metrics) RecordTranscriptionFailure() {
	if m == nil {
		return
	}
	m.TranscriptionFailures.Inc()
}

// SetState marks state as current among states.
func (m *Metrics) SetState(state string, states ...string) {
	if m == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		m.State.WithLabelValues(s).Set(v)
	}
}
