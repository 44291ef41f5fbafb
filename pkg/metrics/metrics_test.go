package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordTurn(InputText, time.Second, nil)
	m.RecordToolDispatch("list_sources", false)
	m.RecordBackendRound("1", nil)
	m.RecordTranscriptionFailure()
	m.SetState("idle", "idle", "recording")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordTurn(InputVoice, 2*time.Second, nil)
	m.RecordTurn(InputVoice, time.Second, errors.New("boom"))
	m.RecordToolDispatch("create_task", true)
	m.RecordBackendRound("2", nil)
	m.RecordTranscriptionFailure()
	m.SetState("recording", "idle", "recording")

	if got := testutil.ToFloat64(m.Turns.WithLabelValues(InputVoice, OutcomeOK)); got != 1 {
		t.Errorf("turns ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Turns.WithLabelValues(InputVoice, OutcomeError)); got != 1 {
		t.Errorf("turns error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ToolDispatches.WithLabelValues("create_task", OutcomeError)); got != 1 {
		t.Errorf("tool dispatches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TranscriptionFailures); got != 1 {
		t.Errorf("transcription failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.State.WithLabelValues("idle")); got != 0 {
		t.Errorf("state idle = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.State.WithLabelValues("recording")); got != 1 {
		t.Errorf("state recording = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.TurnDuration); n != 1 {
		t.Errorf("turn duration series = %d, want 1", n)
	}
}
