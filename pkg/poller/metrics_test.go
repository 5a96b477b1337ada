package poller

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.recordTick(true, 0.25)
	m.recordTick(true, 0.5)
	m.recordTick(false, 4)
	m.recordServer("alpha", 128, true)
	m.recordServer("beta", 0, false)

	if got := testutil.ToFloat64(m.ticksTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ticksTotal.WithLabelValues("aborted")); got != 1 {
		t.Errorf("aborted ticks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tickDuration); got != 4 {
		t.Errorf("tick duration = %v, want the last recorded 4", got)
	}
	if got := testutil.ToFloat64(m.players.WithLabelValues("alpha")); got != 128 {
		t.Errorf("alpha players = %v, want 128", got)
	}
	if got := testutil.ToFloat64(m.online.WithLabelValues("beta")); got != 0 {
		t.Errorf("beta online = %v, want 0", got)
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.recordTick(true, 1)
	m.recordServer("alpha", 1, true)
}
