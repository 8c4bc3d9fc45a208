package analytics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusEmitter_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewPrometheusEmitter(reg)

	e.EmitItemSelected(ItemSelected{Reason: "overdue"})
	e.EmitItemSelected(ItemSelected{Reason: "overdue"})
	e.EmitItemSelected(ItemSelected{Reason: "new_primary"})

	if got := testutil.ToFloat64(e.itemsSelected.WithLabelValues("overdue")); got != 2 {
		t.Fatalf("overdue count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.itemsSelected.WithLabelValues("new_primary")); got != 1 {
		t.Fatalf("new_primary count = %v, want 1", got)
	}
}

func TestNoopEmitter_SatisfiesInterface(t *testing.T) {
	var e Emitter = NoopEmitter{}
	e.EmitSessionCompleted(SessionCompleted{})
}
