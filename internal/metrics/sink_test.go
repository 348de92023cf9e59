package metrics

import "testing"

func TestSlotKeepsLatest(t *testing.T) {
	var slot Slot
	if _, ok := slot.Latest(); ok {
		t.Fatal("expected empty slot")
	}
	slot.Publish(Snapshot{Seq: 1})
	slot.Publish(Snapshot{Seq: 2})

	got, ok := slot.Latest()
	if !ok || got.Seq != 2 {
		t.Errorf("expected seq 2, got %d (ok=%v)", got.Seq, ok)
	}
}

func TestSinksFanOut(t *testing.T) {
	var a, b Slot
	var calls int
	sinks := Sinks{&a, nil, SinkFunc(func(Snapshot) { calls++ }), &b}
	sinks.Publish(Snapshot{Seq: 7})

	for _, s := range []*Slot{&a, &b} {
		if got, _ := s.Latest(); got.Seq != 7 {
			t.Errorf("expected seq 7, got %d", got.Seq)
		}
	}
	if calls != 1 {
		t.Errorf("expected func sink called once, got %d", calls)
	}
}

func TestSnapshotValue(t *testing.T) {
	fcp := 120.0
	tasks := 3
	snap := Snapshot{FCP: &fcp, LongTasks: &tasks, TotalRequests: 4, TotalBytes: 1700}

	tests := []struct {
		metric string
		want   float64
		known  bool
	}{
		{MetricFCP, 120, true},
		{MetricLCP, 0, false},
		{MetricCLS, 0, false},
		{MetricLongTasks, 3, true},
		{MetricRequests, 4, true},
		{MetricBytes, 1700, true},
		{"nope", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			got, ok := snap.Value(tt.metric)
			if got != tt.want || ok != tt.known {
				t.Errorf("Value(%q) = %v, %v; want %v, %v", tt.metric, got, ok, tt.want, tt.known)
			}
		})
	}
}
