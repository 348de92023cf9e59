package metrics

import "sync/atomic"

// Sink receives every published snapshot. Publish is called with the page
// lock held and must not call back into the Page.
type Sink interface {
	Publish(Snapshot)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Snapshot)

// Publish calls f(s).
func (f SinkFunc) Publish(s Snapshot) { f(s) }

// Sinks fans a snapshot out to several sinks in order.
type Sinks []Sink

// Publish forwards s to every non-nil sink.
func (ss Sinks) Publish(s Snapshot) {
	for _, sink := range ss {
		if sink != nil {
			sink.Publish(s)
		}
	}
}

// Slot holds the latest published snapshot. Each publication replaces the
// previous one.
type Slot struct {
	latest atomic.Pointer[Snapshot]
}

// Publish stores s as the latest snapshot.
func (sl *Slot) Publish(s Snapshot) {
	sl.latest.Store(&s)
}

// Latest returns the most recent snapshot, if any was published.
func (sl *Slot) Latest() (Snapshot, bool) {
	p := sl.latest.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}
