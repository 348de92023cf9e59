// Package replay implements a metrics.Runtime that plays back a recorded
// timeline, optionally seeded with resources from a HAR capture.
package replay

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/har"
	"github.com/torosent/perfpanel/internal/metrics"
)

// Runtime dispatches timeline events from the goroutine calling Run.
type Runtime struct {
	log         logrus.FieldLogger
	events      []Event
	speed       float64
	unsupported map[metrics.Category]bool

	mu         sync.Mutex
	observers  map[metrics.Category]*observer
	backlog    map[metrics.Category][]metrics.Entry
	resources  []metrics.ResourceTiming
	navigation json.RawMessage
	onVisible  []func(metrics.Visibility)
	onLoad     []func()
}

var _ metrics.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSpeed paces playback by each event's offset divided by factor. A
// factor of zero or less plays back as fast as possible.
func WithSpeed(factor float64) Option {
	return func(r *Runtime) { r.speed = factor }
}

// WithUnsupported marks categories the runtime refuses to observe, in
// addition to those declared by the timeline.
func WithUnsupported(cats ...metrics.Category) Option {
	return func(r *Runtime) {
		for _, c := range cats {
			r.unsupported[c] = true
		}
	}
}

// WithSeed pre-fills the resource buffer and navigation entry.
func WithSeed(tl *har.Timeline) Option {
	return func(r *Runtime) {
		if tl == nil {
			return
		}
		r.resources = append(r.resources, tl.Resources...)
		if len(tl.Navigation) > 0 {
			r.navigation = tl.Navigation
		}
	}
}

// New returns a runtime over events. Unsupported declarations in the
// timeline take effect immediately.
func New(events []Event, opts ...Option) *Runtime {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	r := &Runtime{
		log:         discard,
		events:      events,
		unsupported: make(map[metrics.Category]bool),
		observers:   make(map[metrics.Category]*observer),
		backlog:     make(map[metrics.Category][]metrics.Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, ev := range events {
		if ev.Kind == KindUnsupported {
			r.unsupported[ev.Category] = true
		}
	}
	return r
}

// Run plays the timeline. It returns ctx.Err() if cancelled before the last
// event and nil otherwise.
func (r *Runtime) Run(ctx context.Context) error {
	start := time.Now()
	for i, ev := range r.events {
		if err := r.wait(ctx, start, ev.At); err != nil {
			return err
		}
		r.log.WithFields(logrus.Fields{"event": i, "kind": ev.Kind, "at": ev.At}).Trace("Replaying event")
		r.dispatch(ev)
	}
	return ctx.Err()
}

func (r *Runtime) wait(ctx context.Context, start time.Time, at float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.speed <= 0 {
		return nil
	}
	due := time.Duration(at / r.speed * float64(time.Millisecond))
	delay := due - time.Since(start)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) dispatch(ev Event) {
	switch ev.Kind {
	case KindEntries:
		r.deliver(ev.Category, ev.Entries)
	case KindResource:
		r.mu.Lock()
		r.resources = append(r.resources, *ev.Resource)
		r.mu.Unlock()
	case KindNavigation:
		r.mu.Lock()
		r.navigation = append(json.RawMessage(nil), ev.Navigation...)
		r.mu.Unlock()
	case KindVisibility:
		r.mu.Lock()
		hooks := slices.Clone(r.onVisible)
		r.mu.Unlock()
		for _, fn := range hooks {
			fn(ev.State)
		}
	case KindLoad:
		r.mu.Lock()
		hooks := slices.Clone(r.onLoad)
		r.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	}
}

func (r *Runtime) deliver(c metrics.Category, entries []metrics.Entry) {
	if len(entries) == 0 || r.unsupported[c] {
		return
	}
	r.mu.Lock()
	obs, ok := r.observers[c]
	if !ok {
		r.backlog[c] = append(r.backlog[c], entries...)
		r.mu.Unlock()
		return
	}
	closed := obs.closed
	r.mu.Unlock()
	if !closed {
		obs.fn(append([]metrics.Entry(nil), entries...))
	}
}

// Observe implements metrics.Runtime.
func (r *Runtime) Observe(c metrics.Category, fn func([]metrics.Entry)) (metrics.Observer, error) {
	if r.unsupported[c] {
		return nil, metrics.UnsupportedError(c)
	}
	obs := &observer{rt: r, fn: fn}
	r.mu.Lock()
	r.observers[c] = obs
	pending := r.backlog[c]
	delete(r.backlog, c)
	r.mu.Unlock()
	if len(pending) > 0 {
		fn(pending)
	}
	return obs, nil
}

// Resources implements metrics.Runtime.
func (r *Runtime) Resources() []metrics.ResourceTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.ResourceTiming(nil), r.resources...)
}

// Navigation implements metrics.Runtime.
func (r *Runtime) Navigation() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(json.RawMessage(nil), r.navigation...)
}

// OnVisibilityChange implements metrics.Runtime.
func (r *Runtime) OnVisibilityChange(fn func(metrics.Visibility)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onVisible = append(r.onVisible, fn)
}

// OnLoad implements metrics.Runtime.
func (r *Runtime) OnLoad(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLoad = append(r.onLoad, fn)
}

type observer struct {
	rt     *Runtime
	fn     func([]metrics.Entry)
	closed bool
}

func (o *observer) TakeRecords() []metrics.Entry { return nil }

func (o *observer) Disconnect() {
	o.rt.mu.Lock()
	o.closed = true
	o.rt.mu.Unlock()
}
