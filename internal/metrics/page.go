package metrics

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Page aggregates the metrics of one page load.
//
// Every collector callback, visibility change and recompute runs under one
// lock, so each of them sees and leaves State in a consistent condition no
// matter which goroutine the Runtime delivers on.
type Page struct {
	mu      sync.Mutex
	rt      Runtime
	sink    Sink
	log     logrus.FieldLogger
	now     func() time.Time
	id      ulid.ULID
	seq     uint64
	started bool

	state      State
	caps       Capabilities
	collectors []collector
	lcp        *lcpCollector
}

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the logger used for registration and publication events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Page) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(p *Page) {
		if now != nil {
			p.now = now
		}
	}
}

// WithID sets the page load id instead of generating one.
func WithID(id ulid.ULID) Option {
	return func(p *Page) { p.id = id }
}

// NewPage creates the aggregator for a fresh page load. sink may be nil.
func NewPage(rt Runtime, sink Sink, opts ...Option) *Page {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	lcp := &lcpCollector{}
	p := &Page{
		rt:   rt,
		sink: sink,
		log:  discard,
		now:  time.Now,
		id:   ulid.Make(),
		caps: make(Capabilities, len(Categories)),
		lcp:  lcp,
		collectors: []collector{
			&paintCollector{},
			lcp,
			layoutShiftCollector{},
			longTaskCollector{},
		},
	}
	for _, c := range Categories {
		p.caps[c] = StatusPending
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithField("page_load", p.id.String())
	return p
}

// ID returns the page load id stamped on every snapshot.
func (p *Page) ID() string { return p.id.String() }

// Start registers the collectors and lifecycle hooks. A category the runtime
// cannot observe is marked unsupported and the remaining ones still
// register. Calling Start more than once has no effect.
func (p *Page) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	// Observe may deliver buffered entries synchronously, so the lock is
	// not held across registration.
	for _, c := range p.collectors {
		p.register(c)
	}
	p.rt.OnVisibilityChange(p.onVisibility)
	p.rt.OnLoad(p.Recompute)
}

func (p *Page) register(c collector) {
	cat := c.category()
	obs, err := p.rt.Observe(cat, p.handler(c))

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.caps[cat] = StatusUnsupported
		p.log.WithError(err).WithField("category", cat).Debug("collector not registered")
		return
	}
	p.caps[cat] = StatusSupported
	c.attach(obs)
	p.log.WithField("category", cat).Debug("collector registered")
}

func (p *Page) handler(c collector) func([]Entry) {
	cat := c.category()
	return func(entries []Entry) {
		p.mu.Lock()
		defer p.mu.Unlock()
		// A delivery proves support even if registration has not returned yet.
		if p.caps[cat] == StatusPending {
			p.caps[cat] = StatusSupported
		}
		if c.handle(&p.state, entries) {
			p.recomputeLocked()
		}
	}
}

func (p *Page) onVisibility(v Visibility) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Visibility = v
	if v != VisibilityHidden {
		return
	}
	p.lcp.finalize(&p.state)
	p.recomputeLocked()
}

// Recompute re-reads the resource and navigation buffers, builds a new
// snapshot from the current state and publishes it.
func (p *Page) Recompute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recomputeLocked()
}

func (p *Page) recomputeLocked() {
	sum := SummarizeResources(p.rt.Resources())
	p.state.Resources = sum.Entries
	p.state.TotalRequests = sum.TotalRequests
	p.state.TotalBytes = sum.TotalBytes
	if nav := p.rt.Navigation(); len(nav) > 0 {
		p.state.Navigation = nav
	}

	p.seq++
	snap := p.snapshotLocked()
	if p.sink != nil {
		p.sink.Publish(snap)
	}
	p.log.WithFields(logrus.Fields{
		"seq":      snap.Seq,
		"requests": snap.TotalRequests,
		"bytes":    snap.TotalBytes,
	}).Debug("snapshot published")
}

func (p *Page) snapshotLocked() Snapshot {
	s := p.state
	snap := Snapshot{
		PageLoadID:    p.id.String(),
		Seq:           p.seq,
		CapturedAt:    p.now(),
		TotalRequests: s.TotalRequests,
		TotalBytes:    s.TotalBytes,
		Visibility:    s.Visibility,
		Capabilities:  make(Capabilities, len(p.caps)),
		Resources:     make([]ResourceTiming, len(s.Resources)),
	}
	for c, st := range p.caps {
		snap.Capabilities[c] = st
	}
	copy(snap.Resources, s.Resources)
	if s.Navigation != nil {
		snap.Navigation = json.RawMessage(bytes.Clone(s.Navigation))
	}

	if p.caps.Supported(CategoryPaint) && s.FCP != nil {
		snap.FCP = floatPtr(*s.FCP)
	}
	if p.caps.Supported(CategoryLargestContentfulPaint) && s.LCP != nil {
		snap.LCP = floatPtr(*s.LCP)
	}
	if p.caps.Supported(CategoryLayoutShift) {
		snap.CLS = floatPtr(s.CLS)
	}
	if p.caps.Supported(CategoryLongTask) {
		snap.TBTApprox = floatPtr(s.TBTApprox)
		snap.LongTasks = intPtr(s.LongTasks)
		snap.LongTasksTime = floatPtr(s.LongTaskTime)
	}
	return snap
}
