// Package browser implements a metrics.Runtime backed by a live Chromium tab
// driven over the DevTools protocol.
//
// An embedded relay script is injected into every new document. It observes
// the performance timeline in the page and reports batches back through a
// Runtime binding; the Runtime decodes them and hands them to the observers
// registered by a metrics.Page.
package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/torosent/perfpanel/internal/metrics"
)

// BindingName is the page-side function the relay script reports through.
const BindingName = "__perfpanel"

const probeExpression = `JSON.stringify(typeof PerformanceObserver === "undefined" ? [] : (PerformanceObserver.supportedEntryTypes || []))`

//go:embed relay.js
var relayScript string

// Conn is the part of a DevTools client the Runtime needs.
type Conn interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	On(method string, fn func(params json.RawMessage))
}

// Runtime serves exactly one document: the first one the relay reports
// from after New. Reports from later documents are dropped and Replaced is
// closed. Only the default execution context of the tab's main frame is
// listened to; reports from iframes and isolated worlds are dropped.
type Runtime struct {
	conn      Conn
	ctx       context.Context
	log       logrus.FieldLogger
	supported map[metrics.Category]bool
	disabled  []metrics.Category

	// deliverMu orders deliveries from the dispatch goroutine against
	// backlog deliveries made from Observe.
	deliverMu sync.Mutex

	mu         sync.Mutex
	mainFrame  string
	contexts   map[int64]bool
	origin     float64
	hasOrigin  bool
	observers  map[metrics.Category]*observer
	backlog    map[metrics.Category][]metrics.Entry
	resources  []metrics.ResourceTiming
	navigation json.RawMessage
	onVisible  []func(metrics.Visibility)
	onLoad     []func()

	replaced     chan struct{}
	replacedOnce sync.Once
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

// WithUnsupported refuses to observe cats even if the browser supports them.
func WithUnsupported(cats ...metrics.Category) Option {
	return func(r *Runtime) { r.disabled = append(r.disabled, cats...) }
}

// New probes the browser for supported entry types, installs the binding
// and registers the relay script for every new document. It does not
// navigate; call Navigate once a Page has been started on the runtime.
func New(ctx context.Context, conn Conn, opts ...Option) (*Runtime, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	r := &Runtime{
		conn:      conn,
		ctx:       ctx,
		log:       discard,
		supported: make(map[metrics.Category]bool),
		observers: make(map[metrics.Category]*observer),
		backlog:   make(map[metrics.Category][]metrics.Entry),
		contexts:  make(map[int64]bool),
		replaced:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	types, err := r.probe(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if c, ok := metrics.ParseCategory(t); ok {
			r.supported[c] = true
		}
	}
	for _, c := range r.disabled {
		delete(r.supported, c)
	}
	r.log.WithField("entry_types", types).Debug("Probed supported entry types")

	if _, err := conn.Call(ctx, "Page.enable", nil); err != nil {
		return nil, fmt.Errorf("failed to install relay (Page.enable): %w", err)
	}
	tree, err := conn.Call(ctx, "Page.getFrameTree", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve main frame: %w", err)
	}
	r.mainFrame = gjson.GetBytes(tree, "frameTree.frame.id").String()
	if r.mainFrame == "" {
		return nil, fmt.Errorf("failed to resolve main frame: empty frame tree")
	}

	conn.On("Runtime.executionContextCreated", r.handleContextCreated)
	conn.On("Runtime.executionContextDestroyed", r.handleContextDestroyed)
	conn.On("Runtime.executionContextsCleared", r.handleContextsCleared)
	conn.On("Runtime.bindingCalled", r.handleBinding)

	steps := []struct {
		method string
		params any
	}{
		{"Runtime.enable", nil},
		{"Runtime.addBinding", map[string]any{"name": BindingName}},
		{"Page.addScriptToEvaluateOnNewDocument", map[string]any{"source": relayScript}},
	}
	for _, s := range steps {
		if _, err := conn.Call(ctx, s.method, s.params); err != nil {
			return nil, fmt.Errorf("failed to install relay (%s): %w", s.method, err)
		}
	}
	return r, nil
}

func (r *Runtime) probe(ctx context.Context) ([]string, error) {
	res, err := r.conn.Call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    probeExpression,
		"returnByValue": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to probe supported entry types: %w", err)
	}
	if exc := gjson.GetBytes(res, "exceptionDetails.text"); exc.Exists() {
		return nil, fmt.Errorf("failed to probe supported entry types: %s", exc.String())
	}
	list := gjson.Parse(gjson.GetBytes(res, "result.value").String())
	var types []string
	for _, t := range list.Array() {
		types = append(types, t.String())
	}
	return types, nil
}

// Navigate loads target in the tab.
func (r *Runtime) Navigate(ctx context.Context, target string) error {
	res, err := r.conn.Call(ctx, "Page.navigate", map[string]any{"url": target})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	if text := gjson.GetBytes(res, "errorText").String(); text != "" {
		return fmt.Errorf("failed to navigate to %s: %s", target, text)
	}
	return nil
}

// Replaced is closed when the tab moves on to another document.
func (r *Runtime) Replaced() <-chan struct{} { return r.replaced }

// Observe implements metrics.Runtime. Entries that arrived before the call
// are delivered before it returns.
func (r *Runtime) Observe(c metrics.Category, fn func([]metrics.Entry)) (metrics.Observer, error) {
	if !r.supported[c] {
		return nil, metrics.UnsupportedError(c)
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	obs := &observer{rt: r, category: c, fn: fn}
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

func (r *Runtime) handleContextCreated(params json.RawMessage) {
	c := gjson.GetBytes(params, "context")
	if !c.Get("auxData.isDefault").Bool() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Get("auxData.frameId").String() == r.mainFrame {
		r.contexts[c.Get("id").Int()] = true
	}
}

func (r *Runtime) handleContextDestroyed(params json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, gjson.GetBytes(params, "executionContextId").Int())
}

func (r *Runtime) handleContextsCleared(json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.contexts)
}

func (r *Runtime) fromMainFrame(contextID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contexts[contextID]
}

func (r *Runtime) handleBinding(params json.RawMessage) {
	call := gjson.ParseBytes(params)
	if call.Get("name").String() != BindingName {
		return
	}
	if id := call.Get("executionContextId").Int(); !r.fromMainFrame(id) {
		r.log.WithField("context", id).Debug("Ignoring relay report from another frame")
		return
	}
	msg := gjson.Parse(call.Get("payload").String())
	kind := msg.Get("t").String()

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	if !r.sameDocument(kind, msg.Get("o").Float(), msg.Get("url").String()) {
		return
	}

	switch kind {
	case msgInit:
	case msgEntries:
		c, ok := metrics.ParseCategory(msg.Get("c").String())
		if !ok {
			r.log.WithField("category", msg.Get("c").String()).Debug("Ignoring entries of unknown category")
			return
		}
		r.deliver(c, decodeEntries(msg.Get("e")))
	case msgResource:
		entries := decodeResources(msg.Get("e"))
		r.mu.Lock()
		r.resources = append(r.resources, entries...)
		r.mu.Unlock()
	case msgNavigation:
		if nav := decodeNavigation(msg.Get("e")); nav != nil {
			r.mu.Lock()
			r.navigation = nav
			r.mu.Unlock()
		}
	case msgVisibility:
		v := metrics.Visibility(msg.Get("s").String())
		r.mu.Lock()
		hooks := slices.Clone(r.onVisible)
		r.mu.Unlock()
		for _, fn := range hooks {
			fn(v)
		}
	case msgLoad:
		r.mu.Lock()
		hooks := slices.Clone(r.onLoad)
		r.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	default:
		r.log.WithField("kind", kind).Debug("Ignoring unknown relay message")
	}
}

func (r *Runtime) sameDocument(kind string, origin float64, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasOrigin {
		r.origin, r.hasOrigin = origin, true
		r.log.WithField("url", url).Debug("Relay attached")
		return true
	}
	if origin == r.origin {
		return true
	}
	if kind == msgInit {
		r.replacedOnce.Do(func() {
			r.log.WithField("url", url).Info("Tab moved to a new document; no longer measuring")
			close(r.replaced)
		})
	}
	return false
}

func (r *Runtime) deliver(c metrics.Category, entries []metrics.Entry) {
	if len(entries) == 0 {
		return
	}
	r.mu.Lock()
	obs, ok := r.observers[c]
	if !ok {
		r.backlog[c] = append(r.backlog[c], entries...)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	if obs.active() {
		obs.fn(entries)
	}
}

type observer struct {
	rt       *Runtime
	category metrics.Category
	fn       func([]metrics.Entry)
	closed   bool
}

func (o *observer) active() bool {
	o.rt.mu.Lock()
	defer o.rt.mu.Unlock()
	return !o.closed
}

// TakeRecords returns nothing: the relay flushes pending records itself
// before it reports the page hidden.
func (o *observer) TakeRecords() []metrics.Entry { return nil }

// Disconnect stops delivery and asks the relay to drop its page observer.
func (o *observer) Disconnect() {
	r := o.rt
	r.mu.Lock()
	if o.closed {
		r.mu.Unlock()
		return
	}
	o.closed = true
	r.mu.Unlock()

	expr := "window.__perfpanelDisconnect && window.__perfpanelDisconnect(" + strconv.Quote(string(o.category)) + ")"
	go func() {
		ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
		defer cancel()
		if _, err := r.conn.Call(ctx, "Runtime.evaluate", map[string]any{"expression": expr}); err != nil {
			r.log.WithError(err).WithField("category", o.category).Debug("Failed to disconnect page observer")
		}
	}()
}
