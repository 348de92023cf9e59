package metrics

import "encoding/json"

// Observer is a live subscription to one category of timeline entries.
type Observer interface {
	// TakeRecords returns entries queued for the subscription but not yet
	// delivered, and removes them from the queue.
	TakeRecords() []Entry
	// Disconnect stops delivery. Further calls are no-ops.
	Disconnect()
}

// Runtime is the host that owns the page and its measurement buffers.
//
// Callbacks registered through a Runtime may be invoked from any goroutine,
// but a Runtime never invokes two of them at the same time for one page.
type Runtime interface {
	// Observe subscribes fn to a category. Buffered entries recorded before
	// the call are delivered as well. It returns an error wrapping
	// ErrUnsupported when the category cannot be observed.
	Observe(c Category, fn func([]Entry)) (Observer, error)
	// Resources returns a copy of the full resource timing buffer.
	Resources() []ResourceTiming
	// Navigation returns the raw navigation timing entry, or nil.
	Navigation() json.RawMessage
	// OnVisibilityChange registers fn for page visibility transitions.
	OnVisibilityChange(fn func(Visibility))
	// OnLoad registers fn to run shortly after the page finished loading.
	OnLoad(fn func())
}
