// Package metrics aggregates web performance signals of a single page load
// into immutable snapshots.
//
// The package knows nothing about browsers. A [Runtime] supplies timeline
// entries for four categories (paint, largest-contentful-paint, layout-shift
// and longtask), the resource and navigation timing buffers, and page
// lifecycle notifications. A [Page] folds those into a [State] and publishes
// a [Snapshot] to a [Sink] after every change.
//
// # Page
//
// One Page exists per page load:
//
//	slot := &metrics.Slot{}
//	page := metrics.NewPage(runtime, slot, metrics.WithLogger(log))
//	page.Start() // register collectors, visibility and load hooks
//
//	// Manual refresh, e.g. from a dashboard key binding.
//	page.Recompute()
//
//	snap, ok := slot.Latest()
//
// # Collectors
//
// Each category has one collector that owns a disjoint set of State fields:
//   - paint records the first-contentful-paint time once, then disconnects
//   - largest-contentful-paint keeps the last candidate (renderTime, else
//     loadTime, else startTime) until the page is hidden
//   - layout-shift sums shift values not preceded by recent input
//   - longtask counts tasks and accumulates duration and max(0, d-50ms)
//
// Categories arrive independently and in no particular order relative to
// each other. A category the runtime cannot observe is recorded as
// [StatusUnsupported] in [Snapshot.Capabilities] and its metrics stay nil.
//
// # Resources
//
// Resource totals are recomputed from the runtime's full buffer on every
// recompute by [SummarizeResources]: the document counts as one request and
// each entry weighs its transfer size, falling back to its encoded body size.
//
// # Thread Safety
//
// A Page serializes collector callbacks, visibility changes and Recompute
// under one mutex. Sinks are invoked with that mutex held and must not call
// back into the Page.
package metrics
