package metrics

import (
	"encoding/json"
	"math"
)

// longTaskBlockingThreshold is the part of a long task that does not block
// input, in milliseconds.
const longTaskBlockingThreshold = 50.0

// State is the mutable record the collectors write to. A Page owns exactly
// one State for the lifetime of a page load.
type State struct {
	FCP          *float64
	LCP          *float64
	CLS          float64
	LongTasks    int
	LongTaskTime float64
	TBTApprox    float64

	Resources     []ResourceTiming
	TotalRequests int
	TotalBytes    int64
	Navigation    json.RawMessage
	Visibility    Visibility
}

// collector folds the entries of one category into the fields of State it
// owns. handle reports whether the batch should trigger a recompute.
type collector interface {
	category() Category
	attach(obs Observer)
	handle(s *State, entries []Entry) bool
}

// paintCollector records FCP once and then disconnects.
type paintCollector struct {
	obs  Observer
	done bool
}

func (c *paintCollector) category() Category { return CategoryPaint }

func (c *paintCollector) attach(obs Observer) {
	c.obs = obs
	if c.done && obs != nil {
		obs.Disconnect()
	}
}

func (c *paintCollector) handle(s *State, entries []Entry) bool {
	if c.done {
		return false
	}
	for _, e := range entries {
		if e.Name != FirstContentfulPaint {
			continue
		}
		fcp := e.StartTime
		s.FCP = &fcp
		c.done = true
		if c.obs != nil {
			c.obs.Disconnect()
		}
		return true
	}
	return false
}

// lcpCollector keeps the last candidate until the page is hidden.
type lcpCollector struct {
	obs   Observer
	final bool
}

func (c *lcpCollector) category() Category { return CategoryLargestContentfulPaint }

func (c *lcpCollector) attach(obs Observer) { c.obs = obs }

func (c *lcpCollector) handle(s *State, entries []Entry) bool {
	if c.final {
		return false
	}
	for _, e := range entries {
		lcp := e.PaintTime()
		s.LCP = &lcp
	}
	return true
}

// finalize applies any candidates still queued in the observer and freezes
// the value. Candidates delivered afterwards are ignored.
func (c *lcpCollector) finalize(s *State) {
	if c.final {
		return
	}
	if c.obs != nil {
		if pending := c.obs.TakeRecords(); len(pending) > 0 {
			c.handle(s, pending)
		}
	}
	c.final = true
}

type layoutShiftCollector struct{}

func (layoutShiftCollector) category() Category { return CategoryLayoutShift }

func (layoutShiftCollector) attach(Observer) {}

func (layoutShiftCollector) handle(s *State, entries []Entry) bool {
	for _, e := range entries {
		// Shifts right after user input are expected, not a regression.
		if e.HadRecentInput || !(e.Value > 0) || math.IsInf(e.Value, 1) {
			continue
		}
		s.CLS += e.Value
	}
	return true
}

type longTaskCollector struct{}

func (longTaskCollector) category() Category { return CategoryLongTask }

func (longTaskCollector) attach(Observer) {}

func (longTaskCollector) handle(s *State, entries []Entry) bool {
	for _, e := range entries {
		if e.Duration < 0 {
			continue
		}
		s.LongTasks++
		s.LongTaskTime += e.Duration
		if blocking := e.Duration - longTaskBlockingThreshold; blocking > 0 {
			s.TBTApprox += blocking
		}
	}
	return true
}
