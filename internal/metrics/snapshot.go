package metrics

import (
	"bytes"
	"encoding/json"
	"time"
)

// Snapshot is an immutable copy of a page's metrics at publication time.
// Pointer fields are nil while the metric is unknown.
type Snapshot struct {
	PageLoadID string    `json:"pageLoadId"`
	Seq        uint64    `json:"seq"`
	CapturedAt time.Time `json:"capturedAt"`

	FCP           *float64        `json:"fcp"`
	LCP           *float64        `json:"lcp"`
	CLS           *float64        `json:"cls"`
	TBTApprox     *float64        `json:"tbtApprox"`
	LongTasks     *int            `json:"longTasks"`
	LongTasksTime *float64        `json:"longTasksTime"`
	TotalRequests int             `json:"totalRequests"`
	TotalBytes    int64           `json:"totalBytes"`
	Navigation    json.RawMessage `json:"navigation"`

	Visibility   Visibility       `json:"visibility,omitempty"`
	Capabilities Capabilities     `json:"capabilities"`
	Resources    []ResourceTiming `json:"resources,omitempty"`
}

// HasNavigation reports whether the snapshot carries a navigation entry.
func (s Snapshot) HasNavigation() bool {
	trimmed := bytes.TrimSpace(s.Navigation)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Metric names shared by budgets and comparisons.
const (
	MetricFCP       = "fcp"
	MetricLCP       = "lcp"
	MetricCLS       = "cls"
	MetricTBT       = "tbt"
	MetricLongTasks = "long_tasks"
	MetricRequests  = "requests"
	MetricBytes     = "bytes"
)

// MetricNames lists every name accepted by Snapshot.Value.
var MetricNames = []string{
	MetricFCP,
	MetricLCP,
	MetricCLS,
	MetricTBT,
	MetricLongTasks,
	MetricRequests,
	MetricBytes,
}

// Value returns the named metric and whether it is known.
func (s Snapshot) Value(metric string) (float64, bool) {
	switch metric {
	case MetricFCP:
		return deref(s.FCP)
	case MetricLCP:
		return deref(s.LCP)
	case MetricCLS:
		return deref(s.CLS)
	case MetricTBT:
		return deref(s.TBTApprox)
	case MetricLongTasks:
		if s.LongTasks == nil {
			return 0, false
		}
		return float64(*s.LongTasks), true
	case MetricRequests:
		return float64(s.TotalRequests), s.TotalRequests > 0
	case MetricBytes:
		return float64(s.TotalBytes), s.TotalRequests > 0
	default:
		return 0, false
	}
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
