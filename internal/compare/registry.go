package compare

import (
	"fmt"

	"github.com/torosent/perfpanel/internal/metrics"
)

// MetricDef defines a single metric for use across all comparison outputs
// (Markdown, CSV, the interactive view). Every metric is lower-is-better.
type MetricDef struct {
	Name       string
	Label      string
	Extractor  func(metrics.Snapshot) (float64, bool)
	Format     func(float64) string
	DetailOnly bool // true = only in detailed outputs (CSV, expanded view)
}

// Registry is the single source of truth for which metrics appear in
// comparison outputs. Markdown and the default view use entries where
// DetailOnly is false; CSV includes all entries.
var Registry = []MetricDef{
	// --- Core metrics ---
	{Name: metrics.MetricFCP, Label: "First Contentful Paint", Extractor: byName(metrics.MetricFCP), Format: formatMs},
	{Name: metrics.MetricLCP, Label: "Largest Contentful Paint", Extractor: byName(metrics.MetricLCP), Format: formatMs},
	{Name: metrics.MetricCLS, Label: "Cumulative Layout Shift", Extractor: byName(metrics.MetricCLS), Format: formatScore},
	{Name: metrics.MetricTBT, Label: "Total Blocking Time (≈)", Extractor: byName(metrics.MetricTBT), Format: formatMs},
	{Name: metrics.MetricRequests, Label: "Requests", Extractor: byName(metrics.MetricRequests), Format: formatCount},
	{Name: metrics.MetricBytes, Label: "Total Weight", Extractor: byName(metrics.MetricBytes), Format: formatKB},

	// --- Detail-only metrics ---
	{Name: metrics.MetricLongTasks, Label: "Long Tasks", Extractor: byName(metrics.MetricLongTasks), Format: formatCount, DetailOnly: true},
	{Name: "long_tasks_time", Label: "Long Task Time", Extractor: longTasksTime, Format: formatMs, DetailOnly: true},
}

func byName(name string) func(metrics.Snapshot) (float64, bool) {
	return func(s metrics.Snapshot) (float64, bool) { return s.Value(name) }
}

func longTasksTime(s metrics.Snapshot) (float64, bool) {
	if s.LongTasksTime == nil {
		return 0, false
	}
	return *s.LongTasksTime, true
}

func formatMs(v float64) string    { return fmt.Sprintf("%.0f ms", v) }
func formatScore(v float64) string { return fmt.Sprintf("%.3f", v) }
func formatCount(v float64) string { return fmt.Sprintf("%.0f", v) }
func formatKB(v float64) string    { return fmt.Sprintf("%.1f KB", v/1024) }
