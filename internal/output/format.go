package output

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// FormatMs renders a millisecond value, or "-" when unknown.
func FormatMs(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f ms", *v)
}

// FormatScore renders a layout shift score, or "-" when unknown.
func FormatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

// FormatCount renders a count, or "-" when unknown.
func FormatCount(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// FormatRequests renders the request count. Zero means nothing was
// collected yet, since the document itself always counts.
func FormatRequests(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

// FormatKB renders a byte count in kibibytes. It shows "-" until requests
// have been counted.
func FormatKB(bytes int64, requests int) string {
	if requests <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}

// Timing is one milestone read from a navigation entry.
type Timing struct {
	Label string
	Ms    float64
}

var navigationMilestones = []struct {
	label string
	field string
}{
	{"TTFB", "responseStart"},
	{"DOM content loaded", "domContentLoadedEventEnd"},
	{"Load", "loadEventEnd"},
}

// NavigationTimings extracts the milestones present in a navigation entry.
func NavigationTimings(nav json.RawMessage) []Timing {
	if len(nav) == 0 || !gjson.ValidBytes(nav) {
		return nil
	}
	var out []Timing
	for _, m := range navigationMilestones {
		v := gjson.GetBytes(nav, m.field)
		if v.Exists() && v.Float() > 0 {
			out = append(out, Timing{Label: m.label, Ms: v.Float()})
		}
	}
	return out
}
