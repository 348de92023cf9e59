package metrics

import "strings"

// Category names one class of performance timeline entries.
type Category string

const (
	CategoryPaint                  Category = "paint"
	CategoryLargestContentfulPaint Category = "largest-contentful-paint"
	CategoryLayoutShift            Category = "layout-shift"
	CategoryLongTask               Category = "longtask"
)

// Categories lists the observed categories in registration order.
var Categories = []Category{
	CategoryPaint,
	CategoryLargestContentfulPaint,
	CategoryLayoutShift,
	CategoryLongTask,
}

// ParseCategory maps a category name, case-insensitively, to a Category.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// FirstContentfulPaint is the paint entry name that carries FCP.
const FirstContentfulPaint = "first-contentful-paint"

// Entry is a single performance timeline record. Fields that do not apply to
// an entry's category are left at zero.
type Entry struct {
	EntryType      string  `json:"entryType"`
	Name           string  `json:"name,omitempty"`
	StartTime      float64 `json:"startTime"`
	Duration       float64 `json:"duration,omitempty"`
	RenderTime     float64 `json:"renderTime,omitempty"`
	LoadTime       float64 `json:"loadTime,omitempty"`
	Value          float64 `json:"value,omitempty"`
	HadRecentInput bool    `json:"hadRecentInput,omitempty"`
}

// PaintTime returns the time a largest-contentful-paint candidate rendered:
// renderTime, falling back to loadTime, then startTime.
func (e Entry) PaintTime() float64 {
	switch {
	case e.RenderTime != 0:
		return e.RenderTime
	case e.LoadTime != 0:
		return e.LoadTime
	default:
		return e.StartTime
	}
}

// ResourceTiming is one completed network load from the resource timing buffer.
type ResourceTiming struct {
	Name            string  `json:"name"`
	InitiatorType   string  `json:"initiatorType,omitempty"`
	StartTime       float64 `json:"startTime"`
	Duration        float64 `json:"duration"`
	TransferSize    int64   `json:"transferSize,omitempty"`
	EncodedBodySize int64   `json:"encodedBodySize,omitempty"`
	DecodedBodySize int64   `json:"decodedBodySize,omitempty"`
}

// Bytes returns the network weight of the load. Transfer size wins when
// positive; cached responses that hide it fall back to the encoded body size.
func (r ResourceTiming) Bytes() int64 {
	if r.TransferSize > 0 {
		return r.TransferSize
	}
	if r.EncodedBodySize > 0 {
		return r.EncodedBodySize
	}
	return 0
}

// Visibility is the page visibility state.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)
