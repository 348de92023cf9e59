package har

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/perfpanel/internal/metrics"
)

// Timeline is the resource and navigation timing rebuilt from an archive.
type Timeline struct {
	Resources  []metrics.ResourceTiming
	Navigation json.RawMessage
}

// navigationEntry mirrors the navigation timing fields a HAR can supply.
type navigationEntry struct {
	EntryType                string  `json:"entryType"`
	Name                     string  `json:"name"`
	StartTime                float64 `json:"startTime"`
	Duration                 float64 `json:"duration"`
	ResponseStart            float64 `json:"responseStart"`
	DOMContentLoadedEventEnd float64 `json:"domContentLoadedEventEnd,omitempty"`
	LoadEventEnd             float64 `json:"loadEventEnd,omitempty"`
	TransferSize             int64   `json:"transferSize"`
	EncodedBodySize          int64   `json:"encodedBodySize"`
	DecodedBodySize          int64   `json:"decodedBodySize"`
}

// initiatorTypes maps Chromium resource types to resource timing initiator types.
var initiatorTypes = map[string]string{
	"script":     "script",
	"stylesheet": "link",
	"image":      "img",
	"font":       "css",
	"fetch":      "fetch",
	"xhr":        "xmlhttprequest",
	"media":      "video",
}

// ToTimeline rebuilds the resource timing buffer and the navigation entry of
// one page. The page's document request becomes the navigation entry; every
// other entry becomes a resource timing, in archive order.
func ToTimeline(doc *HAR, opts ConvertOptions) (*Timeline, error) {
	if doc == nil || doc.Log == nil {
		return nil, fmt.Errorf("HAR is nil or has nil Log")
	}

	page := selectPage(doc.Log, opts.PageRef)
	if opts.PageRef != "" && page == nil {
		return nil, fmt.Errorf("page %q not found in HAR", opts.PageRef)
	}

	var origin time.Time
	if page != nil {
		origin, _ = parseTime(page.StartedDateTime)
	}

	tl := &Timeline{}
	var document *Entry
	for _, entry := range doc.Log.Entries {
		if entry == nil || entry.Request == nil {
			continue
		}
		if page != nil && entry.PageRef != page.ID {
			continue
		}
		if origin.IsZero() {
			origin, _ = parseTime(entry.StartedDateTime)
		}
		if document == nil && isDocument(entry) {
			document = entry
			continue
		}
		if !shouldIncludeEntry(entry, opts) {
			continue
		}
		tl.Resources = append(tl.Resources, toResource(entry, origin))
	}

	if document != nil {
		nav, err := json.Marshal(toNavigation(document, page, origin))
		if err != nil {
			return nil, fmt.Errorf("encode navigation entry: %w", err)
		}
		tl.Navigation = nav
	}
	return tl, nil
}

func selectPage(log *Log, ref string) *Page {
	for _, p := range log.Pages {
		if p == nil {
			continue
		}
		if ref == "" || p.ID == ref {
			return p
		}
	}
	return nil
}

// isDocument reports whether entry is a page's main document request. Archives
// without resource types fall back to the first HTML response.
func isDocument(entry *Entry) bool {
	if entry.ResourceType != "" {
		return entry.ResourceType == "document"
	}
	if entry.Response == nil || entry.Response.Content == nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(entry.Response.Content.MimeType), "text/html")
}

// shouldIncludeEntry applies the host filters.
func shouldIncludeEntry(entry *Entry, opts ConvertOptions) bool {
	if len(opts.IncludeHosts) == 0 && len(opts.ExcludeHosts) == 0 {
		return true
	}
	parsedURL, err := url.Parse(entry.Request.URL)
	if err != nil {
		return false
	}
	host := parsedURL.Hostname()

	if len(opts.IncludeHosts) > 0 && !containsFold(opts.IncludeHosts, host) {
		return false
	}
	return !containsFold(opts.ExcludeHosts, host)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func toResource(entry *Entry, origin time.Time) metrics.ResourceTiming {
	r := metrics.ResourceTiming{
		Name:          entry.Request.URL,
		InitiatorType: initiatorTypes[entry.ResourceType],
		StartTime:     offsetMs(entry.StartedDateTime, origin),
		Duration:      entry.Time,
	}
	if r.InitiatorType == "" {
		r.InitiatorType = "other"
	}
	if resp := entry.Response; resp != nil {
		r.TransferSize = positive(resp.TransferSize)
		r.EncodedBodySize = positive(resp.BodySize)
		if resp.Content != nil {
			r.DecodedBodySize = positive(resp.Content.Size)
		}
	}
	return r
}

func toNavigation(entry *Entry, page *Page, origin time.Time) navigationEntry {
	nav := navigationEntry{
		EntryType: "navigation",
		Name:      entry.Request.URL,
		StartTime: 0,
		Duration:  offsetMs(entry.StartedDateTime, origin) + entry.Time,
	}
	if t := entry.Timings; t != nil {
		for _, phase := range []float64{t.Blocked, t.DNS, t.Connect, t.Send, t.Wait} {
			if phase > 0 {
				nav.ResponseStart += phase
			}
		}
	}
	if resp := entry.Response; resp != nil {
		nav.TransferSize = positive(resp.TransferSize)
		nav.EncodedBodySize = positive(resp.BodySize)
		if resp.Content != nil {
			nav.DecodedBodySize = positive(resp.Content.Size)
		}
	}
	if page != nil && page.PageTimings != nil {
		nav.DOMContentLoadedEventEnd = positiveFloat(page.PageTimings.OnContentLoad)
		nav.LoadEventEnd = positiveFloat(page.PageTimings.OnLoad)
		if nav.LoadEventEnd > nav.Duration {
			nav.Duration = nav.LoadEventEnd
		}
	}
	return nav
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}

func offsetMs(started string, origin time.Time) float64 {
	if origin.IsZero() {
		return 0
	}
	t, err := parseTime(started)
	if err != nil {
		return 0
	}
	ms := float64(t.Sub(origin)) / float64(time.Millisecond)
	if ms < 0 {
		return 0
	}
	return ms
}

func positive(v int64) int64 {
	if v > 0 {
		return v
	}
	return 0
}

func positiveFloat(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
