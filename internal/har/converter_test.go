package har

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/torosent/perfpanel/internal/metrics"
)

func mustParse(t *testing.T) *HAR {
	t.Helper()
	doc, err := Parse(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestToTimeline(t *testing.T) {
	tl, err := ToTimeline(mustParse(t), ConvertOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tl.Resources) != 3 {
		t.Fatalf("expected 3 resources (document excluded), got %d", len(tl.Resources))
	}

	script := tl.Resources[0]
	if script.Name != "https://cdn.example.com/app.js" || script.InitiatorType != "script" {
		t.Errorf("unexpected script entry: %+v", script)
	}
	if script.StartTime != 200 {
		t.Errorf("expected start 200ms, got %f", script.StartTime)
	}
	if tl.Resources[1].InitiatorType != "link" {
		t.Errorf("expected stylesheet initiator link, got %q", tl.Resources[1].InitiatorType)
	}

	sum := metrics.SummarizeResources(tl.Resources)
	if sum.TotalBytes != 1700 {
		t.Errorf("expected 1700 bytes, got %d", sum.TotalBytes)
	}
	if sum.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %d", sum.TotalRequests)
	}
}

func TestToTimelineNavigation(t *testing.T) {
	tl, err := ToTimeline(mustParse(t), ConvertOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nav := gjson.ParseBytes(tl.Navigation)
	if nav.Get("entryType").String() != "navigation" {
		t.Errorf("expected navigation entry, got %s", tl.Navigation)
	}
	if got := nav.Get("responseStart").Float(); got != 123 {
		t.Errorf("expected responseStart 123, got %f", got)
	}
	if got := nav.Get("loadEventEnd").Float(); got != 1210.25 {
		t.Errorf("expected loadEventEnd 1210.25, got %f", got)
	}
	if got := nav.Get("transferSize").Int(); got != 4500 {
		t.Errorf("expected transferSize 4500, got %d", got)
	}
}

func TestToTimelineHostFilters(t *testing.T) {
	tests := []struct {
		name string
		opts ConvertOptions
		want int
	}{
		{"include cdn", ConvertOptions{IncludeHosts: []string{"cdn.example.com"}}, 1},
		{"exclude ads", ConvertOptions{ExcludeHosts: []string{"ads.example.net"}}, 2},
		{"case insensitive", ConvertOptions{ExcludeHosts: []string{"ADS.example.net"}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := ToTimeline(mustParse(t), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tl.Resources) != tt.want {
				t.Errorf("expected %d resources, got %d", tt.want, len(tl.Resources))
			}
		})
	}
}

func TestToTimelineUnknownPage(t *testing.T) {
	if _, err := ToTimeline(mustParse(t), ConvertOptions{PageRef: "page_9"}); err == nil {
		t.Error("expected error for unknown page")
	}
	if _, err := ToTimeline(nil, ConvertOptions{}); err == nil {
		t.Error("expected error for nil HAR")
	}
}
