package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/output"
	"github.com/torosent/perfpanel/internal/threshold"
)

func snapshotForHTML() metrics.Snapshot {
	fcp, lcp, cls := 640.0, 1500.0, 0.12
	return metrics.Snapshot{
		PageLoadID:    "01JHTMLREPORT0000000000000",
		Seq:           2,
		FCP:           &fcp,
		LCP:           &lcp,
		CLS:           &cls,
		TotalRequests: 3,
		TotalBytes:    4096,
		Capabilities: metrics.Capabilities{
			metrics.CategoryPaint:    metrics.StatusSupported,
			metrics.CategoryLongTask: metrics.StatusUnsupported,
		},
		Resources: []metrics.ResourceTiming{
			{Name: "https://cdn.example.com/hero.webp", InitiatorType: "img", TransferSize: 3072, StartTime: 210},
			{Name: "https://example.com/app.js", InitiatorType: "script", TransferSize: 1024, StartTime: 90},
		},
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	ths, err := threshold.ParseMultiple([]string{"lcp < 2500", "cls < 0.1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	snap := snapshotForHTML()
	results := threshold.NewEvaluator(ths).Evaluate(snap)

	var buf bytes.Buffer
	err = output.GenerateHTMLReport(&buf, snap, results, output.ReportMetadata{TargetURL: "https://example.com/", Source: "watch"})
	if err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	for _, elem := range []string{"<!DOCTYPE html>", "<title>Performance Panel Report</title>", "</html>"} {
		if !strings.Contains(html, elem) {
			t.Errorf("HTML missing %q", elem)
		}
	}
	for _, want := range []string{
		"640 ms",
		"1500 ms",
		"0.120",
		"4.0 KB",
		"Budgets (1/2 Passed)",
		"lcp &lt; 2500",
		"hero.webp",
		"3.0 KB",
		"unsupported",
		"https://example.com/",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Index(html, "hero.webp") > strings.Index(html, "app.js") {
		t.Error("resources should be ordered by weight")
	}
}

func TestGenerateHTMLReport_UnknownMetrics(t *testing.T) {
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, metrics.Snapshot{PageLoadID: "x"}, nil, output.ReportMetadata{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	if strings.Contains(html, "Budgets (") {
		t.Error("budgets section should be omitted without thresholds")
	}
	if strings.Contains(html, "Resources (") {
		t.Error("resources section should be omitted without resources")
	}
	if got := strings.Count(html, `<div class="value">-</div>`); got != 6 {
		t.Errorf("expected 6 unknown tiles, got %d", got)
	}
}

func TestGenerateHTMLReport_EscapesHTMLInData(t *testing.T) {
	snap := snapshotForHTML()
	snap.Resources = []metrics.ResourceTiming{{Name: "https://example.com/<script>alert('xss')</script>", TransferSize: 10}}

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, snap, nil, output.ReportMetadata{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	if strings.Contains(html, "<script>alert('xss')</script>") {
		t.Error("HTML should escape resource names")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped script tag not found")
	}
}
