package threshold

import (
	"errors"
	"strings"
	"testing"

	"github.com/torosent/perfpanel/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "lcp in milliseconds",
			input: "lcp < 2500",
			want:  Threshold{Metric: "lcp", Operator: "<", Value: 2500, Raw: "lcp < 2500"},
		},
		{
			name:  "fcp in seconds",
			input: "fcp <= 2s",
			want:  Threshold{Metric: "fcp", Operator: "<=", Value: 2000, Raw: "fcp <= 2s"},
		},
		{
			name:  "cls score without spaces",
			input: "cls<0.1",
			want:  Threshold{Metric: "cls", Operator: "<", Value: 0.1, Raw: "cls<0.1"},
		},
		{
			name:  "bytes in kilobytes",
			input: "bytes < 500KB",
			want:  Threshold{Metric: "bytes", Operator: "<", Value: 500 * 1024, Raw: "bytes < 500KB"},
		},
		{
			name:  "request count",
			input: "  requests >= 2 ",
			want:  Threshold{Metric: "requests", Operator: ">=", Value: 2, Raw: "requests >= 2"},
		},
		{
			name:  "long task count equality",
			input: "long_tasks == 0",
			want:  Threshold{Metric: "long_tasks", Operator: "==", Value: 0, Raw: "long_tasks == 0"},
		},
		{name: "empty", input: "", wantError: true},
		{name: "unknown metric", input: "ttfb < 200", wantError: true},
		{name: "missing value", input: "lcp <", wantError: true},
		{name: "bad operator", input: "lcp != 2500", wantError: true},
		{name: "unknown unit", input: "lcp < 3min", wantError: true},
		{name: "unit on count", input: "requests < 10ms", wantError: true},
		{name: "size unit on time", input: "tbt < 200kb", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("Parse(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if tt.wantError {
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	got, err := ParseMultiple([]string{"lcp < 2500", "cls < 0.1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ParseMultiple() returned %d thresholds, want 2", len(got))
	}

	_, err = ParseMultiple([]string{"lcp < 2500", "nope", "fps > 30"})
	if err == nil {
		t.Fatal("expected error for invalid thresholds")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Errorf("error should name every bad threshold: %v", err)
	}

	if got, err := ParseMultiple(nil); got != nil || err != nil {
		t.Errorf("ParseMultiple(nil) = %v, %v", got, err)
	}
}

func snapshot() metrics.Snapshot {
	fcp, lcp, cls, tbt := 900.0, 2100.0, 0.02, 0.0
	longTasks := 0
	return metrics.Snapshot{
		FCP:           &fcp,
		LCP:           &lcp,
		CLS:           &cls,
		TBTApprox:     &tbt,
		LongTasks:     &longTasks,
		TotalRequests: 12,
		TotalBytes:    300 * 1024,
	}
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		pass   bool
		known  bool
	}{
		{"lcp within budget", "lcp < 2500", true, true},
		{"fcp over budget", "fcp < 0.5s", false, true},
		{"cls within budget", "cls <= 0.1", true, true},
		{"zero tbt is known", "tbt == 0", true, true},
		{"bytes over budget", "bytes < 200kb", false, true},
		{"requests", "requests <= 12", true, true},
		{"long tasks", "long_tasks < 1", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Parse(tt.budget)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.budget, err)
			}
			results := NewEvaluator([]Threshold{th}).Evaluate(snapshot())
			if len(results) != 1 {
				t.Fatalf("Evaluate() returned %d results", len(results))
			}
			r := results[0]
			if r.Pass != tt.pass || r.Known != tt.known {
				t.Errorf("result = %+v, want pass %v known %v", r, tt.pass, tt.known)
			}
			wantMark := "✗"
			if tt.pass {
				wantMark = "✓"
			}
			if !strings.HasPrefix(r.Message, wantMark) {
				t.Errorf("message %q should start with %s", r.Message, wantMark)
			}
		})
	}
}

func TestUnknownMetricFailsBudget(t *testing.T) {
	th, _ := Parse("lcp < 2500")
	snap := snapshot()
	snap.LCP = nil

	results := NewEvaluator([]Threshold{th}).Evaluate(snap)
	if results[0].Pass || results[0].Known {
		t.Errorf("unknown LCP should fail: %+v", results[0])
	}
	if !strings.Contains(results[0].Message, "unknown") {
		t.Errorf("message = %q", results[0].Message)
	}
}

func TestCheck(t *testing.T) {
	ths, err := ParseMultiple([]string{"lcp < 2500", "bytes < 100kb", "fcp < 1s"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results, err := NewEvaluator(ths).Check(snapshot())
	if !errors.Is(err, ErrBudgetFailed) {
		t.Fatalf("Check() error = %v, want ErrBudgetFailed", err)
	}
	if len(results) != 3 {
		t.Errorf("Check() returned %d results, want 3", len(results))
	}
	if !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("error = %v", err)
	}

	if _, err := NewEvaluator(ths[:1]).Check(snapshot()); err != nil {
		t.Errorf("Check() with passing budget error = %v", err)
	}
	if results := NewEvaluator(nil).Evaluate(snapshot()); results != nil {
		t.Errorf("Evaluate() without budgets = %v, want nil", results)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal equal", 100, "<=", 100, true},
		{"greater than true", 150, ">", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal with floating point precision", 0.1 + 0.2, "==", 0.3, true},
		{"unknown operator", 1, "!=", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}
