package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/perfpanel/internal/metrics"
)

// ErrBudgetFailed is returned by Check when at least one budget fails.
var ErrBudgetFailed = errors.New("performance budget failed")

// Threshold is a budget on one snapshot metric.
type Threshold struct {
	Metric   string  // one of metrics.MetricNames
	Operator string  // "<", "<=", ">", ">=", "=="
	Value    float64 // in the metric's base unit: ms, bytes, count or score
	Raw      string  // original budget string for display
}

// Result is the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Known     bool
	Pass      bool
	Message   string
}

// Evaluator evaluates budgets against snapshots.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against snap. A metric the snapshot does
// not know fails its threshold.
func (e *Evaluator) Evaluate(snap metrics.Snapshot) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, snap))
	}
	return results
}

// Check evaluates snap and returns ErrBudgetFailed if any result failed.
func (e *Evaluator) Check(snap metrics.Snapshot) ([]Result, error) {
	results := e.Evaluate(snap)
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d budgets", ErrBudgetFailed, failed, len(results))
	}
	return results, nil
}

func evaluateOne(t Threshold, snap metrics.Snapshot) Result {
	actual, ok := snap.Value(t.Metric)
	if !ok {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: %s is unknown", t.Raw, t.Metric),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %s %s %s", status, t.Raw, formatValue(actual), t.Operator, formatValue(t.Value))
	return Result{
		Threshold: t,
		Actual:    actual,
		Known:     true,
		Pass:      pass,
		Message:   message,
	}
}

var pattern = regexp.MustCompile(`^([a-z_]+)\s*(<=|>=|==|<|>)\s*([0-9]*\.?[0-9]+)\s*([a-z]*)$`)

var unitScale = map[string]float64{
	"":   1,
	"ms": 1,
	"s":  1000,
	"b":  1,
	"kb": 1024,
	"mb": 1024 * 1024,
}

// Parse parses a budget string.
// Supported formats:
// - "lcp < 2500"      (milliseconds)
// - "fcp <= 1.8s"     (seconds, converted to ms)
// - "cls < 0.1"       (layout shift score)
// - "bytes < 500kb"   (total weight; b, kb and mb suffixes)
// - "requests <= 40"  (request count, document included)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(strings.ToLower(s))
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric operator value, e.g., 'lcp < 2500')", s)
	}

	metric := matches[1]
	operator := matches[2]
	valueStr := matches[3]
	unit := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(metrics.MetricNames, ", "))
	}

	scale, ok := unitScale[unit]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported unit: %q (supported: ms, s, b, kb, mb)", unit)
	}
	if unit != "" && !unitFits(metric, unit) {
		return Threshold{}, fmt.Errorf("unit %q does not apply to %s", unit, metric)
	}

	return Threshold{
		Metric:   metric,
		Operator: operator,
		Value:    value * scale,
		Raw:      s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	for _, v := range metrics.MetricNames {
		if metric == v {
			return true
		}
	}
	return false
}

func unitFits(metric, unit string) bool {
	switch metric {
	case metrics.MetricFCP, metrics.MetricLCP, metrics.MetricTBT:
		return unit == "ms" || unit == "s"
	case metrics.MetricBytes:
		return unit == "b" || unit == "kb" || unit == "mb"
	default:
		return false
	}
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
