// Package compare diffs two published snapshots metric by metric and renders
// the result as Markdown, CSV or an interactive terminal view.
package compare

import (
	"fmt"
	"math"

	"github.com/torosent/perfpanel/internal/metrics"
)

// Verdict classifies a delta. Lower values are better for every metric.
type Verdict string

const (
	VerdictUnknown  Verdict = "unknown"
	VerdictImproved Verdict = "improved"
	VerdictWorse    Verdict = "worse"
	VerdictSame     Verdict = "same"
)

const epsilon = 1e-9

// Delta is one metric's before/after pair.
type Delta struct {
	Metric      MetricDef
	Before      float64
	After       float64
	BeforeKnown bool
	AfterKnown  bool
}

// Compare diffs every registered metric of before against after.
func Compare(before, after metrics.Snapshot) []Delta {
	deltas := make([]Delta, 0, len(Registry))
	for _, def := range Registry {
		b, bok := def.Extractor(before)
		a, aok := def.Extractor(after)
		deltas = append(deltas, Delta{
			Metric:      def,
			Before:      b,
			After:       a,
			BeforeKnown: bok,
			AfterKnown:  aok,
		})
	}
	return deltas
}

// Known reports whether both sides carry a value.
func (d Delta) Known() bool { return d.BeforeKnown && d.AfterKnown }

// Change returns after minus before, or false when either side is unknown.
func (d Delta) Change() (float64, bool) {
	if !d.Known() {
		return 0, false
	}
	return d.After - d.Before, true
}

// Percent returns the relative change, or false when it is undefined.
func (d Delta) Percent() (float64, bool) {
	change, ok := d.Change()
	if !ok || math.Abs(d.Before) < epsilon {
		return 0, false
	}
	return change / d.Before * 100, true
}

// Verdict classifies the change.
func (d Delta) Verdict() Verdict {
	change, ok := d.Change()
	switch {
	case !ok:
		return VerdictUnknown
	case change < -epsilon:
		return VerdictImproved
	case change > epsilon:
		return VerdictWorse
	default:
		return VerdictSame
	}
}

// BeforeText renders the before value, "-" when unknown.
func (d Delta) BeforeText() string { return d.valueText(d.Before, d.BeforeKnown) }

// AfterText renders the after value, "-" when unknown.
func (d Delta) AfterText() string { return d.valueText(d.After, d.AfterKnown) }

func (d Delta) valueText(v float64, known bool) string {
	if !known {
		return "-"
	}
	return d.Metric.Format(v)
}

// ChangeText renders the signed change with its relative size, e.g.
// "+120 ms (+15.0%)". Unknown deltas render as "-".
func (d Delta) ChangeText() string {
	change, ok := d.Change()
	if !ok {
		return "-"
	}
	sign := ""
	switch {
	case change > epsilon:
		sign = "+"
	case change < -epsilon:
		sign = "-"
	}
	text := sign + d.Metric.Format(math.Abs(change))
	if pct, ok := d.Percent(); ok {
		text += fmt.Sprintf(" (%+.1f%%)", pct)
	}
	return text
}

// Core filters out detail-only deltas.
func Core(deltas []Delta) []Delta {
	out := make([]Delta, 0, len(deltas))
	for _, d := range deltas {
		if !d.Metric.DetailOnly {
			out = append(out, d)
		}
	}
	return out
}

// Report is a labelled comparison ready for rendering.
type Report struct {
	BeforeLabel string
	AfterLabel  string
	Deltas      []Delta
}

// NewReport compares before and after under the given column labels.
func NewReport(beforeLabel string, before metrics.Snapshot, afterLabel string, after metrics.Snapshot) Report {
	return Report{
		BeforeLabel: beforeLabel,
		AfterLabel:  afterLabel,
		Deltas:      Compare(before, after),
	}
}

// Regressions counts the deltas whose verdict is worse.
func (r Report) Regressions() int {
	n := 0
	for _, d := range r.Deltas {
		if d.Verdict() == VerdictWorse {
			n++
		}
	}
	return n
}
