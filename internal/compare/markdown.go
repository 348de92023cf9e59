package compare

import (
	"fmt"
	"strings"
)

// GenerateMarkdownTable creates a Markdown table of the core metrics. The
// better value of each known pair is bold.
func GenerateMarkdownTable(r Report) string {
	var sb strings.Builder

	sb.WriteString("# Performance Comparison\n\n")

	sb.WriteString(fmt.Sprintf("| Metric | %s | %s | Change |\n", escapeCell(r.BeforeLabel), escapeCell(r.AfterLabel)))
	sb.WriteString("|---|---|---|---|\n")

	for _, d := range Core(r.Deltas) {
		before, after := d.BeforeText(), d.AfterText()
		switch d.Verdict() {
		case VerdictImproved:
			after = "**" + after + "**"
		case VerdictWorse:
			before = "**" + before + "**"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", d.Metric.Label, before, after, d.ChangeText()))
	}

	if n := r.Regressions(); n > 0 {
		sb.WriteString(fmt.Sprintf("\n%d metric(s) regressed.\n", n))
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
