package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/threshold"
)

const heaviestResources = 5

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintln(w, "\n--- Performance Panel ---")
	fmt.Fprintf(w, "Page load:         %s (snapshot #%d)\n", snap.PageLoadID, snap.Seq)
	if !snap.CapturedAt.IsZero() {
		fmt.Fprintf(w, "Captured:          %s\n", snap.CapturedAt.Format("2006-01-02 15:04:05.000"))
	}
	if snap.Visibility != "" {
		fmt.Fprintf(w, "Visibility:        %s\n", snap.Visibility)
	}
	fmt.Fprintf(w, "FCP:               %s\n", FormatMs(snap.FCP))
	fmt.Fprintf(w, "LCP:               %s\n", FormatMs(snap.LCP))
	fmt.Fprintf(w, "CLS:               %s\n", FormatScore(snap.CLS))
	fmt.Fprintf(w, "TBT (approx):      %s\n", FormatMs(snap.TBTApprox))
	fmt.Fprintf(w, "Long tasks:        %s", FormatCount(snap.LongTasks))
	if snap.LongTasksTime != nil {
		fmt.Fprintf(w, " (%s)", FormatMs(snap.LongTasksTime))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Requests:          %s\n", FormatRequests(snap.TotalRequests))
	fmt.Fprintf(w, "Total weight:      %s\n", FormatKB(snap.TotalBytes, snap.TotalRequests))

	if timings := NavigationTimings(snap.Navigation); len(timings) > 0 {
		fmt.Fprintln(w, "\nNavigation:")
		for _, t := range timings {
			fmt.Fprintf(w, "  %-19s%.0f ms\n", t.Label+":", t.Ms)
		}
	}

	if rows := metrics.FlattenCapabilities(snap.Capabilities); len(rows) > 0 {
		fmt.Fprintln(w, "\nCapabilities:")
		for _, row := range rows {
			fmt.Fprintf(w, "  %-26s %s\n", row.Category, row.Status)
		}
	}

	if heavy := metrics.HeaviestResources(snap.Resources, heaviestResources); len(heavy) > 0 {
		fmt.Fprintln(w, "\nHeaviest Resources:")
		for _, r := range heavy {
			kind := r.InitiatorType
			if kind == "" {
				kind = "other"
			}
			fmt.Fprintf(w, "  - %s (%s): %.1f KB\n", r.Name, kind, float64(r.Bytes())/1024)
		}
	}
}

// PrintThresholdResults outputs budget outcomes, one per line.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "\nBudgets (%d/%d passed):\n", passed, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, snap metrics.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// PrintYAMLReport outputs the snapshot as YAML with the same field names and
// order as the JSON report.
func PrintYAMLReport(w io.Writer, snap metrics.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to convert snapshot: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to write yaml report: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
