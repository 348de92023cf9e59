package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Snapshot         metrics.Snapshot
	Tiles            []Tile
	Navigation       []Timing
	Capabilities     []metrics.CapabilityRow
	Resources        []metrics.ResourceTiming
	ThresholdResults []threshold.Result
	ThresholdSummary *ThresholdSummary
	Metadata         ReportMetadata
}

// Tile is one labelled value of the metrics grid.
type Tile struct {
	Label string
	Value string
}

// ThresholdSummary counts budget outcomes.
type ThresholdSummary struct {
	Total  int
	Passed int
	Failed int
}

// ReportMetadata describes where the snapshot came from.
type ReportMetadata struct {
	TargetURL string
	Source    string
}

// Tiles lays out the panel's metric grid for snap.
func Tiles(snap metrics.Snapshot) []Tile {
	return []Tile{
		{"FCP", FormatMs(snap.FCP)},
		{"LCP", FormatMs(snap.LCP)},
		{"CLS", FormatScore(snap.CLS)},
		{"TBT (≈)", FormatMs(snap.TBTApprox)},
		{"Requests", FormatRequests(snap.TotalRequests)},
		{"Total weight", FormatKB(snap.TotalBytes, snap.TotalRequests)},
	}
}

// GenerateHTMLReport generates a standalone HTML report of one snapshot.
func GenerateHTMLReport(w io.Writer, snap metrics.Snapshot, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{Total: len(thresholdResults)}
		for _, tr := range thresholdResults {
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Snapshot:         snap,
		Tiles:            Tiles(snap),
		Navigation:       NavigationTimings(snap.Navigation),
		Capabilities:     metrics.FlattenCapabilities(snap.Capabilities),
		Resources:        metrics.HeaviestResources(snap.Resources, len(snap.Resources)),
		ThresholdResults: thresholdResults,
		ThresholdSummary: thresholdSummary,
		Metadata:         metadata,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatKB": func(b int64) string {
			return fmt.Sprintf("%.1f KB", float64(b)/1024)
		},
		"formatMs": func(f float64) string {
			return fmt.Sprintf("%.0f ms", f)
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format(time.RFC3339)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Performance Panel Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: ui-sans-serif, system-ui, -apple-system, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #05060f;
            color: #e8ecf1;
            line-height: 1.5;
            padding: 24px;
        }
        .panel {
            max-width: 960px;
            margin: 0 auto;
            background: rgba(10, 12, 28, 0.9);
            border: 1px solid rgba(255, 255, 255, 0.12);
            border-radius: 12px;
            box-shadow: 0 10px 40px rgba(0, 0, 0, 0.5);
            padding: 20px 24px;
        }
        header {
            display: flex;
            align-items: baseline;
            justify-content: space-between;
            gap: 12px;
            margin-bottom: 16px;
        }
        header h1 {
            font-size: 1.3rem;
            letter-spacing: 0.2px;
        }
        .meta {
            font-size: 0.8rem;
            opacity: 0.8;
        }
        .meta a {
            color: #b9a8ff;
        }
        .grid {
            display: grid;
            grid-template-columns: 1fr 1fr 1fr;
            gap: 12px;
            margin-bottom: 24px;
        }
        .tile {
            background: rgba(255, 255, 255, 0.04);
            border-left: 3px solid #7c5cff;
            border-radius: 8px;
            padding: 12px 14px;
        }
        .tile .label {
            font-size: 0.8rem;
            opacity: 0.8;
        }
        .tile .value {
            font-size: 1.6rem;
            font-weight: 600;
        }
        .section {
            margin-bottom: 24px;
        }
        .section h2 {
            font-size: 1rem;
            margin-bottom: 10px;
            padding-bottom: 6px;
            border-bottom: 1px solid rgba(255, 255, 255, 0.12);
        }
        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 0.85rem;
        }
        th, td {
            text-align: left;
            padding: 6px 8px;
            border-bottom: 1px solid rgba(255, 255, 255, 0.06);
        }
        th {
            opacity: 0.7;
            font-weight: 600;
            text-transform: uppercase;
            font-size: 0.75rem;
            letter-spacing: 0.5px;
        }
        td.num {
            text-align: right;
            font-variant-numeric: tabular-nums;
        }
        td.url {
            word-break: break-all;
        }
        .badge {
            display: inline-block;
            padding: 2px 10px;
            border-radius: 10px;
            font-size: 0.75rem;
            font-weight: 600;
        }
        .badge-success {
            background: rgba(16, 185, 129, 0.2);
            color: #6ee7b7;
        }
        .badge-error {
            background: rgba(239, 68, 68, 0.2);
            color: #fca5a5;
        }
        .badge-pending {
            background: rgba(245, 158, 11, 0.2);
            color: #fcd34d;
        }
    </style>
</head>
<body>
    <div class="panel">
        <header>
            <h1>Performance Panel</h1>
            <div class="meta">Page load {{.Snapshot.PageLoadID}} | snapshot #{{.Snapshot.Seq}}</div>
        </header>
        {{if .Metadata.TargetURL}}
        <div class="meta">Target: <a href="{{.Metadata.TargetURL}}">{{.Metadata.TargetURL}}</a></div>
        {{end}}
        {{if .Metadata.Source}}
        <div class="meta">Source: {{.Metadata.Source}}</div>
        {{end}}
        <div class="meta" style="margin-bottom: 16px;">Captured: {{formatTime .Snapshot.CapturedAt}} | Generated: {{.GeneratedAt}}{{if .Snapshot.Visibility}} | Visibility: {{.Snapshot.Visibility}}{{end}}</div>

        <div class="grid">
            {{range .Tiles}}
            <div class="tile">
                <div class="label">{{.Label}}</div>
                <div class="value">{{.Value}}</div>
            </div>
            {{end}}
        </div>

        {{if .ThresholdSummary}}
        <div class="section">
            <h2>Budgets ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
            <table>
                <thead>
                    <tr><th>Budget</th><th>Actual</th><th>Status</th></tr>
                </thead>
                <tbody>
                    {{range .ThresholdResults}}
                    <tr>
                        <td>{{.Threshold.Raw}}</td>
                        <td class="num">{{if .Known}}{{printf "%.3g" .Actual}}{{else}}-{{end}}</td>
                        <td>{{if .Pass}}<span class="badge badge-success">PASS</span>{{else}}<span class="badge badge-error">FAIL</span>{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Navigation}}
        <div class="section">
            <h2>Navigation</h2>
            <table>
                <tbody>
                    {{range .Navigation}}
                    <tr><td>{{.Label}}</td><td class="num">{{formatMs .Ms}}</td></tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Capabilities}}
        <div class="section">
            <h2>Capabilities</h2>
            <table>
                <tbody>
                    {{range .Capabilities}}
                    <tr>
                        <td>{{.Category}}</td>
                        <td>{{if eq (printf "%s" .Status) "supported"}}<span class="badge badge-success">{{.Status}}</span>{{else if eq (printf "%s" .Status) "unsupported"}}<span class="badge badge-error">{{.Status}}</span>{{else}}<span class="badge badge-pending">{{.Status}}</span>{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Resources}}
        <div class="section">
            <h2>Resources ({{len .Resources}})</h2>
            <table>
                <thead>
                    <tr><th>URL</th><th>Type</th><th>Start</th><th>Weight</th></tr>
                </thead>
                <tbody>
                    {{range .Resources}}
                    <tr>
                        <td class="url">{{.Name}}</td>
                        <td>{{if .InitiatorType}}{{.InitiatorType}}{{else}}other{{end}}</td>
                        <td class="num">{{formatMs .StartTime}}</td>
                        <td class="num">{{formatKB .Bytes}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}
    </div>
</body>
</html>
`
