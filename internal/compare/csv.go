package compare

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// GenerateCSV creates a CSV document with every registered metric. Raw
// values are written unformatted; unknown values are left empty.
func GenerateCSV(r Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	rows := [][]string{{"metric", r.BeforeLabel, r.AfterLabel, "change", "change_pct", "verdict"}}
	for _, d := range r.Deltas {
		row := []string{
			d.Metric.Name,
			rawValue(d.Before, d.BeforeKnown),
			rawValue(d.After, d.AfterKnown),
		}
		change, ok := d.Change()
		row = append(row, rawValue(change, ok))
		pct, ok := d.Percent()
		row = append(row, rawValue(pct, ok))
		row = append(row, string(d.Verdict()))
		rows = append(rows, row)
	}

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return sb.String(), nil
}

func rawValue(v float64, known bool) string {
	if !known {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
