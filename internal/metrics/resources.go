package metrics

import "sort"

// ResourceSummary is the reduction of a resource timing buffer.
type ResourceSummary struct {
	Entries []ResourceTiming
	// TotalRequests counts the document itself plus every resource entry.
	TotalRequests int
	TotalBytes    int64
}

// SummarizeResources reduces the full buffer to request and byte totals.
// The input is not modified; Entries is a copy.
func SummarizeResources(entries []ResourceTiming) ResourceSummary {
	sum := ResourceSummary{
		Entries:       make([]ResourceTiming, len(entries)),
		TotalRequests: len(entries) + 1,
	}
	copy(sum.Entries, entries)
	for _, r := range entries {
		sum.TotalBytes += r.Bytes()
	}
	return sum
}

// HeaviestResources returns up to n entries ordered by descending byte
// weight, then by name.
func HeaviestResources(entries []ResourceTiming, n int) []ResourceTiming {
	if len(entries) == 0 || n <= 0 {
		return nil
	}
	sorted := make([]ResourceTiming, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := sorted[i].Bytes(), sorted[j].Bytes()
		if bi == bj {
			return sorted[i].Name < sorted[j].Name
		}
		return bi > bj
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
