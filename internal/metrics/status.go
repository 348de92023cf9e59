package metrics

import "sort"

// Status is the outcome of probing a runtime for one category.
type Status string

const (
	// StatusPending means registration has not been attempted yet.
	StatusPending     Status = "pending"
	StatusSupported   Status = "supported"
	StatusUnsupported Status = "unsupported"
)

// Capabilities maps every observed category to its probe status.
type Capabilities map[Category]Status

// Supported reports whether c registered successfully.
func (c Capabilities) Supported(cat Category) bool {
	return c[cat] == StatusSupported
}

// CapabilityRow is one category/status pair.
type CapabilityRow struct {
	Category Category
	Status   Status
}

// FlattenCapabilities converts a capability map into rows sorted by
// category registration order, with unknown categories last by name.
func FlattenCapabilities(caps Capabilities) []CapabilityRow {
	if len(caps) == 0 {
		return nil
	}
	rows := make([]CapabilityRow, 0, len(caps))
	for c, s := range caps {
		rows = append(rows, CapabilityRow{Category: c, Status: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		oi, oj := categoryOrder(rows[i].Category), categoryOrder(rows[j].Category)
		if oi == oj {
			return rows[i].Category < rows[j].Category
		}
		return oi < oj
	})
	return rows
}

func categoryOrder(c Category) int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return len(Categories)
}
