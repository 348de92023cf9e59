package metrics

import (
	"reflect"
	"testing"
)

func TestFlattenCapabilities(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want []CapabilityRow
	}{
		{
			name: "nil capabilities",
			caps: nil,
			want: nil,
		},
		{
			name: "registration order",
			caps: Capabilities{
				CategoryLongTask:               StatusSupported,
				CategoryPaint:                  StatusSupported,
				CategoryLargestContentfulPaint: StatusUnsupported,
			},
			want: []CapabilityRow{
				{Category: CategoryPaint, Status: StatusSupported},
				{Category: CategoryLargestContentfulPaint, Status: StatusUnsupported},
				{Category: CategoryLongTask, Status: StatusSupported},
			},
		},
		{
			name: "unknown categories sorted last by name",
			caps: Capabilities{
				"zeta":              StatusPending,
				"alpha":             StatusPending,
				CategoryLayoutShift: StatusSupported,
			},
			want: []CapabilityRow{
				{Category: CategoryLayoutShift, Status: StatusSupported},
				{Category: "alpha", Status: StatusPending},
				{Category: "zeta", Status: StatusPending},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlattenCapabilities(tt.caps)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FlattenCapabilities() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapabilitiesSupported(t *testing.T) {
	caps := Capabilities{
		CategoryPaint:       StatusSupported,
		CategoryLayoutShift: StatusUnsupported,
	}
	if !caps.Supported(CategoryPaint) {
		t.Errorf("expected paint supported")
	}
	if caps.Supported(CategoryLayoutShift) {
		t.Errorf("expected layout-shift unsupported")
	}
	if caps.Supported(CategoryLongTask) {
		t.Errorf("expected missing category to be unsupported")
	}
}
