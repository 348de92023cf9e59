package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/torosent/perfpanel/internal/metrics"
)

// Event kinds of a recorded timeline.
const (
	KindEntries     = "entries"
	KindResource    = "resource"
	KindNavigation  = "navigation"
	KindVisibility  = "visibility"
	KindLoad        = "load"
	KindUnsupported = "unsupported"
)

const maxLineSize = 4 << 20

// Event is one line of a recorded timeline.
type Event struct {
	// At is the offset from navigation start in milliseconds.
	At         float64                 `json:"at,omitempty"`
	Kind       string                  `json:"kind"`
	Category   metrics.Category        `json:"category,omitempty"`
	Entries    []metrics.Entry         `json:"entries,omitempty"`
	Resource   *metrics.ResourceTiming `json:"resource,omitempty"`
	Navigation json.RawMessage         `json:"navigation,omitempty"`
	State      metrics.Visibility      `json:"state,omitempty"`
}

// Parse reads a JSON-lines timeline. Blank lines are skipped.
func Parse(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("timeline line %d: %w", line, err)
		}
		if err := ev.validate(); err != nil {
			return nil, fmt.Errorf("timeline line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	if len(events) == 0 {
		return nil, errors.New("timeline has no events")
	}
	return events, nil
}

// ReadFile parses the timeline stored at path.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open timeline: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (ev Event) validate() error {
	if ev.At < 0 {
		return fmt.Errorf("negative offset %v", ev.At)
	}
	switch ev.Kind {
	case KindEntries, KindUnsupported:
		if _, ok := metrics.ParseCategory(string(ev.Category)); !ok {
			return fmt.Errorf("%s event has unknown category %q", ev.Kind, ev.Category)
		}
	case KindResource:
		if ev.Resource == nil {
			return errors.New("resource event without resource")
		}
	case KindNavigation:
		if len(ev.Navigation) == 0 {
			return errors.New("navigation event without navigation entry")
		}
	case KindVisibility:
		if ev.State != metrics.VisibilityVisible && ev.State != metrics.VisibilityHidden {
			return fmt.Errorf("invalid visibility state %q", ev.State)
		}
	case KindLoad:
	case "":
		return errors.New("event kind is required")
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return nil
}
