package browser

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/torosent/perfpanel/internal/metrics"
)

// Relay message kinds, sent as the "t" field of every binding payload.
const (
	msgInit       = "init"
	msgEntries    = "entries"
	msgResource   = "resource"
	msgNavigation = "navigation"
	msgVisibility = "visibility"
	msgLoad       = "load"
)

func decodeEntries(v gjson.Result) []metrics.Entry {
	arr := v.Array()
	out := make([]metrics.Entry, 0, len(arr))
	for _, e := range arr {
		out = append(out, metrics.Entry{
			EntryType:      e.Get("entryType").String(),
			Name:           e.Get("name").String(),
			StartTime:      e.Get("startTime").Float(),
			Duration:       e.Get("duration").Float(),
			RenderTime:     e.Get("renderTime").Float(),
			LoadTime:       e.Get("loadTime").Float(),
			Value:          e.Get("value").Float(),
			HadRecentInput: e.Get("hadRecentInput").Bool(),
		})
	}
	return out
}

func decodeResources(v gjson.Result) []metrics.ResourceTiming {
	arr := v.Array()
	out := make([]metrics.ResourceTiming, 0, len(arr))
	for _, e := range arr {
		out = append(out, metrics.ResourceTiming{
			Name:            e.Get("name").String(),
			InitiatorType:   e.Get("initiatorType").String(),
			StartTime:       e.Get("startTime").Float(),
			Duration:        e.Get("duration").Float(),
			TransferSize:    e.Get("transferSize").Int(),
			EncodedBodySize: e.Get("encodedBodySize").Int(),
			DecodedBodySize: e.Get("decodedBodySize").Int(),
		})
	}
	return out
}

func decodeNavigation(v gjson.Result) json.RawMessage {
	if !v.IsObject() {
		return nil
	}
	return json.RawMessage(v.Raw)
}
