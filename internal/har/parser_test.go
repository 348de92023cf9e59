package har

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_ValidHAR(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Log.Version != "1.2" {
		t.Errorf("expected version 1.2, got %s", doc.Log.Version)
	}
	if len(doc.Log.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Log.Pages))
	}
	if len(doc.Log.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(doc.Log.Entries))
	}
	if got := doc.Log.Entries[1].Response.TransferSize; got != 500 {
		t.Errorf("expected _transferSize 500, got %d", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"invalid json", "{not json"},
		{"missing log", `{"version":"1.2"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if doc != nil {
				t.Error("expected nil HAR on error")
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.har")
	if err := os.WriteFile(path, []byte(sampleHAR), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.har")); err == nil {
		t.Error("expected error for missing file")
	}
}

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "creator": {"name": "WebInspector", "version": "537.36"},
    "pages": [{
      "id": "page_1",
      "startedDateTime": "2026-10-15T10:00:00.000Z",
      "title": "https://example.com/",
      "pageTimings": {"onContentLoad": 640.5, "onLoad": 1210.25}
    }],
    "entries": [
      {
        "pageref": "page_1",
        "startedDateTime": "2026-10-15T10:00:00.000Z",
        "time": 180,
        "_resourceType": "document",
        "request": {"method": "GET", "url": "https://example.com/"},
        "response": {"status": 200, "headersSize": 300, "bodySize": 4200, "_transferSize": 4500,
                     "content": {"size": 16000, "mimeType": "text/html"}},
        "timings": {"blocked": 2, "dns": 10, "connect": 20, "send": 1, "wait": 90, "receive": 57}
      },
      {
        "pageref": "page_1",
        "startedDateTime": "2026-10-15T10:00:00.200Z",
        "time": 40,
        "_resourceType": "script",
        "request": {"method": "GET", "url": "https://cdn.example.com/app.js"},
        "response": {"status": 200, "headersSize": 100, "bodySize": 400, "_transferSize": 500,
                     "content": {"size": 1400, "mimeType": "application/javascript"}}
      },
      {
        "pageref": "page_1",
        "startedDateTime": "2026-10-15T10:00:00.250Z",
        "time": 3,
        "_resourceType": "stylesheet",
        "request": {"method": "GET", "url": "https://example.com/site.css"},
        "response": {"status": 200, "headersSize": -1, "bodySize": 1200, "_transferSize": 0,
                     "content": {"size": 5000, "mimeType": "text/css"}}
      },
      {
        "pageref": "page_1",
        "startedDateTime": "2026-10-15T10:00:00.300Z",
        "time": 0,
        "_resourceType": "image",
        "request": {"method": "GET", "url": "https://ads.example.net/pixel.gif"},
        "response": {"status": 200, "headersSize": -1, "bodySize": -1,
                     "content": {"size": 0, "mimeType": "image/gif"}}
      }
    ]
  }
}`
