package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveTargetPassesWebSocketURL(t *testing.T) {
	const ws = "ws://127.0.0.1:9222/devtools/page/ABC"
	got, err := ResolveTarget(context.Background(), nil, ws)
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}
	if got != ws {
		t.Errorf("ResolveTarget() = %q, want %q", got, ws)
	}
}

func TestResolveTargetPicksFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/list" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"type":"service_worker","webSocketDebuggerUrl":"ws://x/devtools/sw"},
			{"type":"page","url":"https://example.com/","webSocketDebuggerUrl":"ws://x/devtools/page/1"},
			{"type":"page","url":"about:blank","webSocketDebuggerUrl":"ws://x/devtools/page/2"}
		]`))
	}))
	defer srv.Close()

	got, err := ResolveTarget(context.Background(), srv.Client(), srv.URL+"/")
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}
	if got != "ws://x/devtools/page/1" {
		t.Errorf("ResolveTarget() = %q", got)
	}
}

func TestResolveTargetOpensPage(t *testing.T) {
	var opened bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/json/list":
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/json/new" && r.Method == http.MethodPut:
			opened = true
			_, _ = w.Write([]byte(`{"type":"page","webSocketDebuggerUrl":"ws://x/devtools/page/new"}`))
		default:
			http.Error(w, "bad", http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	got, err := ResolveTarget(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}
	if !opened || got != "ws://x/devtools/page/new" {
		t.Errorf("ResolveTarget() = %q, opened = %v", got, opened)
	}
}

func TestResolveTargetRejectsScheme(t *testing.T) {
	if _, err := ResolveTarget(context.Background(), nil, "ftp://host:9222"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestResolveTargetHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if _, err := ResolveTarget(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Error("expected error for 503 response")
	}
}
