package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/perfpanel/internal/metrics"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLiveReporterRendersLatest(t *testing.T) {
	var out syncBuffer
	r := NewLiveReporter(&out, time.Hour)
	r.Start()

	r.Publish(metrics.Snapshot{TotalRequests: 1})
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Requests: 1") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Rate limited: these queue up and only the newest is drawn on Stop.
	for n := 2; n <= 5; n++ {
		r.Publish(metrics.Snapshot{TotalRequests: n})
	}
	r.Stop()
	r.Stop()

	got := out.String()
	if !strings.Contains(got, "Requests: 1") {
		t.Errorf("first snapshot not rendered: %q", got)
	}
	if !strings.HasSuffix(strings.TrimRight(got, " "), "Weight: 0.0 KB") || !strings.Contains(got, "Requests: 5") {
		t.Errorf("last snapshot not rendered on stop: %q", got)
	}
	for _, skipped := range []string{"Requests: 2", "Requests: 3", "Requests: 4"} {
		if strings.Contains(got, skipped) {
			t.Errorf("superseded snapshot rendered: %q", skipped)
		}
	}
}

func TestLiveReporterPublishNeverBlocks(t *testing.T) {
	r := NewLiveReporter(nil, 0)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Publish(metrics.Snapshot{Seq: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running reporter")
	}
}

func TestStatusLine(t *testing.T) {
	fcp := 100.0
	line := StatusLine(metrics.Snapshot{FCP: &fcp, TotalRequests: 2, TotalBytes: 1024})
	want := "FCP: 100 ms | LCP: - | CLS: - | TBT≈ - | Requests: 2 | Weight: 1.0 KB"
	if line != want {
		t.Errorf("StatusLine() = %q, want %q", line, want)
	}
}
