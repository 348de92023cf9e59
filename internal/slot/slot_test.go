package slot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/torosent/perfpanel/internal/metrics"
)

func TestPublishThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "latest.json")
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	fcp := 120.0
	longTasks := 2
	snap := metrics.Snapshot{
		PageLoadID:    "01J0000000000000000000TEST",
		Seq:           3,
		CapturedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FCP:           &fcp,
		LongTasks:     &longTasks,
		TotalRequests: 4,
		TotalBytes:    1700,
		Capabilities: metrics.Capabilities{
			metrics.CategoryPaint:    metrics.StatusSupported,
			metrics.CategoryLongTask: metrics.StatusUnsupported,
		},
	}
	f.Publish(snap)
	if err := f.Err(); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Seq != 3 || got.PageLoadID != snap.PageLoadID || !got.CapturedAt.Equal(snap.CapturedAt) {
		t.Errorf("Read() header = %+v", got)
	}
	if got.FCP == nil || *got.FCP != 120 {
		t.Errorf("FCP = %v, want 120", got.FCP)
	}
	if got.LCP != nil {
		t.Errorf("LCP = %v, want nil", *got.LCP)
	}
	if got.Capabilities[metrics.CategoryLongTask] != metrics.StatusUnsupported {
		t.Errorf("capabilities = %v", got.Capabilities)
	}
}

func TestPublishReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		f.Publish(metrics.Snapshot{Seq: seq})
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Seq != 3 {
		t.Errorf("Seq = %d, want 3", got.Seq)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if name := e.Name(); name != "latest.json" && name != "latest.json.lock" {
			t.Errorf("leftover file %q", name)
		}
	}
}

func TestReadMissingSlot(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Read() error = %v, want ErrEmpty", err)
	}
}

func TestNewFileRequiresPath(t *testing.T) {
	if _, err := NewFile("", nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestReadFileLeavesDirectoryUntouched(t *testing.T) {
	src := filepath.Join(t.TempDir(), "latest.json")
	f, err := NewFile(src, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	f.Publish(metrics.Snapshot{PageLoadID: "copy", Seq: 7})
	if err := f.Err(); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read slot: %v", err)
	}
	dir := t.TempDir()
	copied := filepath.Join(dir, "before.json")
	if err := os.WriteFile(copied, data, 0o444); err != nil {
		t.Fatalf("write copy: %v", err)
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	got, err := ReadFile(copied)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.PageLoadID != "copy" || got.Seq != 7 {
		t.Errorf("ReadFile() = %+v", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory entries = %d, want only the snapshot", len(entries))
	}

	if _, err := ReadFile(filepath.Join(dir, "absent.json")); !errors.Is(err, ErrEmpty) {
		t.Errorf("ReadFile() missing error = %v, want ErrEmpty", err)
	}
}
