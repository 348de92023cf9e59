// Package slot persists the latest published snapshot to a well-known file
// so other processes can read it while a page is being measured.
package slot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/metrics"
)

// ErrEmpty is returned by Read when nothing was published yet.
var ErrEmpty = errors.New("no snapshot published")

// File is a metrics.Sink that replaces the file's content on every
// publication. Writers hold an exclusive lock on a sibling ".lock" file.
type File struct {
	path string
	lock *flock.Flock
	log  logrus.FieldLogger

	mu  sync.Mutex
	err error
}

var _ metrics.Sink = (*File)(nil)

// NewFile prepares path for publication, creating its directory.
func NewFile(path string, log logrus.FieldLogger) (*File, error) {
	if path == "" {
		return nil, errors.New("slot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &File{
		path: path,
		lock: flock.New(lockPath(path)),
		log:  log.WithField("slot", path),
	}, nil
}

// Path returns the slot file path.
func (f *File) Path() string { return f.path }

// Publish writes s. Failures are logged and kept for Err.
func (f *File) Publish(s metrics.Snapshot) {
	err := f.write(s)
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	if err != nil {
		f.log.WithError(err).Warn("Failed to write snapshot slot")
	}
}

// Err returns the error of the most recent publication.
func (f *File) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *File) write(s metrics.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}
	defer f.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace slot: %w", err)
	}
	return nil
}

// Read returns the snapshot stored at path under a shared lock. Use it for
// a slot that may still be written to.
func Read(path string) (metrics.Snapshot, error) {
	lock := flock.New(lockPath(path))
	if err := lock.RLock(); err != nil {
		return metrics.Snapshot{}, fmt.Errorf("failed to lock slot: %w", err)
	}
	defer lock.Unlock()
	return decode(path)
}

// ReadFile returns the snapshot stored at path without taking the lock, so
// nothing is created next to it. Slots are replaced by rename, so a reader
// never sees a partial write.
func ReadFile(path string) (metrics.Snapshot, error) {
	return decode(path)
}

func decode(path string) (metrics.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return metrics.Snapshot{}, ErrEmpty
	}
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("failed to read slot: %w", err)
	}
	var s metrics.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return metrics.Snapshot{}, fmt.Errorf("failed to decode slot %s: %w", path, err)
	}
	return s, nil
}

func lockPath(path string) string { return path + ".lock" }
