package output

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/perfpanel/internal/metrics"
)

// LiveReporter rewrites a single status line with every published snapshot.
// It is a metrics.Sink; Publish never blocks and only the newest pending
// snapshot is rendered.
type LiveReporter struct {
	writer   io.Writer
	limiter  *rate.Limiter
	updates  chan metrics.Snapshot
	done     chan struct{}
	finished chan struct{}
	active   int32
	width    int
}

var _ metrics.Sink = (*LiveReporter)(nil)

// NewLiveReporter creates a reporter that redraws at most once per interval.
func NewLiveReporter(writer io.Writer, interval time.Duration) *LiveReporter {
	if writer == nil {
		writer = io.Discard
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &LiveReporter{
		writer:   writer,
		limiter:  rate.NewLimiter(limit, 1),
		updates:  make(chan metrics.Snapshot, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Publish queues s for display, replacing any snapshot not yet drawn.
func (p *LiveReporter) Publish(s metrics.Snapshot) {
	for {
		select {
		case p.updates <- s:
			return
		default:
		}
		select {
		case <-p.updates:
		default:
		}
	}
}

// Start begins rendering in a background goroutine.
func (p *LiveReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop renders the last pending snapshot and halts updates.
func (p *LiveReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		<-p.finished
	}
}

func (p *LiveReporter) run() {
	defer close(p.finished)
	for {
		select {
		case snap := <-p.updates:
			if d := p.limiter.Reserve().Delay(); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-timer.C:
				case <-p.done:
					timer.Stop()
					p.write(p.newest(snap))
					return
				}
			}
			p.write(p.newest(snap))
		case <-p.done:
			select {
			case snap := <-p.updates:
				p.write(snap)
			default:
			}
			return
		}
	}
}

func (p *LiveReporter) newest(snap metrics.Snapshot) metrics.Snapshot {
	select {
	case newer := <-p.updates:
		return newer
	default:
		return snap
	}
}

func (p *LiveReporter) write(snap metrics.Snapshot) {
	line := StatusLine(snap)
	pad := ""
	if n := p.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.width = len(line)
	fmt.Fprint(p.writer, "\r"+line+pad)
}

// StatusLine renders a snapshot on one line.
func StatusLine(snap metrics.Snapshot) string {
	return fmt.Sprintf("FCP: %s | LCP: %s | CLS: %s | TBT≈ %s | Requests: %s | Weight: %s",
		FormatMs(snap.FCP),
		FormatMs(snap.LCP),
		FormatScore(snap.CLS),
		FormatMs(snap.TBTApprox),
		FormatRequests(snap.TotalRequests),
		FormatKB(snap.TotalBytes, snap.TotalRequests),
	)
}
