package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"golang.org/x/time/rate"

	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/output"
)

// Info holds the session parameters shown in the summary block.
type Info struct {
	TargetURL  string        // Page under observation
	Source     string        // "devtools" or the replayed timeline path
	Duration   time.Duration // Session length (0 = until interrupted)
	ConfigFile string        // Path to config file if used
}

// Dashboard renders the performance panel in the terminal. It is a
// metrics.Sink: Publish hands the newest snapshot to the render loop without
// blocking the publishing page.
type Dashboard struct {
	info         Info
	refresh      func()
	shutdownFunc func()
	limiter      *rate.Limiter
	updates      chan metrics.Snapshot
	dismissed    chan struct{}
	closeOnce    sync.Once
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid          *ui.Grid
	summaryPara   *widgets.Paragraph
	vitalsPara    *widgets.Paragraph
	clsGauge      *widgets.Gauge
	weightSparkle *widgets.SparklineGroup
	resourceList  *widgets.List
	capsList      *widgets.List
	helpPara      *widgets.Paragraph
	weightHistory []float64
	latest        metrics.Snapshot
	startTime     time.Time
}

var _ metrics.Sink = (*Dashboard)(nil)

// New creates a dashboard. refresh runs on the refresh key, shutdownFunc on
// quit. Redraws happen at most once per interval.
func New(info Info, interval time.Duration, refresh, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(info, interval, refresh, shutdownFunc)
	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func newDashboard(info Info, interval time.Duration, refresh, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Dashboard{
		info:          info,
		refresh:       refresh,
		shutdownFunc:  shutdownFunc,
		limiter:       rate.NewLimiter(limit, 1),
		updates:       make(chan metrics.Snapshot, 1),
		dismissed:     make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		weightHistory: make([]float64, 0, 100),
		startTime:     time.Now(),
	}
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Performance Panel"
	d.summaryPara.Text = "Waiting for the first snapshot..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.vitalsPara = widgets.NewParagraph()
	d.vitalsPara.Title = "Web Vitals"
	d.vitalsPara.Text = vitalsText(metrics.Snapshot{})
	d.vitalsPara.BorderStyle.Fg = ui.ColorCyan

	d.clsGauge = widgets.NewGauge()
	d.clsGauge.Title = "Cumulative Layout Shift"
	d.clsGauge.Percent = 0
	d.clsGauge.Label = "-"
	d.clsGauge.BarColor = ui.ColorGreen
	d.clsGauge.BorderStyle.Fg = ui.ColorCyan
	d.clsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "KB"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.weightSparkle = widgets.NewSparklineGroup(sparkline)
	d.weightSparkle.Title = "Page Weight"
	d.weightSparkle.BorderStyle.Fg = ui.ColorCyan

	d.resourceList = widgets.NewList()
	d.resourceList.Title = "Heaviest Resources"
	d.resourceList.Rows = []string{"Awaiting data"}
	d.resourceList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.resourceList.BorderStyle.Fg = ui.ColorCyan

	d.capsList = widgets.NewList()
	d.capsList.Title = "Capabilities"
	d.capsList.Rows = []string{"Probing..."}
	d.capsList.BorderStyle.Fg = ui.ColorCyan

	d.helpPara = widgets.NewParagraph()
	d.helpPara.Border = false
	d.helpPara.Text = helpText
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.5, d.vitalsPara),
			ui.NewCol(0.5,
				ui.NewRow(0.5, d.clsGauge),
				ui.NewRow(0.5, d.weightSparkle),
			),
		),
		ui.NewRow(0.48,
			ui.NewCol(0.65, d.resourceList),
			ui.NewCol(0.35, d.capsList),
		),
		ui.NewRow(0.06,
			ui.NewCol(1.0, d.helpPara),
		),
	)
}

// Publish queues s for display, replacing any snapshot not yet drawn.
func (d *Dashboard) Publish(s metrics.Snapshot) {
	for {
		select {
		case d.updates <- s:
			return
		default:
		}
		select {
		case <-d.updates:
		default:
		}
	}
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Dismissed is closed once the user dismisses the panel. Collection and
// publication continue after that; only the terminal UI is gone.
func (d *Dashboard) Dismissed() <-chan struct{} {
	return d.dismissed
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.closeUI()
}

func (d *Dashboard) closeUI() {
	d.closeOnce.Do(func() {
		ui.Close()
		// Give terminal time to restore
		time.Sleep(100 * time.Millisecond)
	})
}

type action int

const (
	actionNone action = iota
	actionRefresh
	actionDismiss
	actionQuit
	actionResize
)

const helpText = "[r](fg:yellow) refresh   [x/Esc](fg:yellow) dismiss panel   [q](fg:yellow) quit"

func keyAction(id string) action {
	switch id {
	case "r", "R":
		return actionRefresh
	case "x", "X", "<Escape>":
		return actionDismiss
	case "q", "<C-c>":
		return actionQuit
	case "<Resize>":
		return actionResize
	default:
		return actionNone
	}
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	uiEvents := ui.PollEvents()

	// redraw is armed by a snapshot and fires when the limiter allows.
	var redraw <-chan time.Time

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch keyAction(e.ID) {
			case actionRefresh:
				if d.refresh != nil {
					d.refresh()
				}
			case actionDismiss:
				d.closeUI()
				close(d.dismissed)
				return
			case actionQuit:
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case actionResize:
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case snap := <-d.updates:
			d.mu.Lock()
			d.latest = snap
			d.mu.Unlock()
			if redraw == nil {
				redraw = time.After(d.limiter.Reserve().Delay())
			}
		case <-redraw:
			redraw = nil
			d.mu.Lock()
			d.update(d.latest)
			d.mu.Unlock()
			d.render()
		}
	}
}

// update refreshes all widget data from snap. Callers hold d.mu.
func (d *Dashboard) update(snap metrics.Snapshot) {
	d.summaryPara.Text = summaryText(d.info, snap, time.Since(d.startTime))
	d.vitalsPara.Text = vitalsText(snap)

	percent, color := clsGauge(snap.CLS)
	d.clsGauge.Percent = percent
	d.clsGauge.BarColor = color
	d.clsGauge.Label = output.FormatScore(snap.CLS)

	if snap.TotalRequests > 0 {
		kb := float64(snap.TotalBytes) / 1024
		d.weightHistory = append(d.weightHistory, kb)
		if len(d.weightHistory) > 100 {
			d.weightHistory = d.weightHistory[1:]
		}
		d.weightSparkle.Sparklines[0].Data = d.weightHistory
		d.weightSparkle.Title = fmt.Sprintf("Page Weight | %s in %d requests", output.FormatKB(snap.TotalBytes, snap.TotalRequests), snap.TotalRequests)
	}

	d.resourceList.Rows = resourceRows(snap.Resources, 10)
	d.capsList.Rows = capabilityRows(snap.Capabilities)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func summaryText(info Info, snap metrics.Snapshot, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n", orDash(info.TargetURL))

	var params []string
	if info.Source != "" {
		params = append(params, "Source: "+info.Source)
	}
	if info.Duration > 0 {
		params = append(params, fmt.Sprintf("Duration: %s", info.Duration))
	}
	if info.ConfigFile != "" {
		params = append(params, "Config: "+info.ConfigFile)
	}
	if len(params) > 0 {
		b.WriteString(strings.Join(params, " | "))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Elapsed: %s | Page load: %s | Snapshot #%d | Visibility: %s",
		elapsed.Round(time.Second),
		orDash(snap.PageLoadID),
		snap.Seq,
		orDash(string(snap.Visibility)),
	)
	return b.String()
}

func vitalsText(snap metrics.Snapshot) string {
	lines := []string{
		"First Contentful Paint:   " + output.FormatMs(snap.FCP),
		"Largest Contentful Paint: " + output.FormatMs(snap.LCP),
		"Cumulative Layout Shift:  " + output.FormatScore(snap.CLS),
		"Total Blocking Time (≈):  " + output.FormatMs(snap.TBTApprox),
		"Long Tasks:               " + longTasksText(snap),
		"Requests:                 " + output.FormatRequests(snap.TotalRequests),
		"Total Weight:             " + output.FormatKB(snap.TotalBytes, snap.TotalRequests),
	}
	for _, t := range output.NavigationTimings(snap.Navigation) {
		lines = append(lines, fmt.Sprintf("%-26s%.0f ms", t.Label+":", t.Ms))
	}
	return strings.Join(lines, "\n")
}

func longTasksText(snap metrics.Snapshot) string {
	if snap.LongTasks == nil {
		return "-"
	}
	if snap.LongTasksTime == nil {
		return output.FormatCount(snap.LongTasks)
	}
	return fmt.Sprintf("%d (%s)", *snap.LongTasks, output.FormatMs(snap.LongTasksTime))
}

// clsGauge scales a layout shift score against the 0.25 "poor" boundary.
func clsGauge(cls *float64) (int, ui.Color) {
	if cls == nil {
		return 0, ui.ColorWhite
	}
	percent := int(*cls / 0.25 * 100)
	if percent > 100 {
		percent = 100
	}
	switch {
	case *cls <= 0.1:
		return percent, ui.ColorGreen
	case *cls <= 0.25:
		return percent, ui.ColorYellow
	default:
		return percent, ui.ColorRed
	}
}

func resourceRows(resources []metrics.ResourceTiming, limit int) []string {
	heaviest := metrics.HeaviestResources(resources, limit)
	if len(heaviest) == 0 {
		return []string{"[No resources yet](fg:green)"}
	}
	rows := make([]string, 0, len(heaviest))
	for _, r := range heaviest {
		kind := r.InitiatorType
		if kind == "" {
			kind = "other"
		}
		rows = append(rows, fmt.Sprintf("[%8.1f KB](fg:yellow) | %6.0f ms | %-10s | %s",
			float64(r.Bytes())/1024,
			r.Duration,
			kind,
			r.Name,
		))
	}
	return rows
}

func capabilityRows(caps metrics.Capabilities) []string {
	rows := metrics.FlattenCapabilities(caps)
	if len(rows) == 0 {
		return []string{"Probing..."}
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		color := "yellow"
		switch row.Status {
		case metrics.StatusSupported:
			color = "green"
		case metrics.StatusUnsupported:
			color = "red"
		}
		formatted = append(formatted, fmt.Sprintf("%s [%s](fg:%s)", row.Category, row.Status, color))
	}
	return formatted
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
