package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/config"
	"github.com/torosent/perfpanel/internal/dashboard"
	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/output"
	"github.com/torosent/perfpanel/internal/slot"
	"github.com/torosent/perfpanel/internal/threshold"
)

// session owns the sinks and presenters of one page load and produces the
// final report.
type session struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	out    streams
	meta   output.ReportMetadata
	latest *metrics.Slot
	file   *slot.File
	live   *output.LiveReporter
	dash   *dashboard.Dashboard
	page   *metrics.Page
}

func newSession(cfg *config.Config, log logrus.FieldLogger, out streams, meta output.ReportMetadata, quit func()) (*session, error) {
	s := &session{
		cfg:    cfg,
		log:    log,
		out:    out,
		meta:   meta,
		latest: &metrics.Slot{},
	}

	if strings.TrimSpace(cfg.SlotPath) != "" {
		file, err := slot.NewFile(cfg.SlotPath, log)
		if err != nil {
			return nil, err
		}
		s.file = file
	}

	if cfg.Dashboard {
		info := dashboard.Info{
			TargetURL:  meta.TargetURL,
			Source:     meta.Source,
			Duration:   cfg.Duration,
			ConfigFile: cfg.ConfigFile,
		}
		dash, err := dashboard.New(info, cfg.RedrawInterval, s.refresh, quit)
		if err != nil {
			return nil, err
		}
		s.dash = dash
	} else if cfg.Format == config.FormatText {
		s.live = output.NewLiveReporter(out.stdout, cfg.RedrawInterval)
	}
	return s, nil
}

// sink fans snapshots out to the in-memory slot, the slot file and the
// active presenter.
func (s *session) sink() metrics.Sink {
	sinks := metrics.Sinks{s.latest}
	if s.file != nil {
		sinks = append(sinks, s.file)
	}
	if s.dash != nil {
		sinks = append(sinks, s.dash)
	}
	if s.live != nil {
		sinks = append(sinks, s.live)
	}
	return sinks
}

// start begins collection on page and shows the presenter.
func (s *session) start(page *metrics.Page) {
	s.page = page
	if s.dash != nil {
		s.dash.Start()
	}
	if s.live != nil {
		s.live.Start()
	}
	page.Start()
}

func (s *session) refresh() {
	if s.page != nil {
		s.page.Recompute()
	}
}

// dismissed is closed when the user dismisses the panel; nil without one.
func (s *session) dismissed() <-chan struct{} {
	if s.dash == nil {
		return nil
	}
	return s.dash.Dismissed()
}

// hold keeps a shown panel open until the user quits or dismisses it.
func (s *session) hold(ctx context.Context) {
	if s.dash == nil {
		return
	}
	select {
	case <-ctx.Done():
	case <-s.dash.Dismissed():
	}
}

func (s *session) stop() {
	if s.dash != nil {
		s.dash.Stop()
	}
	if s.live != nil {
		s.live.Stop()
		fmt.Fprintln(s.out.stdout)
	}
}

// report recomputes once more and writes the final report. A failed budget
// is returned as an error wrapping threshold.ErrBudgetFailed.
func (s *session) report() error {
	if s.page == nil {
		return errors.New("no page load was started")
	}
	s.page.Recompute()
	snap, ok := s.latest.Latest()
	if !ok {
		return errors.New("no snapshot was published")
	}
	if s.file != nil {
		if err := s.file.Err(); err != nil {
			s.log.WithError(err).Warn("Snapshot slot is stale")
		} else {
			s.log.WithField("path", s.file.Path()).Info("Snapshot published")
		}
	}

	thresholds, err := threshold.ParseMultiple(s.cfg.Thresholds)
	if err != nil {
		return err
	}
	results, budgetErr := threshold.NewEvaluator(thresholds).Check(snap)

	switch s.cfg.Format {
	case config.FormatJSON:
		if err := output.PrintJSONReport(s.out.stdout, snap); err != nil {
			return err
		}
		output.PrintThresholdResults(s.out.stderr, results)
	case config.FormatYAML:
		if err := output.PrintYAMLReport(s.out.stdout, snap); err != nil {
			return err
		}
		output.PrintThresholdResults(s.out.stderr, results)
	default:
		output.PrintReport(s.out.stdout, snap)
		output.PrintThresholdResults(s.out.stdout, results)
	}

	if s.cfg.HTMLOutput != "" {
		if err := writeHTMLReport(s.cfg.HTMLOutput, snap, results, s.meta); err != nil {
			return err
		}
		s.log.WithField("path", s.cfg.HTMLOutput).Info("HTML report written")
	}

	return budgetErr
}

func writeHTMLReport(path string, snap metrics.Snapshot, results []threshold.Result, meta output.ReportMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, snap, results, meta); err != nil {
		f.Close()
		return fmt.Errorf("failed to generate HTML report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	return nil
}
