package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/config"
	"github.com/torosent/perfpanel/internal/har"
	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/output"
	"github.com/torosent/perfpanel/internal/replay"
)

// runReplay plays a recorded timeline through a fresh page load.
func runReplay(ctx context.Context, quit context.CancelFunc, cfg *config.Config, log *logrus.Logger, out streams) error {
	events, err := replay.ReadFile(cfg.Timeline)
	if err != nil {
		return err
	}
	seed, err := loadHARSeed(cfg.HAR)
	if err != nil {
		return err
	}

	rt := replay.New(events,
		replay.WithLogger(log),
		replay.WithSpeed(cfg.Speed),
		replay.WithUnsupported(cfg.UnsupportedCategories()...),
		replay.WithSeed(seed),
	)

	meta := output.ReportMetadata{TargetURL: cfg.TargetURL, Source: "replay " + cfg.Timeline}
	sess, err := newSession(cfg, log, out, meta, quit)
	if err != nil {
		return err
	}

	page := metrics.NewPage(rt, sess.sink(), metrics.WithLogger(log))
	sess.start(page)
	log.WithFields(logrus.Fields{"page_load": page.ID(), "events": len(events)}).Info("Replaying timeline")

	if err := rt.Run(ctx); err != nil && !interrupted(err) {
		sess.stop()
		return err
	}
	sess.hold(ctx)
	sess.stop()
	return sess.report()
}

// loadHARSeed converts the configured archive into the resource and
// navigation buffers the replay starts from. It returns nil without one.
func loadHARSeed(cfg config.HARConfig) (*har.Timeline, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, nil
	}

	doc, err := har.ParseFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HAR file: %w", err)
	}

	tl, err := har.ToTimeline(doc, har.ConvertOptions{
		PageRef:      cfg.Page,
		IncludeHosts: cfg.IncludeHosts,
		ExcludeHosts: cfg.ExcludeHosts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert HAR: %w", err)
	}
	return tl, nil
}
