package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/browser"
	"github.com/torosent/perfpanel/internal/cdp"
	"github.com/torosent/perfpanel/internal/config"
	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/output"
)

// runWatch attaches to a DevTools page, navigates it to the target and
// collects until the session ends.
func runWatch(ctx context.Context, quit context.CancelFunc, cfg *config.Config, log *logrus.Logger, out streams) error {
	dialCtx, cancelDial := context.WithTimeout(ctx, cfg.CDPTimeout)
	defer cancelDial()

	wsURL, err := browser.ResolveTarget(dialCtx, &http.Client{Timeout: cfg.CDPTimeout}, cfg.CDPEndpoint)
	if err != nil {
		return err
	}
	log.WithField("target", wsURL).Debug("Resolved DevTools target")

	client, err := cdp.Dial(dialCtx, wsURL, cdp.WithLogger(log))
	if err != nil {
		return err
	}
	defer client.Close()

	rt, err := browser.New(ctx, client,
		browser.WithLogger(log),
		browser.WithUnsupported(cfg.UnsupportedCategories()...),
	)
	if err != nil {
		return err
	}

	meta := output.ReportMetadata{TargetURL: cfg.TargetURL, Source: "devtools " + cfg.CDPEndpoint}
	sess, err := newSession(cfg, log, out, meta, quit)
	if err != nil {
		return err
	}

	page := metrics.NewPage(rt, sess.sink(), metrics.WithLogger(log))
	sess.start(page)
	log.WithFields(logrus.Fields{"page_load": page.ID(), "url": cfg.TargetURL}).Info("Watching page load")

	if err := rt.Navigate(dialCtx, cfg.TargetURL); err != nil {
		sess.stop()
		return err
	}

	var sessionErr error
	dismissed := sess.dismissed()
wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case <-rt.Replaced():
			log.Info("Page navigated to a new document; ending session")
			break wait
		case <-client.Done():
			sessionErr = fmt.Errorf("devtools connection lost: %w", client.Err())
			break wait
		case <-dismissed:
			log.Info("Panel dismissed; collection continues")
			dismissed = nil
		}
	}

	sess.stop()
	if err := sess.report(); err != nil {
		return err
	}
	return sessionErr
}
