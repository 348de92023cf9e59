package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	if cfg.Dashboard {
		// The panel owns the terminal while it is shown.
		log.SetOutput(io.Discard)
	}

	if cfg.Mode == config.ModeCompare {
		return runCompare(cfg, stdout)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.Duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, cfg.Duration)
		defer stop()
	}

	out := streams{stdout: stdout, stderr: stderr}
	switch cfg.Mode {
	case config.ModeWatch:
		return runWatch(ctx, cancel, cfg, log, out)
	case config.ModeReplay:
		return runReplay(ctx, cancel, cfg, log, out)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

type streams struct {
	stdout io.Writer
	stderr io.Writer
}

func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// interrupted reports whether err only signals the end of a session.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
