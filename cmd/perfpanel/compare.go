package main

import (
	"fmt"
	"io"
	"os"

	"github.com/torosent/perfpanel/internal/compare"
	"github.com/torosent/perfpanel/internal/config"
	"github.com/torosent/perfpanel/internal/slot"
)

// runCompare diffs two published snapshot files. They are read without
// locking, so copies in read-only locations work.
func runCompare(cfg *config.Config, stdout io.Writer) error {
	before, err := slot.ReadFile(cfg.Compare.Before)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.Compare.Before, err)
	}
	after, err := slot.ReadFile(cfg.Compare.After)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.Compare.After, err)
	}

	report := compare.NewReport(cfg.Compare.Before, before, cfg.Compare.After, after)

	if cfg.Compare.Interactive {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		return compare.Run(report, dir)
	}

	switch cfg.Compare.Format {
	case config.CompareFormatCSV:
		doc, err := compare.GenerateCSV(report)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, doc)
		return err
	default:
		_, err := io.WriteString(stdout, compare.GenerateMarkdownTable(report))
		return err
	}
}
