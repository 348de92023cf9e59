package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/perfpanel/internal/config"
)

func TestLoadWithoutModeRequestsHelp(t *testing.T) {
	_, err := config.NewLoader().Load([]string{})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Errorf("Load() error = %v, want ErrHelpRequested", err)
	}
	_, err = config.NewLoader().Load([]string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Errorf("Load(--help) error = %v, want ErrHelpRequested", err)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"replay", "--timeline", "t.jsonl"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != config.ModeReplay {
		t.Errorf("Mode = %q, want replay", cfg.Mode)
	}
	if cfg.CDPEndpoint != config.DefaultCDPEndpoint {
		t.Errorf("CDPEndpoint = %q", cfg.CDPEndpoint)
	}
	if cfg.CDPTimeout != 30*time.Second {
		t.Errorf("CDPTimeout = %s, want 30s", cfg.CDPTimeout)
	}
	if cfg.Format != config.FormatText {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.SlotPath != config.DefaultSlotPath() {
		t.Errorf("SlotPath = %q, want %q", cfg.SlotPath, config.DefaultSlotPath())
	}
	if cfg.RedrawInterval != 250*time.Millisecond {
		t.Errorf("RedrawInterval = %s, want 250ms", cfg.RedrawInterval)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Dashboard || cfg.Speed != 0 || cfg.Duration != 0 {
		t.Errorf("unexpected non-zero defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perfpanel.yaml")
	if err := os.WriteFile(path, []byte(`
target: https://example.com/
cdp: http://localhost:9333
duration: 45s
format: yaml
slot: /tmp/perfpanel-test/latest.json
thresholds:
  - lcp < 2500
  - bytes < 1mb
unsupported: layout-shift
log_level: info
`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"watch", "--config", path, "--format", "json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "https://example.com/" || cfg.CDPEndpoint != "http://localhost:9333" {
		t.Errorf("target/cdp = %q / %q", cfg.TargetURL, cfg.CDPEndpoint)
	}
	if cfg.Duration != 45*time.Second {
		t.Errorf("Duration = %s, want 45s", cfg.Duration)
	}
	if cfg.Format != config.FormatJSON {
		t.Errorf("Format = %q, flag should override file", cfg.Format)
	}
	if cfg.SlotPath != "/tmp/perfpanel-test/latest.json" {
		t.Errorf("SlotPath = %q", cfg.SlotPath)
	}
	if len(cfg.Thresholds) != 2 {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cats := cfg.UnsupportedCategories(); len(cats) != 1 || cats[0] != "layout-shift" {
		t.Errorf("UnsupportedCategories() = %v", cats)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadCompareArguments(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"compare", "before.json", "after.json", "--compare-format", "CSV"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Compare.Before != "before.json" || cfg.Compare.After != "after.json" {
		t.Errorf("Compare = %+v", cfg.Compare)
	}
	if cfg.Compare.Format != config.CompareFormatCSV {
		t.Errorf("Compare.Format = %q, want csv", cfg.Compare.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if _, err := config.NewLoader().Load([]string{"compare", "a", "b", "c"}); err == nil {
		t.Error("expected error for three compare arguments")
	}
	if _, err := config.NewLoader().Load([]string{"watch", "extra"}); err == nil {
		t.Error("expected error for stray argument")
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			Mode:           config.ModeWatch,
			CDPEndpoint:    config.DefaultCDPEndpoint,
			CDPTimeout:     time.Second,
			TargetURL:      "https://example.com",
			Format:         config.FormatText,
			RedrawInterval: time.Second,
			LogLevel:       "warn",
			Compare:        config.CompareConfig{Format: config.CompareFormatMarkdown},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid watch", func(*config.Config) {}, ""},
		{"missing target", func(c *config.Config) { c.TargetURL = "" }, "target is required"},
		{"relative target", func(c *config.Config) { c.TargetURL = "example.com/page" }, "not an absolute URL"},
		{"missing cdp", func(c *config.Config) { c.CDPEndpoint = " " }, "cdp endpoint is required"},
		{"replay without timeline", func(c *config.Config) { c.Mode = config.ModeReplay }, "timeline is required"},
		{"negative speed", func(c *config.Config) {
			c.Mode = config.ModeReplay
			c.Timeline = "t.jsonl"
			c.Speed = -1
		}, "speed must be non-negative"},
		{"bad format", func(c *config.Config) { c.Format = "xml" }, "format must be"},
		{"bad category", func(c *config.Config) { c.Unsupported = []string{"element"} }, "unknown category"},
		{"bad threshold", func(c *config.Config) { c.Thresholds = []string{"speed > 9000"} }, "threshold"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"unknown mode", func(c *config.Config) { c.Mode = "serve" }, "unknown mode"},
		{"compare without files", func(c *config.Config) { c.Mode = config.ModeCompare }, "two snapshot files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) || len(verr.Issues()) == 0 {
				t.Errorf("Validate() error should be a ValidationError with issues: %v", err)
			}
		})
	}
}
