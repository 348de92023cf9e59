package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/torosent/perfpanel/internal/metrics"
	"github.com/torosent/perfpanel/internal/threshold"
)

type Mode string

const (
	ModeWatch   Mode = "watch"
	ModeReplay  Mode = "replay"
	ModeCompare Mode = "compare"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type CompareFormat string

const (
	CompareFormatMarkdown CompareFormat = "markdown"
	CompareFormatCSV      CompareFormat = "csv"
)

// DefaultCDPEndpoint is the DevTools endpoint of a locally started Chromium
// with --remote-debugging-port=9222.
const DefaultCDPEndpoint = "http://127.0.0.1:9222"

const (
	defaultRedrawInterval = 250 * time.Millisecond
	defaultCDPTimeout     = 30 * time.Second
)

type Config struct {
	Mode       Mode   `mapstructure:"-"`
	ConfigFile string `mapstructure:"-"`
	LogLevel   string `mapstructure:"log_level"`

	CDPEndpoint string        `mapstructure:"cdp"`
	CDPTimeout  time.Duration `mapstructure:"cdp_timeout"`
	TargetURL   string        `mapstructure:"target"`
	Duration    time.Duration `mapstructure:"duration"`

	Timeline    string    `mapstructure:"timeline"`
	Speed       float64   `mapstructure:"speed"`
	Unsupported []string  `mapstructure:"unsupported"`
	HAR         HARConfig `mapstructure:"har"`

	SlotPath       string        `mapstructure:"slot"`
	Format         Format        `mapstructure:"format"`
	HTMLOutput     string        `mapstructure:"html_output"`
	Dashboard      bool          `mapstructure:"dashboard"`
	RedrawInterval time.Duration `mapstructure:"redraw_interval"`
	Thresholds     []string      `mapstructure:"thresholds"`

	Compare CompareConfig `mapstructure:"compare"`
}

type HARConfig struct {
	Path         string   `mapstructure:"path"`
	Page         string   `mapstructure:"page"`
	IncludeHosts []string `mapstructure:"include_hosts"`
	ExcludeHosts []string `mapstructure:"exclude_hosts"`
}

type CompareConfig struct {
	Before      string        `mapstructure:"before"`
	After       string        `mapstructure:"after"`
	Format      CompareFormat `mapstructure:"format"`
	Interactive bool          `mapstructure:"interactive"`
}

// DefaultSlotPath returns the well-known snapshot slot location.
func DefaultSlotPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "perfpanel", "latest.json")
}

// UnsupportedCategories returns the categories forced unsupported. Validate
// reports unknown names.
func (c Config) UnsupportedCategories() []metrics.Category {
	var cats []metrics.Category
	for _, name := range c.Unsupported {
		if cat, ok := metrics.ParseCategory(name); ok {
			cats = append(cats, cat)
		}
	}
	return cats
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	switch c.Mode {
	case ModeWatch:
		issues = append(issues, validateWatch(c)...)
	case ModeReplay:
		if strings.TrimSpace(c.Timeline) == "" {
			issues = append(issues, "timeline is required in replay mode")
		}
		if c.Speed < 0 {
			issues = append(issues, "speed must be non-negative")
		}
	case ModeCompare:
		if c.Compare.Before == "" || c.Compare.After == "" {
			issues = append(issues, "compare requires two snapshot files: compare <before.json> <after.json>")
		}
		switch c.Compare.Format {
		case CompareFormatMarkdown, CompareFormatCSV:
		default:
			issues = append(issues, fmt.Sprintf("compare format must be markdown or csv, got %q", c.Compare.Format))
		}
	default:
		issues = append(issues, fmt.Sprintf("unknown mode %q (use watch, replay or compare)", c.Mode))
	}

	if c.Mode != ModeCompare {
		switch c.Format {
		case FormatText, FormatJSON, FormatYAML:
		default:
			issues = append(issues, fmt.Sprintf("format must be text, json or yaml, got %q", c.Format))
		}
		if c.Duration < 0 {
			issues = append(issues, "duration must be non-negative")
		}
		if c.Dashboard && c.RedrawInterval <= 0 {
			issues = append(issues, "redraw interval must be positive")
		}
		for _, name := range c.Unsupported {
			if _, ok := metrics.ParseCategory(name); !ok {
				issues = append(issues, fmt.Sprintf("unknown category %q in unsupported list", name))
			}
		}
		if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
			issues = append(issues, err.Error())
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateWatch(c Config) []string {
	var issues []string
	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required in watch mode (use --help for usage information)")
	} else if u, err := url.Parse(c.TargetURL); err != nil || u.Scheme == "" {
		issues = append(issues, fmt.Sprintf("target %q is not an absolute URL", c.TargetURL))
	}
	if strings.TrimSpace(c.CDPEndpoint) == "" {
		issues = append(issues, "cdp endpoint is required in watch mode")
	}
	if c.CDPTimeout <= 0 {
		issues = append(issues, "cdp timeout must be positive")
	}
	return issues
}
