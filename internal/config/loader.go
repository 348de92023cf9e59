package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// The first positional argument selects the mode; compare takes two more.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Mode:           Mode(strings.ToLower(strings.TrimSpace(positional[0]))),
		ConfigFile:     configPath,
		LogLevel:       "warn",
		CDPEndpoint:    DefaultCDPEndpoint,
		CDPTimeout:     defaultCDPTimeout,
		SlotPath:       DefaultSlotPath(),
		Format:         FormatText,
		RedrawInterval: defaultRedrawInterval,
		Compare:        CompareConfig{Format: CompareFormatMarkdown},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	rest := positional[1:]
	switch {
	case cfg.Mode == ModeCompare:
		if len(rest) > 2 {
			return nil, fmt.Errorf("compare takes two snapshot files, got %d arguments", len(rest))
		}
		if len(rest) > 0 {
			cfg.Compare.Before = strings.TrimSpace(rest[0])
		}
		if len(rest) > 1 {
			cfg.Compare.After = strings.TrimSpace(rest[1])
		}
	case len(rest) > 0:
		return nil, fmt.Errorf("unexpected argument %q", rest[0])
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "cdp"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("cdp: %w", err)
		}
		cfg.CDPEndpoint = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "cdptimeout", "cdp_timeout", "cdp-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("cdpTimeout: %w", err)
		}
		cfg.CDPTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "target"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = dur
	}

	if raw, ok := lookupSetting(settings, "timeline"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
		cfg.Timeline = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "speed"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("speed: %w", err)
		}
		cfg.Speed = val
	}

	if raw, ok := lookupSetting(settings, "unsupported"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("unsupported: %w", err)
		}
		cfg.Unsupported = vals
	}

	if raw, ok := lookupSetting(settings, "har"); ok {
		har, err := parseHARConfig(raw)
		if err != nil {
			return fmt.Errorf("har: %w", err)
		}
		cfg.HAR = har
	}

	if raw, ok := lookupSetting(settings, "slot"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("slot: %w", err)
		}
		cfg.SlotPath = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "redrawinterval", "redraw_interval", "redraw-interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("redrawInterval: %w", err)
		}
		cfg.RedrawInterval = dur
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = vals
	}

	if raw, ok := lookupSetting(settings, "compare"); ok {
		cmp, err := parseCompareConfig(raw, cfg.Compare)
		if err != nil {
			return fmt.Errorf("compare: %w", err)
		}
		cfg.Compare = cmp
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	return nil
}

func parseHARConfig(value interface{}) (HARConfig, error) {
	// A bare string is the HAR path.
	if s, ok := value.(string); ok {
		return HARConfig{Path: strings.TrimSpace(s)}, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return HARConfig{}, err
	}

	var har HARConfig
	if raw, ok := lookupSetting(settings, "path"); ok {
		val, err := asString(raw)
		if err != nil {
			return HARConfig{}, fmt.Errorf("path: %w", err)
		}
		har.Path = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "page"); ok {
		val, err := asString(raw)
		if err != nil {
			return HARConfig{}, fmt.Errorf("page: %w", err)
		}
		har.Page = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "includehosts", "include_hosts", "include-hosts"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return HARConfig{}, fmt.Errorf("includeHosts: %w", err)
		}
		har.IncludeHosts = vals
	}
	if raw, ok := lookupSetting(settings, "excludehosts", "exclude_hosts", "exclude-hosts"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return HARConfig{}, fmt.Errorf("excludeHosts: %w", err)
		}
		har.ExcludeHosts = vals
	}
	return har, nil
}

func parseCompareConfig(value interface{}, base CompareConfig) (CompareConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return CompareConfig{}, err
	}

	cmp := base
	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return CompareConfig{}, fmt.Errorf("format: %w", err)
		}
		cmp.Format = CompareFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if raw, ok := lookupSetting(settings, "interactive"); ok {
		val, err := asBool(raw)
		if err != nil {
			return CompareConfig{}, fmt.Errorf("interactive: %w", err)
		}
		cmp.Interactive = val
	}
	return cmp, nil
}
