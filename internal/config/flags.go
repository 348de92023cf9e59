package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "perfpanel <watch|replay|compare> [flags]",
		Short:         "Watch web performance metrics of a page load",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Live browser flags
	flags.String("cdp", DefaultCDPEndpoint, "DevTools endpoint: http://host:port or a ws:// page target")
	flags.Duration("cdp-timeout", defaultCDPTimeout, "Timeout for connecting to the browser and navigating")
	flags.String("target", "", "URL of the page to measure (watch mode)")
	flags.DurationP("duration", "d", 0, "How long to watch before reporting (0 means until interrupted)")

	// Replay flags
	flags.String("timeline", "", "Path to a recorded JSON-lines timeline (replay mode)")
	flags.Float64("speed", 0, "Replay speed factor (0 replays as fast as possible)")
	flags.StringSlice("unsupported", nil, "Treat an entry category as unsupported (repeatable)")
	flags.String("har", "", "Path to a HAR file seeding resource and navigation timing (replay mode)")
	flags.String("har-page", "", "HAR page id to use (defaults to the first page)")
	flags.StringSlice("har-include-host", nil, "Only keep HAR entries for this host (repeatable)")
	flags.StringSlice("har-exclude-host", nil, "Drop HAR entries for this host (repeatable)")

	// Output flags
	flags.String("slot", DefaultSlotPath(), "File the latest snapshot is published to (empty disables it)")
	flags.StringP("format", "f", string(FormatText), "Final report format: text, json or yaml")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Duration("redraw-interval", defaultRedrawInterval, "Minimum interval between live redraws")
	flags.StringSlice("threshold", nil, "Performance budgets (repeatable, e.g., 'lcp < 2500')")

	// Compare flags
	flags.String("compare-format", string(CompareFormatMarkdown), "Comparison output: markdown or csv")
	flags.BoolP("interactive", "i", false, "Browse the comparison in an interactive view")

	flags.String("log-level", "warn", "Log level: trace, debug, info, warn or error")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n", cmd.UseLine())
	fmt.Fprintln(out, "Modes:")
	fmt.Fprintln(out, "  watch     measure a live page through the DevTools protocol")
	fmt.Fprintln(out, "  replay    aggregate a recorded timeline")
	fmt.Fprintln(out, "  compare   diff two published snapshots: compare <before.json> <after.json>")
	fmt.Fprintln(out, "\nFlags:")
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("cdp") {
		val, err := fs.GetString("cdp")
		if err != nil {
			return err
		}
		cfg.CDPEndpoint = strings.TrimSpace(val)
	}
	if fs.Changed("cdp-timeout") {
		val, err := fs.GetDuration("cdp-timeout")
		if err != nil {
			return err
		}
		cfg.CDPTimeout = val
	}
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("timeline") {
		val, err := fs.GetString("timeline")
		if err != nil {
			return err
		}
		cfg.Timeline = strings.TrimSpace(val)
	}
	if fs.Changed("speed") {
		val, err := fs.GetFloat64("speed")
		if err != nil {
			return err
		}
		cfg.Speed = val
	}
	if fs.Changed("unsupported") {
		val, err := fs.GetStringSlice("unsupported")
		if err != nil {
			return err
		}
		cfg.Unsupported = val
	}
	if fs.Changed("har") {
		val, err := fs.GetString("har")
		if err != nil {
			return err
		}
		cfg.HAR.Path = strings.TrimSpace(val)
	}
	if fs.Changed("har-page") {
		val, err := fs.GetString("har-page")
		if err != nil {
			return err
		}
		cfg.HAR.Page = strings.TrimSpace(val)
	}
	if fs.Changed("har-include-host") {
		val, err := fs.GetStringSlice("har-include-host")
		if err != nil {
			return err
		}
		cfg.HAR.IncludeHosts = val
	}
	if fs.Changed("har-exclude-host") {
		val, err := fs.GetStringSlice("har-exclude-host")
		if err != nil {
			return err
		}
		cfg.HAR.ExcludeHosts = val
	}
	if fs.Changed("slot") {
		val, err := fs.GetString("slot")
		if err != nil {
			return err
		}
		cfg.SlotPath = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("redraw-interval") {
		val, err := fs.GetDuration("redraw-interval")
		if err != nil {
			return err
		}
		cfg.RedrawInterval = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("compare-format") {
		val, err := fs.GetString("compare-format")
		if err != nil {
			return err
		}
		cfg.Compare.Format = CompareFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("interactive") {
		val, err := fs.GetBool("interactive")
		if err != nil {
			return err
		}
		cfg.Compare.Interactive = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	return nil
}
