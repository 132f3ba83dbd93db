package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	sb "github.com/MylesMzyece/Astrophysics-research-image-coadder-automation-tool/pkg/sexbatch"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	settingsPath string
	logLevel     string
	logFormat    string
	flags        sb.Settings
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "sexbatch",
		Short: "Run SourceExtractor on every FITS image in a directory",
		Long: `sexbatch finds the FITS images (.fits, .fit, .FITS, .FIT) of the working
directory and runs SourceExtractor once per image, writing <name>.cat and
<name>_check.fits into the output directory.

A companion uncertainty or weight image is picked up by name, either by
suffix (m31_unc.fits, m31_wht.fits, ...) or by replacing an -int/-sci
component (m31-int.fits -> m31-unc.fits, m31-wht.fits, ...), and passed
as MAP_RMS or MAP_WEIGHT.`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.settingsPath, "settings", sb.DefaultSettings, "YAML settings file (optional)")
	f.StringVarP(&opts.logLevel, "log-level", "l", "info", "Log level (trace, debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "console", "Log format (console, json)")
	f.StringVar(&opts.flags.Dir, "dir", ".", "Directory to search for images")
	f.StringVar(&opts.flags.Tool, "tool", "", "SourceExtractor binary (default: sex or source-extractor on PATH)")
	f.StringVar(&opts.flags.ConfigFile, "config-file", sb.DefaultConfigFile, "SourceExtractor configuration file")
	f.StringVar(&opts.flags.ParamFile, "param-file", sb.DefaultParamFile, "SourceExtractor parameter file")
	f.StringVarP(&opts.flags.OutputDir, "output-dir", "o", sb.DefaultOutputDir, "Directory for catalogs and check images")
	f.BoolVar(&opts.flags.SkipWeights, "skip-weights", false, "Do not process images that are another image's weight map")
	f.BoolVar(&opts.flags.Preview, "preview", false, "Write a PNG quick-look of each check image")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	log, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}

	settings, err := sb.LoadSettings(opts.settingsPath)
	if err != nil {
		return err
	}
	settings = applyFlags(cmd, settings, opts.flags)

	batch := &sb.Batch{Settings: settings, Log: log}
	summary, err := batch.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, summary)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	for _, o := range summary.Failed() {
		fmt.Fprintf(out, "  failed: %s\n", o.Job.Image.Path())
	}
	fmt.Fprintf(out, "\nCatalogs saved in '%s'\n", settings.WithDefaults().OutputDir)
	return nil
}

// applyFlags overrides settings with the flags set on the command line.
func applyFlags(cmd *cobra.Command, s sb.Settings, flags sb.Settings) sb.Settings {
	changed := cmd.Flags().Changed
	if changed("dir") {
		s.Dir = flags.Dir
	}
	if changed("tool") {
		s.Tool = flags.Tool
	}
	if changed("config-file") {
		s.ConfigFile = flags.ConfigFile
	}
	if changed("param-file") {
		s.ParamFile = flags.ParamFile
	}
	if changed("output-dir") {
		s.OutputDir = flags.OutputDir
	}
	if changed("skip-weights") {
		s.SkipWeights = flags.SkipWeights
	}
	if changed("preview") {
		s.Preview = flags.Preview
	}
	return s
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
