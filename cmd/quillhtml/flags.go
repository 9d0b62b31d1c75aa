package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// Color modes accepted by --color.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// Output formats accepted by md --to.
const (
	formatDelta = "delta"
	formatHTML  = "html"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// workerFlags holds flags for the HTML to delta backends.
type workerFlags struct {
	backend    string
	timeout    string
	workers    int
	retries    int
	retriesSet bool
	assetPath  string
}

// outputFlags holds flags shaping what is written.
type outputFlags struct {
	dir        string
	minify     bool
	noSanitize bool
	color      string
	format     string // md command only
}

// convertFlags holds all flags for the html, delta and md commands.
type convertFlags struct {
	common commonFlags
	worker workerFlags
	output outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show worker lifecycle and timing")
}

// addWorkerFlags adds backend flags to a FlagSet.
func addWorkerFlags(fs *flag.FlagSet, f *workerFlags) {
	fs.StringVarP(&f.backend, "backend", "b", "", "HTML to delta backend: node, browser")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.IntVar(&f.retries, "retries", 0, "worker restarts allowed per document")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding the embedded worker script and page")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags, withFormat bool) {
	fs.StringVarP(&f.dir, "output-dir", "o", "", "output directory (default: next to each input)")
	fs.BoolVar(&f.minify, "minify", false, "minify HTML output")
	fs.BoolVar(&f.noSanitize, "no-sanitize", false, "skip HTML sanitizing before conversion")
	fs.StringVar(&f.color, "color", colorAuto, "highlight stdout: auto, always, never")
	if withFormat {
		fs.StringVar(&f.format, "to", formatDelta, "output format: delta, html")
	}
}

// parseConvertFlags parses flags for cmd and returns positional args.
// Help output goes to usage.
func parseConvertFlags(cmd string, args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	addCommonFlags(fs, &f.common)
	addWorkerFlags(fs, &f.worker)
	addOutputFlags(fs, &f.output, cmd == cmdMarkdown)

	fs.Usage = func() { printCommandUsage(usage, cmd) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	f.worker.retriesSet = fs.Changed("retries")

	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// validate checks values pflag cannot constrain.
func (f *convertFlags) validate() error {
	switch f.output.color {
	case colorAuto, colorAlways, colorNever:
	default:
		return fmt.Errorf("%w: --color %q (must be auto, always or never)", ErrUsage, f.output.color)
	}
	if f.output.format != "" && f.output.format != formatDelta && f.output.format != formatHTML {
		return fmt.Errorf("%w: --to %q (must be delta or html)", ErrUsage, f.output.format)
	}
	if f.worker.workers < 0 {
		return fmt.Errorf("%w: --workers must be >= 0, got %d", ErrUsage, f.worker.workers)
	}
	if f.worker.retries < 0 {
		return fmt.Errorf("%w: --retries must be >= 0, got %d", ErrUsage, f.worker.retries)
	}
	if f.common.quiet && f.common.verbose {
		return fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}
	return nil
}
