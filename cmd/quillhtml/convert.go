package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	quillhtml "github.com/alnah/go-quillhtml"
	"github.com/alnah/go-quillhtml/internal/config"
)

// Conversion commands.
const (
	cmdHTML     = "html"  // delta JSON -> HTML
	cmdDelta    = "delta" // HTML -> delta JSON
	cmdMarkdown = "md"    // Markdown -> delta JSON or HTML
)

// Sentinel errors for CLI operations.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
	ErrNoInputs    = errors.New("no convertible files found")
)

// Converter is the part of *quillhtml.Converter the CLI uses.
type Converter interface {
	ToHTML(ctx context.Context, delta quillhtml.Delta) (string, error)
	ToDelta(ctx context.Context, html string) (*quillhtml.Document, error)
	PoolSize() int
}

// Compile-time interface implementation check.
var _ Converter = (*quillhtml.Converter)(nil)

// direction describes what one command reads and writes.
type direction struct {
	inputExts []string // Extensions picked up from directories
	outExt    string   // Output file extension
	lang      string   // Chroma lexer for stdout
	convert   func(ctx context.Context, in []byte) (string, error)
}

// runConvert runs the html, delta or md command.
func runConvert(ctx context.Context, cmd string, args []string, env *Environment) error {
	flags, inputs, err := parseConvertFlags(cmd, args, env.Stderr)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	defer func() { _ = logger.Sync() }()

	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cfg, err := loadConfig(flags, env)
	if err != nil {
		return err
	}

	opts, err := converterOptions(cfg, flags, logger)
	if err != nil {
		return err
	}
	conv, err := quillhtml.NewConverter(append(opts, env.Options...)...)
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}
	defer func() {
		if err := conv.Close(); err != nil {
			logger.Warn("closing converter", zap.Error(err))
		}
	}()

	dir := newDirection(cmd, flags.output.format, conv, env)

	if isStdio(inputs) {
		return convertStream(ctx, dir, flags, env)
	}

	outDir := cfg.Output.DefaultDir
	files, err := discoverFiles(inputs, outDir, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", ErrNoInputs, inputs)
	}

	start := time.Now()
	results := convertBatch(ctx, files, conv.PoolSize(), dir)
	logger.Debug("batch finished",
		zap.Int("files", len(files)),
		zap.Duration("duration", time.Since(start)))

	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

// newDirection wires cmd to its conversion function.
func newDirection(cmd, format string, conv Converter, env *Environment) direction {
	switch cmd {
	case cmdHTML:
		return direction{
			inputExts: []string{".json"},
			outExt:    "html",
			lang:      "html",
			convert: func(ctx context.Context, in []byte) (string, error) {
				doc, err := quillhtml.ParseDocument(in)
				if err != nil {
					return "", err
				}
				return conv.ToHTML(ctx, doc.Ops)
			},
		}

	case cmdDelta:
		return direction{
			inputExts: []string{".html", ".htm"},
			outExt:    "json",
			lang:      "json",
			convert: func(ctx context.Context, in []byte) (string, error) {
				doc, err := conv.ToDelta(ctx, string(in))
				if err != nil {
					return "", err
				}
				return marshalDocument(doc)
			},
		}

	default:
		d := direction{
			inputExts: []string{".md", ".markdown"},
			outExt:    "json",
			lang:      "json",
		}
		toHTML := format == formatHTML
		if toHTML {
			d.outExt, d.lang = "html", "html"
		}
		d.convert = func(ctx context.Context, in []byte) (string, error) {
			delta, err := env.Importer.Import(ctx, in)
			if err != nil {
				return "", err
			}
			if toHTML {
				return conv.ToHTML(ctx, delta)
			}
			return marshalDocument(&quillhtml.Document{Ops: delta})
		}
		return d
	}
}

// marshalDocument encodes doc as indented JSON.
func marshalDocument(doc *quillhtml.Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding delta: %w", err)
	}
	return string(data), nil
}

// isStdio reports whether inputs select stdin/stdout mode.
func isStdio(inputs []string) bool {
	return len(inputs) == 0 || (len(inputs) == 1 && inputs[0] == "-")
}

// convertStream converts stdin to stdout.
func convertStream(ctx context.Context, dir direction, flags *convertFlags, env *Environment) error {
	in, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
	}

	out, err := dir.convert(ctx, in)
	if err != nil {
		return err
	}

	if err := writeOutput(env.Stdout, out, dir.lang, shouldColor(flags.output.color, env)); err != nil {
		return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
	}
	return nil
}

// loadConfig resolves configuration.
// Priority: CLI flags > env vars > config file > defaults.
func loadConfig(flags *convertFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.worker.backend != "" {
		cfg.Backend = flags.worker.backend
	}
	if flags.worker.timeout != "" {
		cfg.Worker.Timeout = flags.worker.timeout
	}
	if flags.worker.workers > 0 {
		cfg.Worker.PoolSize = flags.worker.workers
	}
	if flags.worker.retriesSet {
		cfg.Worker.Retries = flags.worker.retries
	}
	if flags.output.dir != "" {
		cfg.Output.DefaultDir = flags.output.dir
	}
	if flags.output.minify {
		cfg.HTML.Minify = true
	}
	if flags.output.noSanitize {
		off := false
		cfg.HTML.Sanitize = &off
	}
}

// converterOptions translates a validated config into converter options.
func converterOptions(cfg *config.Config, flags *convertFlags, logger *zap.Logger) ([]quillhtml.Option, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []quillhtml.Option{
		quillhtml.WithLogger(logger),
		quillhtml.WithTimeout(timeout),
		quillhtml.WithBackend(cfg.Backend),
		quillhtml.WithWorkerCommand(cfg.Worker.Command, cfg.Worker.Args...),
		quillhtml.WithPoolSize(cfg.Worker.PoolSize),
		quillhtml.WithRetries(cfg.Worker.Retries),
		quillhtml.WithMinify(cfg.HTML.Minify),
		quillhtml.WithBrowser(quillhtml.BrowserConfig{
			QuillURL:  cfg.Browser.QuillURL,
			Bin:       cfg.Browser.Bin,
			NoSandbox: cfg.Browser.NoSandbox,
		}),
	}
	if len(cfg.Worker.Env) > 0 {
		opts = append(opts, quillhtml.WithWorkerEnv(cfg.Worker.Env...))
	}
	if !cfg.HTML.SanitizeEnabled() {
		opts = append(opts, quillhtml.WithSanitizer(nil))
	}
	if flags.worker.assetPath != "" {
		opts = append(opts, quillhtml.WithAssetPath(flags.worker.assetPath))
	}
	return opts, nil
}
