package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-quillhtml/internal/fileutil"
	"github.com/alnah/go-quillhtml/internal/hints"
	"github.com/alnah/go-quillhtml/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Backend names.
const (
	BackendNode    = "node"
	BackendBrowser = "browser"
)

// Defaults applied by DefaultConfig.
const (
	DefaultCommand  = "node"
	DefaultTimeout  = "30s"
	DefaultQuillURL = "https://cdn.jsdelivr.net/npm/quill@1.3.7/dist/quill.min.js"
)

// Limits.
const (
	MaxCommandLength = 4096
	MaxArgLength     = 4096
	MaxURLLength     = 2048 // Browser limit
	MaxDirLength     = 4096
	MaxRetries       = 5
	MaxPoolSize      = 64
)

// Config holds all configuration for delta/HTML conversion.
type Config struct {
	Backend string        `yaml:"backend"` // "node" (default) or "browser"
	Worker  WorkerConfig  `yaml:"worker"`
	Browser BrowserConfig `yaml:"browser"`
	HTML    HTMLConfig    `yaml:"html"`
	Output  OutputConfig  `yaml:"output"`
}

// WorkerConfig defines how inverse conversion workers are run.
type WorkerConfig struct {
	Command  string   `yaml:"command"`  // Executable (default: node)
	Args     []string `yaml:"args"`     // Empty = run the embedded html2delta script
	Env      []string `yaml:"env"`      // Extra KEY=VALUE entries
	Timeout  string   `yaml:"timeout"`  // Per-request timeout, Go duration (default: 30s)
	PoolSize int      `yaml:"poolSize"` // 0 = auto from GOMAXPROCS
	Retries  int      `yaml:"retries"`  // Restarts allowed per request after a worker failure
}

// BrowserConfig defines the headless Chrome backend.
type BrowserConfig struct {
	QuillURL  string `yaml:"quillURL"`  // Quill script loaded into the converter page
	Bin       string `yaml:"bin"`       // Chrome binary (empty = rod default / ROD_BROWSER_BIN)
	NoSandbox bool   `yaml:"noSandbox"` // Required in most containers
}

// HTMLConfig defines HTML processing options.
type HTMLConfig struct {
	Sanitize *bool `yaml:"sanitize"` // Sanitize HTML before HTML -> delta conversion (default: true)
	Minify   bool  `yaml:"minify"`   // Minify delta -> HTML output
}

// SanitizeEnabled reports whether input HTML is sanitized. Unset means true.
func (h HTMLConfig) SanitizeEnabled() bool {
	return h.Sanitize == nil || *h.Sanitize
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// TimeoutDuration parses Worker.Timeout. Empty means the default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	s := c.Worker.Timeout
	if s == "" {
		s = DefaultTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: worker.timeout %q: %v", ErrInvalidValue, c.Worker.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: worker.timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendNode, BackendBrowser:
	default:
		return fmt.Errorf("%w: backend %q (must be %s or %s)", ErrInvalidValue, c.Backend, BackendNode, BackendBrowser)
	}

	if err := validateFieldLength("worker.command", c.Worker.Command, MaxCommandLength); err != nil {
		return err
	}
	for i, arg := range c.Worker.Args {
		if err := validateFieldLength(fmt.Sprintf("worker.args[%d]", i), arg, MaxArgLength); err != nil {
			return err
		}
	}
	for i, kv := range c.Worker.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("%w: worker.env[%d] %q (must be KEY=VALUE)", ErrInvalidValue, i, kv)
		}
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.Worker.PoolSize < 0 || c.Worker.PoolSize > MaxPoolSize {
		return fmt.Errorf("%w: worker.poolSize must be between 0 and %d, got %d", ErrInvalidValue, MaxPoolSize, c.Worker.PoolSize)
	}
	if c.Worker.Retries < 0 || c.Worker.Retries > MaxRetries {
		return fmt.Errorf("%w: worker.retries must be between 0 and %d, got %d", ErrInvalidValue, MaxRetries, c.Worker.Retries)
	}

	if err := validateFieldLength("browser.quillURL", c.Browser.QuillURL, MaxURLLength); err != nil {
		return err
	}
	if c.Browser.QuillURL != "" && !fileutil.IsURL(c.Browser.QuillURL) {
		return fmt.Errorf("%w: browser.quillURL %q (must be an http or https URL)", ErrInvalidValue, c.Browser.QuillURL)
	}
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxCommandLength); err != nil {
		return err
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxDirLength); err != nil {
		return err
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given:
// node backend, embedded worker script, sanitizing on, minify off.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendNode,
		Worker: WorkerConfig{
			Command: DefaultCommand,
			Timeout: DefaultTimeout,
		},
		Browser: BrowserConfig{QuillURL: DefaultQuillURL},
	}
}

// applyDefaults fills fields a config file left empty.
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNode
	}
	if c.Worker.Command == "" {
		c.Worker.Command = DefaultCommand
	}
	if c.Worker.Timeout == "" {
		c.Worker.Timeout = DefaultTimeout
	}
	if c.Browser.QuillURL == "" {
		c.Browser.QuillURL = DefaultQuillURL
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values missing from the file take their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-quillhtml/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-quillhtml", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s%s", ErrConfigNotFound, strings.Join(triedPaths, ", "), hints.ForConfigNotFound(triedPaths))
}
