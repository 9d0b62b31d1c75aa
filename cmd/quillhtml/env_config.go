package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-quillhtml/internal/config"
)

// envPrefix marks the environment variables read by the CLI.
const envPrefix = "QUILLHTML_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // QUILLHTML_CONFIG: config file name or path
	Backend    string // QUILLHTML_BACKEND: node or browser
	Timeout    string // QUILLHTML_TIMEOUT: per-request timeout
	OutputDir  string // QUILLHTML_OUTPUT_DIR: default output directory
	Workers    int    // QUILLHTML_WORKERS: parallel workers
	QuillURL   string // QUILLHTML_QUILL_URL: Quill build for the browser backend
}

// knownEnvVars lists valid QUILLHTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"QUILLHTML_CONFIG":     true,
	"QUILLHTML_BACKEND":    true,
	"QUILLHTML_TIMEOUT":    true,
	"QUILLHTML_OUTPUT_DIR": true,
	"QUILLHTML_WORKERS":    true,
	"QUILLHTML_QUILL_URL":  true,
}

// loadEnvConfig reads configuration through getenv.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("QUILLHTML_CONFIG"),
		Backend:    getenv("QUILLHTML_BACKEND"),
		Timeout:    getenv("QUILLHTML_TIMEOUT"),
		OutputDir:  getenv("QUILLHTML_OUTPUT_DIR"),
		QuillURL:   getenv("QUILLHTML_QUILL_URL"),
	}

	// Invalid counts are ignored rather than fatal
	if workers := getenv("QUILLHTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized QUILLHTML_* variables.
// Helps catch typos like QUILLHTML_WORKER instead of QUILLHTML_WORKERS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to cfg.
// Priority: CLI flags > env vars > config file > defaults.
// CLI flags are applied later by mergeFlags. Environment values override
// the file only where the file kept the default.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	def := config.DefaultConfig()

	if env.Backend != "" && cfg.Backend == def.Backend {
		cfg.Backend = env.Backend
	}
	if env.Timeout != "" && cfg.Worker.Timeout == def.Worker.Timeout {
		cfg.Worker.Timeout = env.Timeout
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Workers > 0 && cfg.Worker.PoolSize == 0 {
		cfg.Worker.PoolSize = env.Workers
	}
	if env.QuillURL != "" && cfg.Browser.QuillURL == def.Browser.QuillURL {
		cfg.Browser.QuillURL = env.QuillURL
	}
}
