package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		quiet     bool
		verbose   bool
		wantDebug bool
		wantWarn  bool
	}{
		{name: "default", wantWarn: true},
		{name: "verbose", verbose: true, wantDebug: true, wantWarn: true},
		{name: "quiet", quiet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, tt.quiet, tt.verbose)
			logger.Debug("debug line")
			logger.Warn("warn line")
			_ = logger.Sync()

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v; output %q", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v; output %q", got, tt.wantWarn, out)
			}
		})
	}
}
