package main

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRun_Dispatch - Command routing and exit codes
// ---------------------------------------------------------------------------

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no args", args: nil, wantCode: ExitUsage, wantStderr: "Usage: quillhtml"},
		{name: "unknown command", args: []string{"pdf"}, wantCode: ExitUsage, wantStderr: "Unknown command: pdf"},
		{name: "version", args: []string{"version"}, wantCode: ExitSuccess, wantStdout: "quillhtml " + Version},
		{name: "version flag", args: []string{"--version"}, wantCode: ExitSuccess, wantStdout: "quillhtml "},
		{name: "help", args: []string{"help"}, wantCode: ExitSuccess, wantStdout: "Commands:"},
		{name: "help md", args: []string{"help", "md"}, wantCode: ExitSuccess, wantStdout: "--to <format>"},
		{name: "help delta", args: []string{"help", "delta"}, wantCode: ExitSuccess, wantStdout: "--backend"},
		{name: "help doctor", args: []string{"help", "doctor"}, wantCode: ExitSuccess, wantStdout: "--json"},
		{name: "help unknown", args: []string{"help", "pdf"}, wantCode: ExitUsage, wantStderr: "Unknown command: pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, "", nil)
			code := run(context.Background(), tt.args, env.Environment)
			if code != tt.wantCode {
				t.Errorf("run(%v) = %d, want %d", tt.args, code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(env.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", env.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

func TestRun_HTMLHelpHasNoFormatFlag(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "", nil)
	run(context.Background(), []string{"help", "html"}, env.Environment)
	if strings.Contains(env.stdout.String(), "--to") {
		t.Errorf("html help lists --to:\n%s", env.stdout)
	}
}
