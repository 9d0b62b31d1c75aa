package main

// Notes:
// - exitCodeFor: we test sentinel errors from the library, config and CLI,
//   plus wrapped errors to verify the errors.Is() chain.
// - Exit code constants: we verify Unix conventions and that custom codes
//   stay below 126.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	quillhtml "github.com/alnah/go-quillhtml"
	"github.com/alnah/go-quillhtml/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Worker errors (exit 4)
		{"worker start", quillhtml.ErrWorkerStart, ExitWorker},
		{"worker exited", quillhtml.ErrWorkerExited, ExitWorker},
		{"worker response", quillhtml.ErrWorkerResponse, ExitWorker},
		{"worker rejected", quillhtml.ErrWorkerRejected, ExitWorker},
		{"browser connect", quillhtml.ErrBrowserConnect, ExitWorker},
		{"page load", quillhtml.ErrPageLoad, ExitWorker},
		{"deadline", context.DeadlineExceeded, ExitWorker},
		{"wrapped worker exited", fmt.Errorf("converting: %w", quillhtml.ErrWorkerExited), ExitWorker},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"read input", ErrReadInput, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"no inputs", ErrNoInputs, ExitIO},
		{"wrapped not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"invalid delta", quillhtml.ErrInvalidDelta, ExitUsage},
		{"invalid header", quillhtml.ErrInvalidHeader, ExitUsage},
		{"invalid align", quillhtml.ErrInvalidAlign, ExitUsage},
		{"unknown backend", quillhtml.ErrUnknownBackend, ExitUsage},
		{"invalid asset path", quillhtml.ErrInvalidAssetPath, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading config: %w", config.ErrConfigParse), ExitUsage},

		// General errors (exit 1)
		{"generic", errors.New("boom"), ExitGeneral},
		{"invariant", quillhtml.ErrInvariantViolation, ExitGeneral},
		{"canceled", context.Canceled, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes_Conventions(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitWorker} {
		if code <= ExitUsage || code >= 126 {
			t.Errorf("custom exit code %d outside (2, 126)", code)
		}
	}
}
