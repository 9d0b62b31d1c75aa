package main

import (
	"context"
	"errors"
	"os"

	quillhtml "github.com/alnah/go-quillhtml"
	"github.com/alnah/go-quillhtml/internal/config"
)

// Exit codes for the quillhtml CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every input converted
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input document
	ExitIO      = 3 // File not found, permission denied
	ExitWorker  = 4 // Conversion worker or browser errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Worker errors (exit 4)
	if quillhtml.IsWorkerFailure(err) ||
		errors.Is(err, quillhtml.ErrWorkerRejected) ||
		errors.Is(err, quillhtml.ErrWorkerClosed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitWorker
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInputs) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, quillhtml.ErrInvalidInput) ||
		errors.Is(err, quillhtml.ErrUnknownBackend) ||
		errors.Is(err, quillhtml.ErrInvalidAssetPath) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
