package quillhtml

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-quillhtml/internal/hints"
)

// Sentinel errors for library operations.
var (
	// ErrInvalidInput is the parent of every rejected-input error.
	// Callers should not retry a conversion that failed with it.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidDelta  = wrapInput("invalid delta")
	ErrInvalidAlign  = wrapInput("invalid align value")
	ErrInvalidHeader = wrapInput("invalid header level")

	// ErrInvalidHTML rejects HTML the worker protocol cannot frame.
	ErrInvalidHTML = wrapInput("html contains NUL byte")

	// ErrInvariantViolation signals a defect in block splitting, not bad data.
	ErrInvariantViolation = errors.New("internal invariant violated")

	// Inverse conversion worker errors.
	ErrWorkerStart    = errors.New("failed to start conversion worker")
	ErrWorkerIO       = errors.New("conversion worker I/O failed")
	ErrWorkerExited   = errors.New("conversion worker exited unexpectedly")
	ErrWorkerFailed   = errors.New("conversion worker is in failed state")
	ErrWorkerClosed   = errors.New("conversion worker is closed")
	ErrWorkerResponse = errors.New("conversion worker returned an invalid response")
	ErrWorkerRejected = errors.New("conversion worker rejected the document")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load converter page")

	// Configuration errors.
	ErrUnknownBackend   = errors.New("unknown conversion backend")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrPoolClosed       = errors.New("worker pool is closed")
)

// inputError is an ErrInvalidInput child that keeps its own message.
type inputError struct {
	msg string
}

func wrapInput(msg string) error { return &inputError{msg: msg} }

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrInvalidInput }

// IsWorkerFailure reports whether err means the worker must be restarted
// before it can serve another request.
func IsWorkerFailure(err error) bool {
	return errors.Is(err, ErrWorkerIO) ||
		errors.Is(err, ErrWorkerExited) ||
		errors.Is(err, ErrWorkerFailed) ||
		errors.Is(err, ErrWorkerStart) ||
		errors.Is(err, ErrWorkerResponse) ||
		errors.Is(err, ErrBrowserConnect) ||
		errors.Is(err, ErrPageLoad)
}

// timeoutHint returns the timeout hint when err is a deadline.
func timeoutHint(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return hints.ForTimeout()
	}
	return ""
}

// checkHTML rejects html containing NUL, the request delimiter on the
// worker pipe.
func checkHTML(html string) error {
	if strings.IndexByte(html, 0) >= 0 {
		return ErrInvalidHTML
	}
	return nil
}
