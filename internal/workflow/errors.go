package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify transition failures. The first group is
// recoverable and surfaced verbatim so callers can present the condition to
// the operator; ErrStorage means the atomic commit itself failed after the
// transparent retry.
var (
	ErrInvalidState      = errors.New("invalid state")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrClaimConflict     = errors.New("claim conflict")
	ErrIncompleteData    = errors.New("incomplete data")
	ErrContention        = errors.New("contention")
	ErrStorage           = errors.New("storage failure")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrStorage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether the error is a user-facing, retryable
// condition rather than a fault in the system itself.
func IsRecoverable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrClaimConflict),
		errors.Is(err, ErrIncompleteData),
		errors.Is(err, ErrContention):
		return true
	}
	return false
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "workflow failure"
	}
	return strings.Join(parts, ": ")
}
