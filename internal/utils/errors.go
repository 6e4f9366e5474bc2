package utils

import "errors"

// Token failure kinds.  Callers at the HTTP boundary collapse all of them
// into a single "unauthenticated" response; they stay distinct here so the
// cause can be logged and counted.
var (
	ErrTokenMalformed  = errors.New("token malformed")
	ErrTokenExpired    = errors.New("token expired")
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

// TokenFailureKind returns a short label for a token error, used as a log
// field and metric label.
func TokenFailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrPurposeMismatch):
		return "purpose_mismatch"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "other"
	}
}
