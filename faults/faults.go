// Package faults maps backend and transport failures into a small closed
// taxonomy and pairs every surfaced failure with a correlation id. The id
// is the only detail a user ever sees; the full error is logged
// internally under the same id so support can correlate reports.
package faults

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmaines/notewarden/backend"
)

// Kind is the classification of a failure.
type Kind int

const (
	Unknown Kind = iota
	Validation
	Unauthorized
	NotFound
	Conflict
	RateLimit
	UpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimit:
		return "rate_limit"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Classify maps an error to its Kind. Backend APIErrors classify by
// status code; anything else that reached this point is a transport
// failure and counts as the upstream being unavailable, except plain
// programming errors, which stay Unknown.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnprocessableEntity:
			return Validation
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return Unauthorized
		case apiErr.Status == http.StatusNotFound:
			return NotFound
		case apiErr.Status == http.StatusConflict:
			return Conflict
		case apiErr.Status == http.StatusTooManyRequests:
			return RateLimit
		case apiErr.Status >= 500:
			return UpstreamUnavailable
		default:
			return Unknown
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return UpstreamUnavailable
	}
	// url.Error and friends from the HTTP client wrap net errors.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return UpstreamUnavailable
	}
	return Unknown
}

// NewCorrelationID generates the identifier attached to one logical
// failed operation.
func NewCorrelationID() string {
	return uuid.NewString()
}

// UserMessage renders the stable, non-leaking message for a failure
// kind. It never includes backend response bodies or stack traces.
func UserMessage(kind Kind, correlationID string) string {
	var msg string
	switch kind {
	case Validation:
		msg = "The request was rejected as invalid."
	case Unauthorized:
		msg = "You are not allowed to perform this action."
	case NotFound:
		msg = "That item no longer exists."
	case Conflict:
		msg = "This action conflicts with the current state. It may already have been done."
	case RateLimit:
		msg = "The service is busy. Please try again shortly."
	case UpstreamUnavailable:
		msg = "The notes service is temporarily unavailable. Please try again later."
	default:
		msg = "Something went wrong."
	}
	return fmt.Sprintf("%s (ref: %s)", msg, correlationID)
}

// Report logs the full internal error keyed by the correlation id.
func Report(logger *slog.Logger, err error, correlationID string, attrs ...slog.Attr) {
	kind := Classify(err)
	base := []slog.Attr{
		slog.String("correlation_id", correlationID),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	}
	base = append(base, attrs...)
	logger.LogAttrs(context.Background(), slog.LevelError, "operation failed", base...)
}
