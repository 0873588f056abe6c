package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: network timeouts, 5xx
	// responses, connection resets, transient filesystem races.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks remote failures that retrying cannot fix: 4xx
	// responses and malformed entries. The affected entry is skipped.
	ErrPermanent = errors.New("permanent remote failure")
	// ErrStateStore marks state-store corruption. Fatal for the cycle; the
	// store is the source of truth and must not be trusted when unreadable.
	ErrStateStore = errors.New("state store failure")
	// ErrConfiguration marks invalid configuration. Fatal before a cycle starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks a per-attempt deadline overrun. Counts as transient.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the shared retry policy applies to err.
// Permanent, configuration, and state-store failures are never retried;
// context cancellation ends retries immediately.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, ErrPermanent),
		errors.Is(err, ErrConfiguration), errors.Is(err, ErrStateStore):
		return false
	default:
		return true
	}
}

// Fatal reports whether err must abort the whole cycle rather than a single
// entry.
func Fatal(err error) bool {
	return errors.Is(err, ErrStateStore) || errors.Is(err, ErrConfiguration)
}

// ClassifyHTTPStatus maps a response status to the taxonomy marker: 5xx and
// 429 are transient, other non-2xx are permanent.
func ClassifyHTTPStatus(status int) error {
	switch {
	case status >= http.StatusInternalServerError, status == http.StatusTooManyRequests:
		return ErrTransient
	default:
		return ErrPermanent
	}
}

// ClassifyNetError maps a transport-level error to the taxonomy. Timeouts and
// context deadline overruns tag ErrTimeout (still retryable); everything else
// at the transport layer is transient.
func ClassifyNetError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrTransient
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
