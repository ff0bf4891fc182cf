package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// IsTransient reports whether an error is worth retrying. Driver errors
// carry their own classification; everything else falls back to network
// level inspection. Unknown errors are not retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation is caller initiated and never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var marker interface{ TransientError() bool }
	if errors.As(err, &marker) {
		return marker.TransientError()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
		if opErr.Timeout() {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsTransientHTTPStatus classifies an HTTP response status for retry
// purposes. Server-side failures and throttling are transient, client
// mistakes are not.
func IsTransientHTTPStatus(status int) bool {
	switch {
	case status >= 500 && status <= 599:
		return true
	case status == 408:
		return true
	case status == 429:
		return true
	default:
		return false
	}
}
