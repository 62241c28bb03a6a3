package retry

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
)

// Matcher reports whether err belongs to a class of errors
type Matcher func(err error) bool

// RetryableSet is an ordered list of matchers; an error is retryable when any matches.
type RetryableSet []Matcher

// Contains reports whether err is matched by any entry of the set
func (s RetryableSet) Contains(err error) bool {
	if err == nil {
		return false
	}
	for _, match := range s {
		if match != nil && match(err) {
			return true
		}
	}
	return false
}

// DefaultRetryableErrors returns connection, timeout and OS-level I/O errors
func DefaultRetryableErrors() RetryableSet {
	return RetryableSet{ConnectionError, TimeoutError, OSError}
}

// ErrorType matches errors whose chain contains a T, as errors.As sees it.
func ErrorType[T error]() Matcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// ErrorIs matches errors whose chain contains target
func ErrorIs(target error) Matcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// ConnectionError matches refused, reset, aborted and broken connections,
// failed dials and lookups, and errors categorized as network failures.
func ConnectionError(err error) bool {
	if boterrors.HasCategory(err, boterrors.ErrorCategoryNetwork) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed)
}

// TimeoutError matches deadline errors and any error reporting Timeout() == true.
func TimeoutError(err error) bool {
	if boterrors.HasCategory(err, boterrors.ErrorCategoryTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

// OSError matches file system and system call failures.
func OSError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}
