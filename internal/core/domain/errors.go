package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrCacheUnavailable   = errors.New("cache unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
)

// DetailError carries a caller-facing message for one of the sentinel
// errors above. errors.Is matches it against Kind.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string { return e.Detail }

func (e *DetailError) Unwrap() error { return e.Kind }

// Detailf builds a DetailError of the given kind.
func Detailf(kind error, format string, args ...any) error {
	return &DetailError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// UpstreamError is returned when an external provider answers with a
// non-success status. Body holds at most the first 100 bytes of the response.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Service, e.StatusCode, e.Body)
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
