package catalog

import (
	"errors"
	"fmt"
)

// Protocol and flow errors.
var (
	// ErrNoStatus means the reply carried no parseable status field at
	// all. This is a wire-protocol violation, never retried.
	ErrNoStatus = errors.New("catalog: response carries no status field")

	// ErrUnknownStatus is the kind assigned to status codes missing
	// from the table below; the StatusError still carries the raw code
	// and text for diagnostics.
	ErrUnknownStatus = errors.New("catalog: unknown status code")
)

// Catalog error kinds, one per documented non-200 status.
var (
	ErrPartialContent     = errors.New("catalog: partial content")
	ErrMoved              = errors.New("catalog: moved")
	ErrUnauthorized       = errors.New("catalog: unauthorized")
	ErrInvalidFormat      = errors.New("catalog: invalid subtitle format")
	ErrHashMismatch       = errors.New("catalog: subtitle hash mismatch")
	ErrInvalidLanguage    = errors.New("catalog: invalid language")
	ErrNotEnoughArguments = errors.New("catalog: not all mandatory arguments specified")
	ErrNoSession          = errors.New("catalog: no session")
	ErrDownloadLimit      = errors.New("catalog: download limit reached")
	ErrInvalidArguments   = errors.New("catalog: invalid arguments")
	ErrInvalidMethod      = errors.New("catalog: method not found")
	ErrInternal           = errors.New("catalog: internal error")
	ErrUserAgent          = errors.New("catalog: unknown or disabled useragent")
	ErrInvalidString      = errors.New("catalog: invalid string")
	ErrInvalidImdbID      = errors.New("catalog: invalid imdb id")
	ErrSubtitleInvalid    = errors.New("catalog: invalid subtitle")
	ErrServiceUnavailable = errors.New("catalog: service unavailable")
)

// statusKinds maps the numeric status code of a reply to its error kind.
var statusKinds = map[int]error{
	206: ErrPartialContent,
	301: ErrMoved,
	401: ErrUnauthorized,
	402: ErrInvalidFormat,
	403: ErrHashMismatch,
	404: ErrInvalidLanguage,
	405: ErrNotEnoughArguments,
	406: ErrNoSession,
	407: ErrDownloadLimit,
	408: ErrInvalidArguments,
	409: ErrInvalidMethod,
	410: ErrInternal,
	411: ErrUserAgent,
	412: ErrInvalidString,
	413: ErrInvalidImdbID,
	414: ErrUserAgent,
	415: ErrUserAgent,
	416: ErrSubtitleInvalid,
	503: ErrServiceUnavailable,
}

// StatusError is a non-success reply from the catalog. It unwraps to
// one of the kind sentinels above so callers can match with errors.Is.
type StatusError struct {
	Code    int
	Message string // the raw "NNN text" status line
	kind    error
}

func newStatusError(code int, message string) *StatusError {
	kind, ok := statusKinds[code]
	if !ok {
		kind = ErrUnknownStatus
	}
	return &StatusError{Code: code, Message: message, kind: kind}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: status %q", e.Message)
}

func (e *StatusError) Unwrap() error { return e.kind }

// AuthError wraps a failed login. It is fatal to the current operation
// and never retried automatically.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("catalog: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
