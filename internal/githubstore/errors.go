package githubstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
)

// ErrorKind classifies remote store failures so callers can branch on cause
// instead of matching message text.
type ErrorKind int

const (
	// KindTransport covers network failures and unclassified API errors.
	KindTransport ErrorKind = iota
	// KindNotFound means the path (or repository) does not exist.
	KindNotFound
	// KindConflict means a write precondition failed (stale revision marker).
	KindConflict
	// KindPermission means the credential lacks access.
	KindPermission
	// KindRateLimit means the API throttled the request.
	KindRateLimit
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermission:
		return "permission"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "transport"
	}
}

// StoreError is the single error type surfaced by the store. The wrapped
// upstream error keeps the raw API message available for terminal dialogs.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a StoreError with KindNotFound.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsConflict reports whether err is a StoreError with KindConflict.
func IsConflict(err error) bool {
	return kindOf(err) == KindConflict
}

// IsPermission reports whether err is a StoreError with KindPermission.
func IsPermission(err error) bool {
	return kindOf(err) == KindPermission
}

func kindOf(err error) ErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}

// classify maps a go-github error to a StoreError.
func classify(op, path string, err error) *StoreError {
	kind := KindTransport

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		kind = KindRateLimit
	case errors.As(err, &respErr):
		if respErr.Response != nil {
			switch respErr.Response.StatusCode {
			case http.StatusNotFound:
				kind = KindNotFound
			case http.StatusConflict, http.StatusUnprocessableEntity:
				// The Contents API reports a stale SHA precondition as 409 or 422.
				kind = KindConflict
			case http.StatusUnauthorized, http.StatusForbidden:
				kind = KindPermission
			}
		}
	}

	return &StoreError{Kind: kind, Op: op, Path: path, Err: err}
}
