package githubstore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-github/v66/github"
)

func respErr(status int) error {
	return &github.ErrorResponse{
		Response: &http.Response{
			StatusCode: status,
			Request:    &http.Request{},
		},
		Message: "nope",
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "404", err: respErr(http.StatusNotFound), want: KindNotFound},
		{name: "409", err: respErr(http.StatusConflict), want: KindConflict},
		{name: "422", err: respErr(http.StatusUnprocessableEntity), want: KindConflict},
		{name: "401", err: respErr(http.StatusUnauthorized), want: KindPermission},
		{name: "403", err: respErr(http.StatusForbidden), want: KindPermission},
		{name: "500", err: respErr(http.StatusInternalServerError), want: KindTransport},
		{name: "rate limit", err: &github.RateLimitError{}, want: KindRateLimit},
		{name: "abuse rate limit", err: &github.AbuseRateLimitError{}, want: KindRateLimit},
		{name: "plain network error", err: errors.New("connection refused"), want: KindTransport},
		{name: "wrapped response error", err: fmt.Errorf("request: %w", respErr(http.StatusNotFound)), want: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := classify("get", "some/path", tt.err)
			if se.Kind != tt.want {
				t.Errorf("classify() kind = %v, want %v", se.Kind, tt.want)
			}
			if !errors.Is(se, tt.err) && se.Unwrap() == nil {
				t.Error("classify() lost the wrapped error")
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	notFound := &StoreError{Kind: KindNotFound, Op: "get", Path: "p", Err: errors.New("x")}
	conflict := &StoreError{Kind: KindConflict, Op: "write", Path: "p", Err: errors.New("x")}
	permission := &StoreError{Kind: KindPermission, Op: "write", Path: "p", Err: errors.New("x")}

	if !IsNotFound(notFound) || IsNotFound(conflict) {
		t.Error("IsNotFound misclassified")
	}
	if !IsConflict(conflict) || IsConflict(permission) {
		t.Error("IsConflict misclassified")
	}
	if !IsPermission(permission) || IsPermission(notFound) {
		t.Error("IsPermission misclassified")
	}

	// Wrapped StoreErrors are still recognized
	wrapped := fmt.Errorf("outer: %w", conflict)
	if !IsConflict(wrapped) {
		t.Error("IsConflict failed on wrapped error")
	}

	// Plain errors default to transport
	if IsNotFound(errors.New("plain")) || IsConflict(errors.New("plain")) {
		t.Error("plain error misclassified")
	}
}

func TestStoreErrorMessage(t *testing.T) {
	se := &StoreError{Kind: KindConflict, Op: "write", Path: "a/b.js", Err: errors.New("409 sha mismatch")}

	msg := se.Error()
	for _, want := range []string{"write", "a/b.js", "conflict", "sha mismatch"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want substring %q", msg, want)
		}
	}
}
