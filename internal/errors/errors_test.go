package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{ConflictError("taken"), http.StatusConflict},
		{UnauthorizedError("who"), http.StatusUnauthorized},
		{ForbiddenError("not yours"), http.StatusForbidden},
		{RateLimitedError("slow down", 60), http.StatusTooManyRequests},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), tt.err.Type)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := InternalError("database unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithContext(t *testing.T) {
	err := ValidationError("bad name").
		WithContext("name", "x").
		WithField("length", 1)

	assert.Equal(t, "x", err.Context["name"])
	assert.Equal(t, 1, err.Context["length"])
}

func TestRateLimitedError_CarriesRetryAfter(t *testing.T) {
	err := RateLimitedError("quota exhausted", 1800)

	assert.Equal(t, 1800, err.RetryAfter)
	resp := err.ToResponse()
	assert.Equal(t, 1800, resp.RetryAfter)
	assert.Equal(t, TypeRateLimited, resp.Type)
}

func TestAsStructuredError(t *testing.T) {
	// Already structured errors pass through, even wrapped.
	structured := NotFoundError("gone")
	wrapped := fmt.Errorf("lookup failed: %w", structured)
	assert.Same(t, structured, AsStructuredError(wrapped))

	// Plain errors become internal.
	plain := errors.New("boom")
	got := AsStructuredError(plain)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, plain)

	assert.Nil(t, AsStructuredError(nil))
}
