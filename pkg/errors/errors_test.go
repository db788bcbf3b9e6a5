package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("cart", "user-1")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "cart with id user-1 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFoundMsg(t *testing.T) {
	err := NotFoundMsg("no cart found for user user-1")

	assert.Equal(t, "no cart found for user user-1", err.Message)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("quantity must be an integer")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOperationFailed_WrapsCause(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := OperationFailed("unable to add item to cart", cause)

	assert.Equal(t, "OPERATION_FAILED", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.ErrorIs(t, err, cause)
	// The safe message stays generic; the cause only shows in Error().
	assert.Equal(t, "unable to add item to cart", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("product service circuit open")

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.ErrorIs(t, err, ErrServiceUnavail)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "app error", err: NotFound("cart", "x"), want: http.StatusNotFound},
		{name: "wrapped app error", err: fmt.Errorf("handler: %w", InvalidInput("bad")), want: http.StatusBadRequest},
		{name: "bare not found sentinel", err: ErrNotFound, want: http.StatusNotFound},
		{name: "bare unauthorized sentinel", err: ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "bare unavailable sentinel", err: ErrServiceUnavail, want: http.StatusServiceUnavailable},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	withCause := OperationFailed("unable to clear cart", errors.New("timeout"))
	assert.Contains(t, withCause.Error(), "OPERATION_FAILED")
	assert.Contains(t, withCause.Error(), "unable to clear cart")

	withoutCause := InvalidInput("bad input")
	assert.Contains(t, withoutCause.Error(), "INVALID_INPUT: bad input")
}
