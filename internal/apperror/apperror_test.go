package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewUnauthenticated("x", nil).StatusCode())
	assert.Equal(t, http.StatusBadRequest, NewValidation("x", nil).StatusCode())
	assert.Equal(t, http.StatusNotFound, NewNotFound("x", nil).StatusCode())
	assert.Equal(t, http.StatusConflict, NewConflict("x", nil).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewInternal("x", nil).StatusCode())
}

func TestWrappingKeepsTypeAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("update car: %w", NewInternal("store failure", cause))

	assert.True(t, Is(err, Internal))
	assert.False(t, Is(err, NotFound))
	assert.Equal(t, Internal, TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "update car: store failure: connection reset", err.Error())
}

func TestTypeOf_ForeignErrorIsInternal(t *testing.T) {
	assert.Equal(t, Internal, TypeOf(errors.New("boom")))
	assert.Equal(t, NotFound, TypeOf(NewNotFound("Car not found", nil)))
}

func TestToResponse_HidesInternalCause(t *testing.T) {
	status, body := ToResponse(NewInternal("mongo insert failed", errors.New("secret detail")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Error)

	status, body = ToResponse(NewValidation("title is required", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "title is required", body.Error)
}
