package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("missing title"), http.StatusBadRequest},
		{Duplicate("Email or mobile already exists"), http.StatusBadRequest},
		{InvalidCredentials("Invalid credentials"), http.StatusBadRequest},
		{InvalidOperation("You cannot contact your own property"), http.StatusBadRequest},
		{Conflict("Cannot edit completed properties."), http.StatusBadRequest},
		{Unauthenticated("Not authenticated"), http.StatusUnauthorized},
		{Forbidden("Admin only"), http.StatusForbidden},
		{NotFound("Property not found"), http.StatusNotFound},
		{errors.New("socket closed"), http.StatusInternalServerError},
		{Unexpected(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestSentinelsMatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("create request: %w", Conflict("Already sent a request for this property"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Already sent a request for this property", Message(err))
}

func TestMessageHidesUnexpectedCause(t *testing.T) {
	err := Unexpected(errors.New("connection refused 10.0.0.3:27017"))

	assert.Equal(t, "Server error", Message(err))
	assert.Equal(t, "Server error", Message(errors.New("raw driver error")))
	assert.ErrorContains(t, err, "connection refused")
}
