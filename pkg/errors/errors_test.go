package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: review not found", NewNotFoundError("review not found").Error())

	wrapped := NewInternalError("failed to get review", fmt.Errorf("connection reset"))
	assert.Equal(t, "INTERNAL: failed to get review: connection reset", wrapped.Error())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeForbidden, TypeOf(NewForbiddenError("not yours")))
	assert.Equal(t, ErrorTypeConflict, TypeOf(fmt.Errorf("create: %w", NewConflictError("slug taken"))))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))

	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("missing"))))
	assert.False(t, IsNotFound(nil))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad rating")))
	assert.True(t, IsConflict(fmt.Errorf("wrap: %w", NewConflictError("dup"))))
	assert.True(t, IsUnauthorized(NewUnauthorizedError("sign in")))
	assert.True(t, IsForbidden(NewForbiddenError("not yours")))
	assert.False(t, IsForbidden(NewUnauthorizedError("sign in")))
	assert.False(t, IsValidation(nil))
}

func TestAppError_HTTPStatus(t *testing.T) {
	cases := []struct {
		err          *AppError
		status       int
		clientFacing bool
	}{
		{NewNotFoundError("missing"), 404, true},
		{NewValidationError("bad"), 400, true},
		{NewConflictError("dup"), 409, true},
		{NewUnauthorizedError("sign in"), 401, true},
		{NewForbiddenError("no"), 403, true},
		{NewInternalError("db", fmt.Errorf("reset")), 500, false},
		{NewExternalError("search", fmt.Errorf("timeout")), 502, false},
		{&AppError{Type: "UNKNOWN"}, 500, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.err.Type), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus())
			assert.Equal(t, tc.clientFacing, tc.err.ClientFacing())
		})
	}
}

func TestIsExternal(t *testing.T) {
	assert.True(t, IsExternal(fmt.Errorf("index: %w", NewExternalError("search failed", fmt.Errorf("503")))))
	assert.False(t, IsExternal(NewInternalError("db", nil)))
}
