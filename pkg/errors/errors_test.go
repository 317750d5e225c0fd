package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: guest not found", NewNotFoundError("guest not found").Error())

	wrapped := NewInternalError("failed to create guest", fmt.Errorf("boom"))
	assert.Equal(t, "INTERNAL: failed to create guest: boom", wrapped.Error())
}

func TestIsType_WalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("register guest: %w", NewConflictError("phone already registered"))

	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "phone already registered", appErr.Message)
}

func TestIsType_PlainError(t *testing.T) {
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeInternal))
}
