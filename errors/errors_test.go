package errors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWrapPersistence(t *testing.T) {
	cause := os.ErrPermission
	err := WrapPersistence(cause, "failed to append pulse")

	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.True(t, Is(err, os.ErrPermission), "original cause must stay reachable")
	assert.Contains(t, err.Error(), "failed to append pulse")

	assert.NoError(t, WrapPersistence(nil, "nothing"))
	assert.False(t, IsPersistenceError(nil))
}

func TestWrapNotFound(t *testing.T) {
	err := WrapNotFound(os.ErrNotExist, "state snapshot")

	assert.True(t, IsNotFoundError(err))
	assert.True(t, Is(err, os.ErrNotExist))
	assert.False(t, IsNotFoundError(New("other")))
}

func TestNewInvalidTaskError(t *testing.T) {
	err := NewInvalidTaskError("task %q: interval must be positive", "reflect")

	assert.True(t, Is(err, ErrInvalidTask))
	assert.Contains(t, err.Error(), `task "reflect"`)
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrInvalidInterval, "use a duration such as 60s")

	assert.True(t, Is(err, ErrInvalidInterval))
	assert.Equal(t, []string{"use a duration such as 60s"}, GetAllHints(err))
}
