package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	first, err := NewULID()
	require.NoError(t, err)
	assert.Len(t, first, 26)
	require.NoError(t, ValidateULID(first))

	second, err := NewULID()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestValidateULID(t *testing.T) {
	valid, err := NewULID()
	require.NoError(t, err)

	assert.NoError(t, ValidateULID(valid))
	assert.NoError(t, ValidateULID("01arz3ndektsv4rrffq69g5fav"), "lowercase accepted")

	for _, bad := range []string{"", "not-a-ulid", "01ARZ3NDEKTSV4RRFFQ69G5FA", "01ARZ3NDEKTSV4RRFFQ69G5FAVX"} {
		assert.ErrorIs(t, ValidateULID(bad), ErrInvalidULID, bad)
	}
}
