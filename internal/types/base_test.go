package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateULID_UniqueWithinOneTick(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := GenerateULID()
		require.Len(t, id, 26)
		_, dup := seen[id]
		require.False(t, dup, "duplicate ulid %s", id)
		seen[id] = struct{}{}
	}
}

func TestGetDefaultBaseModel(t *testing.T) {
	m := GetDefaultBaseModel()
	assert.Equal(t, StatusPublished, m.Status)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
}
