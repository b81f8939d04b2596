package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

func TestStoreDegradesWithoutClient(t *testing.T) {
	store := NewStore(nil, "ecole", nil)

	var dest struct{ N int }
	err := store.Get(context.Background(), "insights:student:s1", &dest)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))

	assert.NoError(t, store.Set(context.Background(), "k", 1, 0))
	assert.NoError(t, store.DeleteByPattern(context.Background(), "insights:*"))
	assert.NoError(t, store.Close())
}

func TestStoreNamespacesKeys(t *testing.T) {
	store := NewStore(nil, "ecole", nil)
	assert.Equal(t, "ecole:insights:student:s1", store.key("insights:student:s1"))

	bare := NewStore(nil, "", nil)
	assert.Equal(t, "k", bare.key("k"))
}
