package nodes

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	n := sampleNode()
	require.NoError(t, r.Upsert(ctx, n))

	n.Contents = "{}"
	require.NoError(t, r.Upsert(ctx, n))

	got, err := r.Get(ctx, n.Owner, n.Path)
	require.NoError(t, err)
	assert.Equal(t, "{}", got.Contents)

	_, err = r.Get(ctx, "someone-else", n.Path)
	require.ErrorIs(t, err, common.ErrorNotFound)

	c := r.Clone()
	require.NoError(t, c.Delete(ctx, n.Owner, n.Path))
	require.ErrorIs(t, c.Delete(ctx, n.Owner, n.Path), common.ErrorNotFound)

	_, err = r.Get(ctx, n.Owner, n.Path)
	require.NoError(t, err, "the original keeps the node")
}
