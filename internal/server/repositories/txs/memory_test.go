package txs

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_HeightsIncrease(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	a := &models.Tx{Hash: "A"}
	b := &models.Tx{Hash: "B", Code: 18}
	require.NoError(t, r.Save(ctx, a))
	require.NoError(t, r.Save(ctx, b))
	assert.Equal(t, int64(1), a.Height)
	assert.Equal(t, int64(2), b.Height)

	require.ErrorIs(t, r.Save(ctx, &models.Tx{Hash: "A"}), common.ErrorAlreadyExists)

	got, err := r.GetByHash(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, uint32(18), got.Code)

	c := r.Clone()
	d := &models.Tx{Hash: "D"}
	require.NoError(t, c.Save(ctx, d))
	assert.Equal(t, int64(3), d.Height)
	_, err = r.GetByHash(ctx, "D")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
