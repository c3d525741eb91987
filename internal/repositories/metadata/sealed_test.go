package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/cryptox"
)

func TestSealed_StoresCiphertext(t *testing.T) {
	inner := NewMemoryRepository()
	key := common.GenerateRandByteArray(cryptox.KeySize)
	r := NewSealedRepository(inner, key)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("secret")))

	raw, err := inner.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), v)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"k": []byte("secret")}, all)
}

func TestSealed_WrongKeyIsCorrupt(t *testing.T) {
	inner := NewMemoryRepository()
	ctx := context.Background()

	w := NewSealedRepository(inner, common.GenerateRandByteArray(cryptox.KeySize))
	require.NoError(t, w.Set(ctx, "k", []byte("secret")))

	r := NewSealedRepository(inner, common.GenerateRandByteArray(cryptox.KeySize))
	_, err := r.Get(ctx, "k")
	require.ErrorIs(t, err, common.ErrCorruptData)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSealed_MissingKey(t *testing.T) {
	r := NewSealedRepository(NewMemoryRepository(), common.GenerateRandByteArray(cryptox.KeySize))
	v, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSealed_NoKeyIsLocked(t *testing.T) {
	r := NewSealedRepository(NewMemoryRepository(), nil)
	ctx := context.Background()

	require.ErrorIs(t, r.Set(ctx, "k", []byte("v")), common.ErrVaultLocked)
	_, err := r.Get(ctx, "k")
	require.ErrorIs(t, err, common.ErrVaultLocked)
	_, err = r.List(ctx)
	require.ErrorIs(t, err, common.ErrVaultLocked)
}
