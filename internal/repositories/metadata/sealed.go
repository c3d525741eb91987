package metadata

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/cryptox"
)

// SealedRepository encrypts values with AES-GCM before handing them to the
// wrapped repository. Keys are stored in clear. Without a master key every
// read or write fails with common.ErrVaultLocked.
type SealedRepository struct {
	inner Repository
	key   []byte
}

func NewSealedRepository(inner Repository, key []byte) *SealedRepository {
	return &SealedRepository{inner: inner, key: key}
}

// Get returns common.ErrCorruptData when the stored value cannot be opened
// with the repository key.
func (r *SealedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if len(r.key) == 0 {
		return nil, common.ErrVaultLocked
	}
	sealed, err := r.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	plain, err := cryptox.Open(sealed, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata[%s]: %w", key, common.ErrCorruptData)
	}
	return plain, nil
}

func (r *SealedRepository) Set(ctx context.Context, key string, value []byte) error {
	if len(r.key) == 0 {
		return common.ErrVaultLocked
	}
	sealed, err := cryptox.Seal(value, r.key)
	if err != nil {
		return fmt.Errorf("failed to seal metadata[%s]: %w", key, err)
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *SealedRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}

// List skips values that fail to open instead of failing the whole listing.
func (r *SealedRepository) List(ctx context.Context) (map[string][]byte, error) {
	if len(r.key) == 0 {
		return nil, common.ErrVaultLocked
	}
	all, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(all))
	for k, v := range all {
		plain, err := cryptox.Open(v, r.key)
		if err != nil {
			continue
		}
		result[k] = plain
	}
	return result, nil
}

func (r *SealedRepository) Clear(ctx context.Context) error {
	return r.inner.Clear(ctx)
}
