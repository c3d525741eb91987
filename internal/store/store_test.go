package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/logging"
	"github.com/dmitrijs2005/questkeeper/internal/metrics"
	"github.com/dmitrijs2005/questkeeper/internal/models"
	"github.com/dmitrijs2005/questkeeper/internal/repositories/metadata"
)

func ptr(v int64) *int64 { return &v }

func dump(t *testing.T, m *metrics.Recorder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type failingRepo struct {
	metadata.Repository
	getErr error
	setErr error
}

func (f failingRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.Get(ctx, key)
}

func (f failingRepo) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Repository.Set(ctx, key, value)
}

func TestSaveLoad_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := New(metadata.NewMemoryRepository(), logging.Nop(), nil)

	in := []models.Account{
		{ID: "c", Username: "third", Password: "p3", Level: 3, XP: 10, XPMax: 100},
		{ID: "a", Username: "first", Password: "", Level: 1, XP: 0, XPMax: 5000, LastCompleted: ptr(1_700_000_000_000)},
		{ID: "b", Username: "", Password: "p2", Level: 9, XP: 9999, XPMax: 5000},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingIsEmpty(t *testing.T) {
	s := New(metadata.NewMemoryRepository(), logging.Nop(), nil)

	out, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestLoad_CorruptIsEmpty(t *testing.T) {
	cases := map[string]string{
		"not json":    "{{{",
		"wrong shape": `{"id":"x"}`,
		"null":        "null",
		"missing id":  `[{"username":"u"}]`,
		"bad type":    `[{"id":"x","level":"high"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := metadata.NewMemoryRepository()
			require.NoError(t, repo.Set(ctx, DatasetKey, []byte(raw)))

			s := New(repo, logging.Nop(), metrics.New())

			out, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestLoad_CorruptCountsReset(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, DatasetKey, []byte("garbage")))

	m := metrics.New()
	_, err := New(repo, logging.Nop(), m).Load(ctx)
	require.NoError(t, err)

	assert.Contains(t, dump(t, m), "questkeeper_store_load_resets_total 1")
}

func TestLoad_SealedCorruptIsEmpty(t *testing.T) {
	repo := failingRepo{Repository: metadata.NewMemoryRepository(), getErr: common.ErrCorruptData}

	out, err := New(repo, logging.Nop(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLoad_RepositoryErrorIsReturned(t *testing.T) {
	boom := errors.New("disk gone")
	repo := failingRepo{Repository: metadata.NewMemoryRepository(), getErr: boom}

	_, err := New(repo, logging.Nop(), nil).Load(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestLoad_NormalizesRecords(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, DatasetKey,
		[]byte(`[{"id":"x","username":"u","password":"","level":0,"xp":-5,"xpMax":0,"lastCompleted":null}]`)))

	out, err := New(repo, logging.Nop(), nil).Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Level)
	assert.Equal(t, 0, out[0].XP)
	assert.Equal(t, 1, out[0].XPMax)
	assert.Nil(t, out[0].LastCompleted)
}

func TestSave_WritesFixedKeyAndCounts(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	m := metrics.New()
	s := New(repo, logging.Nop(), m)

	require.NoError(t, s.Save(ctx, nil))

	raw, err := repo.Get(ctx, "accountTracker_accounts")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
	assert.Contains(t, dump(t, m), "questkeeper_store_saves_total 1")
}

func TestSave_RepositoryError(t *testing.T) {
	boom := errors.New("read-only")
	repo := failingRepo{Repository: metadata.NewMemoryRepository(), setErr: boom}

	err := New(repo, logging.Nop(), nil).Save(context.Background(), []models.Account{{ID: "x"}})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to save accounts")
}
