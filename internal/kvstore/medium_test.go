package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisMedium(t *testing.T) (*RedisMedium, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMedium(client, "test:"), mr
}

func newTestSQLiteMedium(t *testing.T) *SQLiteMedium {
	t.Helper()
	m, err := NewSQLiteMedium(filepath.Join(t.TempDir(), "nested", "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMediumContract(t *testing.T) {
	media := map[string]func(t *testing.T) Medium{
		"memory": func(t *testing.T) Medium { return NewMemoryMedium(0) },
		"redis": func(t *testing.T) Medium {
			m, _ := newTestRedisMedium(t)
			return m
		},
		"sqlite": func(t *testing.T) Medium { return newTestSQLiteMedium(t) },
	}

	for name, build := range media {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := build(t)

			_, found, err := m.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, m.Set(ctx, "k", "v1"))
			require.NoError(t, m.Set(ctx, "k", "v2"))
			value, found, err := m.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "v2", value)

			require.NoError(t, m.Delete(ctx, "k"))
			require.NoError(t, m.Delete(ctx, "k"))
			_, found, err = m.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestMemoryMediumQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium(10)

	require.NoError(t, m.Set(ctx, "k", "12345"))
	assert.Equal(t, 6, m.Used())

	err := m.Set(ctx, "k", "1234567890")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "set", se.Op)
	assert.Equal(t, "k", se.Key)

	value, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "12345", value, "failed write must not change the stored value")

	// Replacing a value only counts the difference.
	require.NoError(t, m.Set(ctx, "k", "123456789"))
	require.NoError(t, m.Delete(ctx, "k"))
	assert.Equal(t, 0, m.Used())
}

func TestMemoryMediumCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryMedium(0).Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisMediumUsesPrefix(t *testing.T) {
	m, mr := newTestRedisMedium(t)
	require.NoError(t, m.Set(context.Background(), "leads", "[]"))

	got, err := mr.Get("test:leads")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestRedisMediumWrapsConnectionErrors(t *testing.T) {
	m, mr := newTestRedisMedium(t)
	mr.Close()

	err := m.Set(context.Background(), "leads", "[]")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "leads", se.Key)
}

func TestClassifyRedisError(t *testing.T) {
	oom := classifyRedisError(errors.New("OOM command not allowed when used memory > 'maxmemory'."))
	assert.ErrorIs(t, oom, ErrQuotaExceeded)

	other := classifyRedisError(errors.New("READONLY You can't write against a read only replica."))
	assert.NotErrorIs(t, other, ErrQuotaExceeded)
}

func TestSQLiteMediumPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	first, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "leads", `[{"id":"1"}]`))
	require.NoError(t, first.Close())

	second, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	defer second.Close()
	value, found, err := second.Get(ctx, "leads")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, value)
	assert.Equal(t, path, second.Path())
}
