package dedup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "dedup.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DedupKey{}, &DedupCounter{}))
	return New(db)
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	t.Run("first caller wins", func(t *testing.T) {
		ok, err := s.Reserve(ctx, "fp-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Reserve(ctx, "fp-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired keys are reclaimable", func(t *testing.T) {
		base := time.Now()
		s.now = func() time.Time { return base }
		ok, err := s.Reserve(ctx, "fp-2", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		s.now = func() time.Time { return base.Add(2 * time.Minute) }
		ok, err = s.Reserve(ctx, "fp-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestExistsAndPut(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	found, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, "fp-put", time.Minute))
	found, err = s.Exists(ctx, "fp-put")
	require.NoError(t, err)
	assert.True(t, found)

	// Put on an existing key refreshes the TTL instead of failing.
	require.NoError(t, s.Put(ctx, "fp-put", time.Hour))
}

func TestIncrementSource(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Now()
	s.now = func() time.Time { return base }

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementSource(ctx, "com.eg.android.AlipayGphone", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// A new window starts its own counter.
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	got, err := s.IncrementSource(ctx, "com.eg.android.AlipayGphone", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestCleanupAndStats(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Now()
	s.now = func() time.Time { return base }

	require.NoError(t, s.Put(ctx, "fresh", time.Hour))
	require.NoError(t, s.Put(ctx, "stale", time.Second))

	s.now = func() time.Time { return base.Add(time.Minute) }
	removed, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Keys)
}
