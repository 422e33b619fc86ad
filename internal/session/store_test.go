package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/store"
)

func TestStore_CreateLoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	assert.True(t, ValidID(sess.ID))

	require.NoError(t, sess.Technical.Set(domain.SectionMotion, map[string]string{"quality": "no_motion"}))
	sess.Impression = "Normal chest"
	require.NoError(t, s.Save(ctx, sess))

	loaded, err := s.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "no_motion", loaded.Technical.Field(domain.SectionMotion, "quality", ""))
	assert.Equal(t, "Normal chest", loaded.Impression)
	assert.NotNil(t, loaded.Cases)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	a, err := s.Create(ctx)
	require.NoError(t, err)
	b, err := s.Create(ctx)
	require.NoError(t, err)

	a.Impression = "a only"
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Load(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Impression)
}

func TestStore_LoadErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	_, err := s.Load(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.Load(ctx, "3f1c9a52-7d1e-4c55-9a39-1f2a0c8b6d11")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, &domain.Session{ID: "x"}), ErrInvalidID)
}

func TestStore_LoadOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	first, created, err := s.LoadOrCreate(ctx, "")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.LoadOrCreate(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	require.NoError(t, s.Delete(ctx, first.ID))
	fresh, created, err := s.LoadOrCreate(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, fresh.ID)
}

func TestStore_ExpiresWithRedisTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })

	s := NewStore(store.NewRedisKV(c), WithTTL(time.Hour), WithKeyPrefix("test:"))
	sess, err := s.Create(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("test:"+sess.ID))

	mr.FastForward(2 * time.Hour)
	_, err = s.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveUpdatesTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewStore(store.NewMemoryKV(), WithClock(func() time.Time { return now }))

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, sess.CreatedAt)

	now = now.Add(time.Minute)
	require.NoError(t, s.Save(ctx, sess))
	loaded, err := s.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, now, loaded.UpdatedAt)
	assert.Equal(t, now.Add(-time.Minute), loaded.CreatedAt)
}
