package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAsideMissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	calls := 0
	load := func() (*widget, error) {
		calls++
		return &widget{ID: 1, Name: "first"}, nil
	}

	got, err := Aside(ctx, rdb, "v1:widget:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, calls)

	// Second read is served from cache; load is not called again.
	got, err = Aside(ctx, rdb, "v1:widget:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, calls)
}

func TestAsideNilClient(t *testing.T) {
	calls := 0
	load := func() (*widget, error) {
		calls++
		return &widget{ID: 2, Name: "direct"}, nil
	}

	got, err := Aside(context.Background(), nil, "v1:widget:2", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Name)
	assert.Equal(t, 1, calls)
}

func TestAsideLoadError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	boom := errors.New("db down")
	_, err := Aside(context.Background(), rdb, "v1:widget:3", time.Minute, func() (*widget, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// Nothing cached on failure.
	assert.False(t, mr.Exists("v1:widget:3"))
}

func TestAsideCorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	require.NoError(t, mr.Set("v1:widget:4", "{not json"))

	got, err := Aside(ctx, rdb, "v1:widget:4", time.Minute, func() (*widget, error) {
		return &widget{ID: 4, Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
}

func TestInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	require.NoError(t, mr.Set(UserKey(9), `{"id":9}`))
	InvalidateUser(ctx, rdb, 9)
	assert.False(t, mr.Exists(UserKey(9)))

	// Nil client is a no-op, not a panic.
	Invalidate(ctx, nil, UserKey(9))
}
