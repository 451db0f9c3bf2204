package userdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey{Table: "users", Operation: "get", ID: 7, Attributes: []string{"id", "name"}}
	assert.Equal(t, "users:get:7:", k.Prefix())
	assert.Equal(t, "users:get:7:id,name", k.String())
	assert.Equal(t, "users:get:7:", CacheKey{Table: "users", Operation: "get", ID: 7}.String())
	assert.NotContains(t, CacheKey{Table: "users", Operation: "get", ID: 70}.String(), k.Prefix())
}

func TestObjectEncoding(t *testing.T) {
	obj := Object{
		"id":      int64(7),
		"score":   1.5,
		"active":  true,
		"deleted": nil,
		"name":    Object{"first": "Ada", "last": "Lovelace"},
	}
	b, err := encodeObject(obj)
	require.NoError(t, err)
	got, err := decodeObject(b)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	_, err = decodeObject([]byte{0xc1})
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	t.Run("get_missing", func(t *testing.T) {
		v, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("set_get_delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		v, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
		require.NoError(t, c.Delete(ctx, "a"))
		v, err = c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "ttl", []byte("x"), time.Minute))
		now = now.Add(59 * time.Second)
		v, _ := c.Get(ctx, "ttl")
		assert.NotNil(t, v)
		now = now.Add(time.Second)
		v, _ = c.Get(ctx, "ttl")
		assert.Nil(t, v)
		assert.Equal(t, 0, c.Len(), "expired entries are dropped on read")
	})

	t.Run("delete_prefix", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "users:get:7:", []byte("a"), 0))
		require.NoError(t, c.Set(ctx, "users:get:7:id", []byte("b"), 0))
		require.NoError(t, c.Set(ctx, "users:get:70:", []byte("c"), 0))
		require.NoError(t, c.DeletePrefix(ctx, "users:get:7:"))
		assert.Equal(t, 1, c.Len())
		require.NoError(t, c.Clear(ctx))
		assert.Equal(t, 0, c.Len())
	})
}
