package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	store, err := OpenIdempotencyStore(context.Background(), Config{
		Addr:           mr.Addr(),
		Password:       "s3cret",
		IdempotencyTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.NoError(t, store.Ping(context.Background()))

	_, claimed, err := store.Claim(context.Background(), "admin:k", "post-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, time.Minute, mr.TTL("idem:post:admin:k"))
}

func TestConnect_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := Connect(context.Background(), Config{Addr: mr.Addr(), Password: "nope", Timeout: time.Second})
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
