package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisSession_PutGetDelete(t *testing.T) {
	client := getRedisClient(t)
	sessions := NewRedisSessionAdapter(client, time.Minute)
	ctx := context.Background()

	buyerID := "test-buyer-" + time.Now().Format("150405.000")
	defer sessions.Delete(ctx, buyerID)

	got, err := sessions.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Nil(t, got)

	session := domain.Session{
		BuyerID:   buyerID,
		State:     domain.SessionAwaitingProof,
		Attempts:  1,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, sessions.Put(ctx, session))

	got, err = sessions.Get(ctx, buyerID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.SessionAwaitingProof, got.State)
	assert.Equal(t, 1, got.Attempts)

	require.NoError(t, sessions.Delete(ctx, buyerID))

	got, err = sessions.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is not an error.
	require.NoError(t, sessions.Delete(ctx, buyerID))
}

func TestRedisSession_Expiry(t *testing.T) {
	client := getRedisClient(t)
	sessions := NewRedisSessionAdapter(client, 50*time.Millisecond)
	ctx := context.Background()

	buyerID := "test-exp-" + time.Now().Format("150405.000")
	require.NoError(t, sessions.Put(ctx, domain.Session{
		BuyerID: buyerID,
		State:   domain.SessionAwaitingProof,
	}))

	time.Sleep(100 * time.Millisecond)

	got, err := sessions.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
