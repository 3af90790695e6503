package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
	"github.com/blackoutassasin/NF-BOT/internal/port"
)

const sessionKeyPrefix = "session:"

// RedisSessionAdapter keeps per-buyer state machine sessions in Redis so a
// restart mid-verification resumes where the buyer left off.
type RedisSessionAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionAdapter(client *redis.Client, ttl time.Duration) *RedisSessionAdapter {
	return &RedisSessionAdapter{client: client, ttl: ttl}
}

func (r *RedisSessionAdapter) Get(ctx context.Context, buyerID string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+buyerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionAdapter) Put(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+session.BuyerID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (r *RedisSessionAdapter) Delete(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+buyerID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

var _ port.SessionRepository = (*RedisSessionAdapter)(nil)
