// internal/chat/presence_redis.go

package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisPresence keeps the online set in Redis so multiple API processes
// agree on who is reachable. Entries carry a TTL and are refreshed by the
// hub while the connection lives; a crashed process therefore stops
// claiming its users as online after one TTL.
type redisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPresence creates a shared presence registry backed by Redis
func NewRedisPresence(rdb *redis.Client, ttl time.Duration) Presence {
	return &redisPresence{
		rdb: rdb,
		ttl: ttl,
	}
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:online:%d", userID)
}

func (p *redisPresence) SetOnline(ctx context.Context, userID int64) error {
	return p.rdb.Set(ctx, presenceKey(userID), 1, p.ttl).Err()
}

func (p *redisPresence) SetOffline(ctx context.Context, userID int64) error {
	return p.rdb.Del(ctx, presenceKey(userID)).Err()
}

func (p *redisPresence) IsOnline(ctx context.Context, userID int64) bool {
	n, err := p.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		// Treat an unreachable registry as "offline" so the pipeline
		// falls back to persisted notifications instead of dropping them
		log.Printf("presence lookup failed for user %d: %v", userID, err)
		return false
	}
	return n > 0
}
