package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

const (
	keyPrefix   = "idem:post:"
	ownerPrefix = "idem:owner:"
)

// forgetScript deletes the reverse entry for a post and the forward entry it
// names, unless the forward entry was since claimed for another post.
var forgetScript = redis.NewScript(`
local key = redis.call('GET', KEYS[1])
if not key then
	return 0
end
redis.call('DEL', KEYS[1])
local fwd = ARGV[2] .. key
if redis.call('GET', fwd) == ARGV[1] then
	redis.call('DEL', fwd)
	return 1
end
return 0
`)

// IdempotencyStore maps client Idempotency-Keys to the post they created.
// Key format: idem:post:<key> -> post id, with idem:owner:<post id> -> key
// kept alongside so a deleted post can free its key.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim records key -> postID with SETNX. When the key already exists the
// stored post id is returned with claimed=false.
func (s *IdempotencyStore) Claim(ctx context.Context, key, postID string) (string, bool, error) {
	k := s.key(key)
	ok, err := s.client.SetNX(ctx, k, postID, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		if err := s.client.Set(ctx, s.ownerKey(postID), key, s.ttl).Err(); err != nil {
			_ = s.client.Del(ctx, k).Err()
			return "", false, fmt.Errorf("idempotency claim: %w", err)
		}
		return postID, true, nil
	}

	prev, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, fmt.Errorf("idempotency claim: key %q expired while reading", key)
		}
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return prev, false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Forget frees the key that produced postID.
func (s *IdempotencyStore) Forget(ctx context.Context, postID string) error {
	if err := forgetScript.Run(ctx, s.client, []string{s.ownerKey(postID)}, postID, keyPrefix).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *IdempotencyStore) key(key string) string {
	return keyPrefix + key
}

func (s *IdempotencyStore) ownerKey(postID string) string {
	return ownerPrefix + postID
}

func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
