package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbedCache caches embedding vectors in Redis, keyed by the SHA-256 of
// the input text. Embedding generation is the slowest and most expensive
// call on the match path; identical clause text recurs constantly across
// documents of the same deal.
type EmbedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEmbedCache(redisURL string, ttl time.Duration) (*EmbedCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbedCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}

// Get returns a cached vector, or ok=false on miss or any Redis error.
func (c *EmbedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// Put stores a vector; errors are dropped, the cache is best-effort.
func (c *EmbedCache) Put(ctx context.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKey(text), raw, c.ttl).Err()
}
