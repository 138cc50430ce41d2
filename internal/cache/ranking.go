package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/go-redis/redis"
)

const (
	// RankingKey holds the cached most-liked listing.
	RankingKey = "rank:artifacts:likes"
	// GenerationKey counts invalidations of the listing.
	GenerationKey = "rank:artifacts:generation"
)

// RankingCache stores the most-liked listing between writes.
//
// Readers take the Generation before querying the database and hand it to Set. Set stores
// nothing when an Invalidate happened in between, so a listing read before a write
// cannot outlive that write.
type RankingCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context) (artifacts []models.Artifact, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, artifacts []models.Artifact) error
	Invalidate(ctx context.Context) error
}

// NoopRankingCache never hits. Used when Redis is not configured.
type NoopRankingCache struct{}

func (NoopRankingCache) Get(context.Context) ([]models.Artifact, bool, error) { return nil, false, nil }
func (NoopRankingCache) Generation(context.Context) (int64, error)            { return 0, nil }
func (NoopRankingCache) Set(context.Context, int64, []models.Artifact) error  { return nil }
func (NoopRankingCache) Invalidate(context.Context) error                     { return nil }

// RedisRankingCache keeps the listing as one JSON value with a TTL.
type RedisRankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisRankingCache(client *redis.Client, ttl time.Duration) *RedisRankingCache {
	return &RedisRankingCache{client: client, ttl: ttl}
}

func (c *RedisRankingCache) Get(ctx context.Context) ([]models.Artifact, bool, error) {
	raw, err := c.client.WithContext(ctx).Get(RankingKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get ranking: %w", err)
	}

	var artifacts []models.Artifact
	if err := json.Unmarshal(raw, &artifacts); err != nil {
		return nil, false, fmt.Errorf("decode ranking: %w", err)
	}
	return artifacts, true, nil
}

func (c *RedisRankingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := readGeneration(c.client.WithContext(ctx).Get(GenerationKey))
	if err != nil {
		return 0, fmt.Errorf("get ranking generation: %w", err)
	}
	return gen, nil
}

// Set stores the listing only if the generation still matches. The generation key is
// watched so an Invalidate racing with Set aborts the write.
func (c *RedisRankingCache) Set(ctx context.Context, generation int64, artifacts []models.Artifact) error {
	raw, err := json.Marshal(artifacts)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}

	err = c.client.WithContext(ctx).Watch(func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(GenerationKey))
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(RankingKey, raw, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)
	if err == redis.TxFailedErr {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set ranking: %w", err)
	}
	return nil
}

func (c *RedisRankingCache) Invalidate(ctx context.Context) error {
	_, err := c.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Incr(GenerationKey)
		pipe.Del(RankingKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate ranking: %w", err)
	}
	return nil
}

func readGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}
