// Package cache keeps team form snapshots and the team code table in
// Redis for request-time lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"matchform/pipeline/internal/metrics"
	"matchform/pipeline/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix    = "matchform:"
	teamCodesKey = keyPrefix + "team_codes"
)

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	// TTL applies to every key written; zero keeps keys until overwritten
	TTL time.Duration
}

// RedisCache stores team data in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// TeamKey returns the key holding a team's snapshot
func TeamKey(name string) string {
	return keyPrefix + "team:" + name
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Int("db", cfg.DB).
		Msg("Successfully connected to Redis")

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SetSnapshots writes one key per team in a single pipeline and drops
// the keys of teams that are not in snaps
func (c *RedisCache) SetSnapshots(ctx context.Context, snaps []models.TeamFormSnapshot) error {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("set_snapshots", time.Since(start).Seconds()) }()

	pipe := c.client.Pipeline()
	for _, s := range snaps {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot for %s: %w", s.TeamName, err)
		}
		pipe.Set(ctx, TeamKey(s.TeamName), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache team snapshots: %w", err)
	}

	var existing []string
	iter := c.client.Scan(ctx, 0, TeamKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		existing = append(existing, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached team snapshots: %w", err)
	}

	if stale := staleTeamKeys(existing, snaps); len(stale) > 0 {
		if err := c.client.Del(ctx, stale...).Err(); err != nil {
			return fmt.Errorf("failed to drop stale team snapshots: %w", err)
		}
		log.Info().Int("count", len(stale)).Msg("Dropped cached snapshots of teams absent from the run")
	}

	log.Debug().Int("count", len(snaps)).Msg("Team snapshots cached")
	return nil
}

// staleTeamKeys returns the keys in existing that belong to no snapshot
func staleTeamKeys(existing []string, snaps []models.TeamFormSnapshot) []string {
	current := make(map[string]struct{}, len(snaps))
	for _, s := range snaps {
		current[TeamKey(s.TeamName)] = struct{}{}
	}

	var stale []string
	for _, k := range existing {
		if _, ok := current[k]; !ok {
			stale = append(stale, k)
		}
	}
	sort.Strings(stale)
	return stale
}

// GetSnapshot returns a cached snapshot, or nil on a miss
func (c *RedisCache) GetSnapshot(ctx context.Context, name string) (*models.TeamFormSnapshot, error) {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("get_snapshot", time.Since(start).Seconds()) }()

	data, err := c.client.Get(ctx, TeamKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}
	metrics.RecordCacheHit()

	var snap models.TeamFormSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot for %s: %w", name, err)
	}
	return &snap, nil
}

// SetTeamCodes replaces the cached team code hash
func (c *RedisCache) SetTeamCodes(ctx context.Context, codes []models.TeamCode) error {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("set_team_codes", time.Since(start).Seconds()) }()

	values := make(map[string]interface{}, len(codes))
	for _, tc := range codes {
		values[tc.Name] = tc.Code
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, teamCodesKey)
	if len(values) > 0 {
		pipe.HSet(ctx, teamCodesKey, values)
		if c.ttl > 0 {
			pipe.Expire(ctx, teamCodesKey, c.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache team codes: %w", err)
	}
	return nil
}

// GetTeamCodes returns the cached code table ordered by code. An empty
// result is a miss.
func (c *RedisCache) GetTeamCodes(ctx context.Context) ([]models.TeamCode, error) {
	start := time.Now()
	defer func() { metrics.RecordCacheOperation("get_team_codes", time.Since(start).Seconds()) }()

	raw, err := c.client.HGetAll(ctx, teamCodesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached team codes: %w", err)
	}
	if len(raw) == 0 {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	metrics.RecordCacheHit()

	return decodeTeamCodes(raw)
}

// decodeTeamCodes converts a name to code hash into an ordered table
func decodeTeamCodes(raw map[string]string) ([]models.TeamCode, error) {
	codes := make([]models.TeamCode, 0, len(raw))
	for name, v := range raw {
		code, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid cached code %q for %s: %w", v, name, err)
		}
		codes = append(codes, models.TeamCode{Code: code, Name: name})
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}
