package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"tracker-service/internal/models"
)

const currentLocationsKey = "locations:current"

// ErrCacheMiss is returned when the cache holds no locations.
var ErrCacheMiss = errors.New("location cache miss")

// RedisLocationCache keeps the latest location of every user in one redis hash.
type RedisLocationCache struct {
	client *redis.Client
	key    string
}

// NewRedisLocationCache connects to url and verifies the connection.
func NewRedisLocationCache(ctx context.Context, url string) (*RedisLocationCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLocationCache{client: client, key: currentLocationsKey}, nil
}

// putNewer replaces the user's entry unless the cached record has a higher id.
var putNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc.id) and tonumber(doc.id) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// Put stores loc as the current location of its user. An older record never
// overwrites a newer one.
func (c *RedisLocationCache) Put(ctx context.Context, loc models.LocationEvent) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	err = putNewer.Run(ctx, c.client, []string{c.key}, strconv.Itoa(loc.UserID), loc.ID, data).Err()
	if err != nil {
		return fmt.Errorf("cache location: %w", err)
	}
	return nil
}

// All returns every cached location ordered by user id.
func (c *RedisLocationCache) All(ctx context.Context) ([]models.LocationEvent, error) {
	entries, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read location cache: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrCacheMiss
	}

	locs := make([]models.LocationEvent, 0, len(entries))
	for field, raw := range entries {
		var loc models.LocationEvent
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return nil, fmt.Errorf("decode cached location for user %s: %w", field, err)
		}
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].UserID < locs[j].UserID })
	return locs, nil
}

// Close releases the redis client.
func (c *RedisLocationCache) Close() error {
	return c.client.Close()
}
