// Package cache keeps catalog items in Redis. Items never change once
// created, so entries are only ever written and expired.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"csinventory/internal/models"
)

type ItemCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewItemCache(rdb *redis.Client, ttl time.Duration, prefix string) *ItemCache {
	if prefix == "" {
		prefix = "csinv"
	}
	return &ItemCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Get returns the cached item. Misses and Redis failures both report false.
func (c *ItemCache) Get(ctx context.Context, nameID int64) (*models.Item, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, c.key(nameID)).Bytes()
	if err != nil {
		return nil, false
	}
	var item models.Item
	if json.Unmarshal(data, &item) != nil {
		return nil, false
	}
	return &item, true
}

func (c *ItemCache) Set(ctx context.Context, item *models.Item) {
	if c == nil || c.rdb == nil || item == nil {
		return
	}
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.key(item.NameID), data, c.ttl)
}

func (c *ItemCache) key(nameID int64) string {
	return c.prefix + ":item:" + strconv.FormatInt(nameID, 10)
}

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
