package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// DeletePrefix removes every key starting with prefix and returns how many were removed.
func (c *Cache) DeletePrefix(prefix string) int {
	n := 0
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
			n++
		}
	}
	return n
}

// Version returns the counter stored at key, or 0 when it was never bumped.
func (c *Cache) Version(key string) int64 {
	v, ok := c.Cache.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return n
}

// Bump atomically increments the counter at key and returns the new value. Counters never expire.
func (c *Cache) Bump(key string) int64 {
	for {
		if n, err := c.Cache.IncrementInt64(key, 1); err == nil {
			return n
		}
		if err := c.Cache.Add(key, int64(1), cache.NoExpiration); err == nil {
			return 1
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

// CacheKeyCommentsPrefix is shared by every cached comment page of a blog.
func CacheKeyCommentsPrefix(blogID int) string {
	return "comments:" + strconv.Itoa(blogID) + ":"
}

// CacheKeyCommentsVersion holds the generation of a blog's comment pages. It is outside CacheKeyCommentsPrefix.
func CacheKeyCommentsVersion(blogID int) string {
	return "comments_version:" + strconv.Itoa(blogID)
}

func CacheKeyComments(blogID int, version int64, page, limit int) string {
	return CacheKeyCommentsPrefix(blogID) + strconv.FormatInt(version, 10) + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

func CacheKeyUserByAccessToken(token []byte) string {
	return "user_by_access_token:" + string(token)
}
