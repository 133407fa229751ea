package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	BlogStatsKey       = "blog:stats"
	BlogListVersionKey = "blog:lists:version"
	BlogListKeyPrefix  = "blog:lists:v%d:%s:%d"
)

const (
	DefaultStatsTTL = 60 * time.Second
	DefaultListTTL  = 30 * time.Second
)

// BlogListKey builds the key of a cached list. version comes from
// ListVersion so that a bump orphans every older list at once.
func BlogListKey(version int64, list string, limit int) string {
	return fmt.Sprintf(BlogListKeyPrefix, version, list, limit)
}

// ListVersion returns the current list generation, 0 when unset or when Redis
// is unavailable.
func ListVersion(ctx context.Context) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, BlogListVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// InvalidateBlog drops the statistics and moves cached lists to a new
// generation. Called after every post write.
func InvalidateBlog(ctx context.Context) {
	if client == nil {
		return
	}
	client.Incr(ctx, BlogListVersionKey)
	Invalidate(ctx, BlogStatsKey)
}
