//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/config"
	"github.com/agenthands/weft/internal/core/terms"
)

func replacePackageID(doc, id string) string {
	return strings.Replace(doc, `packageId="knb-lter-kel.3.1"`, `packageId="`+id+`"`, 1)
}

func TestRedisCacheSharedAcrossResolvers(t *testing.T) {
	_ = godotenv.Load("../../.env")

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_ADDR not set")
	}
	ctx := context.Background()

	cache, closeFn, err := terms.NewCache(ctx, config.CacheConfig{Backend: config.CacheRedis, RedisAddr: addr, Prefix: "weft-it", TTLSeconds: 60})
	require.NoError(t, err)
	defer closeFn()

	calls := 0
	inner := terms.ResolverFunc(func(ctx context.Context, text string) ([]terms.Term, error) {
		calls++
		return []terms.Term{{Label: "meter", ID: "http://qudt.org/vocab/unit/M"}}, nil
	})
	first := terms.NewCachedResolver(inner, cache, "attribute_unit", nil)
	second := terms.NewCachedResolver(inner, cache, "attribute_unit", nil)

	_, err = first.Resolve(ctx, "meter")
	require.NoError(t, err)
	res, err := second.Resolve(ctx, "Meter")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "http://qudt.org/vocab/unit/M", res[0].ID)

	rc := cache.(*terms.RedisCache)
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	key := "weft-it:terms:" + rc.RunID() + ":attribute_unit|meter"
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)

	require.NoError(t, cache.Purge(ctx))
	n, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
