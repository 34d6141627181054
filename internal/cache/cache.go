// Package cache keeps fetched orders of past periods in Redis so repeated
// reports over the same closed period skip the backing store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

const DefaultTTL = 5 * time.Minute

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ dependency.SnapshotCache = (*Redis)(nil)

// New connects to Redis. An empty address yields a Noop cache.
func New(ctx context.Context, c Config) (dependency.SnapshotCache, func() error, error) {
	if c.Addr == "" {
		return Noop{}, func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("can't ping redis %s: %w", c.Addr, err)
	}
	return NewRedis(rdb, c.TTL), rdb.Close, nil
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("can't get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("can't decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("can't encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("can't set %s: %w", key, err)
	}
	return nil
}

// Noop never hits.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error         { return nil }

// OrdersKey is the cache key of the orders of [from, to].
func OrdersKey(from, to time.Time) string {
	return fmt.Sprintf("snapshot:%s:%s", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// Snapshots reads orders of closed windows through the cache. Windows
// reaching now, the catalog and the customer list always come from the
// backing store. Cache faults are logged and the backing store is used
// instead.
type Snapshots struct {
	next  dependency.Snapshots
	cache dependency.SnapshotCache
	now   func() time.Time
}

var _ dependency.Snapshots = (*Snapshots)(nil)

func WithCache(next dependency.Snapshots, c dependency.SnapshotCache) *Snapshots {
	return &Snapshots{next: next, cache: c, now: time.Now}
}

func (s *Snapshots) Orders(ctx context.Context, from, to time.Time) ([]entity.Order, error) {
	if !to.Before(s.now()) {
		return s.next.Orders(ctx, from, to)
	}
	return readThrough(ctx, s.cache, OrdersKey(from, to), func() ([]entity.Order, error) {
		return s.next.Orders(ctx, from, to)
	})
}

func (s *Snapshots) Products(ctx context.Context) ([]entity.Product, error) {
	return s.next.Products(ctx)
}

func (s *Snapshots) Customers(ctx context.Context) ([]entity.Customer, error) {
	return s.next.Customers(ctx)
}

func readThrough[T any](ctx context.Context, c dependency.SnapshotCache, key string, fetch func() ([]T, error)) ([]T, error) {
	var cached []T
	ok, err := c.Get(ctx, key, &cached)
	if err != nil {
		slog.Default().WarnContext(ctx, "can't read snapshot cache",
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}
	if ok {
		if cached == nil {
			cached = []T{}
		}
		return cached, nil
	}

	fresh, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, fresh); err != nil {
		slog.Default().WarnContext(ctx, "can't write snapshot cache",
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}
	return fresh, nil
}
