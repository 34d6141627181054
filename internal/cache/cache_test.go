package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type snapshotsMock struct {
	mock.Mock
}

func (m *snapshotsMock) Orders(ctx context.Context, from, to time.Time) ([]entity.Order, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *snapshotsMock) Products(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *snapshotsMock) Customers(ctx context.Context) ([]entity.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Customer), args.Error(1)
}

// memCache stores JSON like Redis does.
type memCache struct {
	data   map[string][]byte
	getErr error
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	orders := []entity.Order{{
		ID:        "o1",
		CreatedAt: from.Add(time.Hour),
		Total:     decimal.NewFromInt(150),
		Items:     []entity.OrderItem{{ProductID: "p1", Price: decimal.NewFromInt(15), Quantity: 10}},
	}}

	next := &snapshotsMock{}
	next.On("Orders", ctx, from, to).Return(orders, nil).Once()

	s := WithCache(next, &memCache{data: map[string][]byte{}})
	s.now = func() time.Time { return to.AddDate(0, 0, 1) }

	for i := 0; i < 2; i++ {
		got, err := s.Orders(ctx, from, to)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Total.Equal(decimal.NewFromInt(150)))
		assert.True(t, got[0].CreatedAt.Equal(orders[0].CreatedAt))
	}
	next.AssertExpectations(t)
}

func TestFreshData(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	t.Run("window reaching now", func(t *testing.T) {
		from, to := now.Add(-time.Hour), now.Add(time.Hour)
		first := []entity.Order{{ID: "o1", CreatedAt: from}}
		second := []entity.Order{{ID: "o1", CreatedAt: from}, {ID: "o2", CreatedAt: now}}

		next := &snapshotsMock{}
		next.On("Orders", ctx, from, to).Return(first, nil).Once()
		next.On("Orders", ctx, from, to).Return(second, nil).Once()

		c := &memCache{data: map[string][]byte{}}
		s := WithCache(next, c)
		s.now = func() time.Time { return now }

		got, err := s.Orders(ctx, from, to)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		got, err = s.Orders(ctx, from, to)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Empty(t, c.data)
		next.AssertExpectations(t)
	})

	t.Run("window ending now", func(t *testing.T) {
		from := now.AddDate(0, 0, -1)
		next := &snapshotsMock{}
		next.On("Orders", ctx, from, now).Return([]entity.Order{}, nil).Twice()

		c := &memCache{data: map[string][]byte{}}
		s := WithCache(next, c)
		s.now = func() time.Time { return now }
		for i := 0; i < 2; i++ {
			_, err := s.Orders(ctx, from, now)
			require.NoError(t, err)
		}
		assert.Empty(t, c.data)
		next.AssertExpectations(t)
	})

	t.Run("catalog and customers", func(t *testing.T) {
		next := &snapshotsMock{}
		next.On("Products", ctx).Return([]entity.Product{{ID: "p1"}}, nil).Once()
		next.On("Products", ctx).Return([]entity.Product{{ID: "p1"}, {ID: "p2"}}, nil).Once()
		next.On("Customers", ctx).Return([]entity.Customer{{ID: "c1"}}, nil).Twice()

		c := &memCache{data: map[string][]byte{}}
		s := WithCache(next, c)

		products, err := s.Products(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 1)
		products, err = s.Products(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 2)

		for i := 0; i < 2; i++ {
			customers, err := s.Customers(ctx)
			require.NoError(t, err)
			assert.Len(t, customers, 1)
		}
		assert.Empty(t, c.data)
		next.AssertExpectations(t)
	})
}

func TestReadThroughCacheFault(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	next := &snapshotsMock{}
	next.On("Orders", ctx, from, to).Return([]entity.Order{{ID: "o1"}}, nil).Twice()

	s := WithCache(next, &memCache{data: map[string][]byte{}, getErr: errors.New("down")})
	for i := 0; i < 2; i++ {
		got, err := s.Orders(ctx, from, to)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	next.AssertExpectations(t)
}

func TestFetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	boom := errors.New("boom")
	next := &snapshotsMock{}
	next.On("Orders", ctx, from, to).Return([]entity.Order(nil), boom).Once()

	c := &memCache{data: map[string][]byte{}}
	_, err := WithCache(next, c).Orders(ctx, from, to)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.data)
}

func TestOrdersKey(t *testing.T) {
	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)
	from := time.Date(2024, 1, 1, 2, 0, 0, 0, riga)
	to := time.Date(2024, 1, 2, 2, 0, 0, 0, riga)
	assert.Equal(t, "snapshot:2024-01-01T00:00:00Z:2024-01-02T00:00:00Z", OrdersKey(from, to))
}

func TestNoop(t *testing.T) {
	c, closeFn, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)
	assert.NoError(t, closeFn())

	ok, err := c.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	c := NewRedis(rdb, time.Minute)
	key := "snapshot:test:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { rdb.Del(ctx, key) })

	var dst []entity.Product
	ok, err := c.Get(ctx, key, &dst)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []entity.Product{{ID: "p1", Price: decimal.NewFromFloat(1.5)}}))
	ok, err = c.Get(ctx, key, &dst)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, dst, 1)
	assert.True(t, dst[0].Price.Equal(decimal.NewFromFloat(1.5)))
}
