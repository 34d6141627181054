package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jekabolt/farmgoods-reports/config"
	"github.com/jekabolt/farmgoods-reports/internal/cache"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/docstore"
	"github.com/jekabolt/farmgoods-reports/internal/report"
	"github.com/jekabolt/farmgoods-reports/internal/store"
)

// Snapshots connects the configured backend and puts the snapshot cache in
// front of it. The returned func releases both.
func Snapshots(ctx context.Context, c *config.Config) (dependency.Snapshots, func(), error) {
	var (
		backend dependency.Snapshots
		closers []func()
	)
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch c.Store.Backend {
	case config.BackendDynamoDB:
		ds, err := docstore.New(ctx, c.DynamoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("can't create dynamodb store: %w", err)
		}
		backend = ds
	default:
		ms, err := store.New(ctx, c.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("can't connect to mysql: %w", err)
		}
		closers = append(closers, ms.Close)
		backend = ms
	}

	sc, closeCache, err := cache.New(ctx, c.Redis)
	if err != nil {
		release()
		return nil, nil, err
	}
	closers = append(closers, func() {
		if err := closeCache(); err != nil {
			slog.Default().ErrorContext(ctx, "can't close redis",
				slog.String("err", err.Error()),
			)
		}
	})

	slog.Default().InfoContext(ctx, "snapshot source ready",
		slog.String("backend", c.Store.Backend),
		slog.Bool("cache", c.Redis.Addr != ""),
	)
	return cache.WithCache(backend, sc), release, nil
}

// Reports builds the report service over the configured snapshot source.
func Reports(ctx context.Context, c *config.Config) (*report.Service, func(), error) {
	snapshots, release, err := Snapshots(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	svc, err := report.New(c.Reports, snapshots)
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}
