package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

// Config defines configurations to connect database
type Config struct {
	DSN                string `mapstructure:"dsn"`
	Automigrate        bool   `mapstructure:"automigrate"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
	TLSCAPath          string `mapstructure:"tls_ca_path"`
}

const (
	tlsConfigName    = "custom"
	pingTimeout      = 10 * time.Second
	migrationTimeout = 5 * time.Minute
)

// MYSQLStore reads report snapshots from the shop database.
type MYSQLStore struct {
	db  dependency.DB
	raw *sqlx.DB
}

var _ dependency.Snapshots = (*MYSQLStore)(nil)

// New opens the pool, checks it is reachable and applies the schema when
// Automigrate is set.
func New(ctx context.Context, cfg Config) (*MYSQLStore, error) {
	if cfg.TLSCAPath != "" {
		if err := registerCA(cfg.TLSCAPath); err != nil {
			return nil, err
		}
	}

	d, err := sqlx.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}
	if cfg.MaxOpenConnections > 0 {
		d.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		d.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	// report fetches are bursty, idle connections are dropped quickly
	d.SetConnMaxLifetime(2 * time.Minute)
	d.SetConnMaxIdleTime(30 * time.Second)

	if err := ping(ctx, d); err != nil {
		d.Close()
		return nil, err
	}

	if cfg.Automigrate {
		mctx, cancel := context.WithTimeout(ctx, migrationTimeout)
		defer cancel()
		if err := MigrateWithContext(mctx, d.DB); err != nil {
			d.Close()
			return nil, err
		}
	}

	return &MYSQLStore{db: d, raw: d}, nil
}

func ping(ctx context.Context, d *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("can't ping database: %w", err)
	}
	return nil
}

// registerCA makes the CA at path usable with tls=custom in the DSN.
func registerCA(path string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("can't read CA certificate %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("can't parse CA certificate %s", path)
	}
	if err := mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{RootCAs: pool}); err != nil {
		return fmt.Errorf("can't register TLS config: %w", err)
	}
	slog.Default().Info("using CA certificate", slog.String("path", path))
	return nil
}

//go:embed sql
var fs embed.FS

// MigrateWithContext applies the embedded schema. sql-migrate has no context
// support, so ctx only bounds how long the caller waits.
func MigrateWithContext(ctx context.Context, db *sql.DB) error {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: fs,
		Root:       "sql",
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := migrate.Exec(db, "mysql", src, migrate.Up)
		done <- result{n: n, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("can't apply migrations: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("can't apply migrations: %w", res.err)
		}
		slog.Default().InfoContext(ctx, "applied migrations",
			slog.Int("count", res.n),
		)
		return nil
	}
}

// Close closes the underlying connection pool.
func (ms *MYSQLStore) Close() {
	if err := ms.raw.Close(); err != nil {
		slog.Default().Error("can't close database",
			slog.String("err", err.Error()),
		)
	}
}
