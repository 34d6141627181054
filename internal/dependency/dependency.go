package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jmoiron/sqlx"
)

type (
	// Snapshots reads the collections a report is computed from.
	Snapshots interface {
		// Orders returns orders created within [from, to], newest first.
		Orders(ctx context.Context, from, to time.Time) ([]entity.Order, error)
		// Products returns the full catalog.
		Products(ctx context.Context) ([]entity.Product, error)
		// Customers returns every registered customer.
		Customers(ctx context.Context) ([]entity.Customer, error)
	}

	// SnapshotCache keeps recently fetched collections.
	SnapshotCache interface {
		// Get decodes the cached value of key into dst. ok is false on a miss.
		Get(ctx context.Context, key string, dst any) (ok bool, err error)
		Set(ctx context.Context, key string, v any) error
	}

	// Reports generates reports and serves the current one.
	Reports interface {
		Generate(ctx context.Context, req entity.ReportRequest) (*entity.Report, error)
		Current() (*entity.Report, error)
		Drilldown(ctx context.Context, kind, key string) (*entity.Drilldown, error)
		Export(ctx context.Context) (*entity.ExportFile, error)
	}

	// FileStore publishes exported files.
	FileStore interface {
		UploadReport(ctx context.Context, f *entity.ExportFile) (string, error)
	}

	// Mailer sends report mails.
	Mailer interface {
		SendReport(ctx context.Context, to []string, subject, html string, attachment *entity.ExportFile) error
	}

	DB interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}
)
