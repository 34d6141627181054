// Package digest mails a report of the previous day to a fixed list of
// recipients on a schedule.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
)

// Config holds configuration for the digest worker.
type Config struct {
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	Recipients     []string      `mapstructure:"recipients"`
	ReportType     string        `mapstructure:"report_type"`
	Upload         bool          `mapstructure:"upload"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		WorkerInterval: 24 * time.Hour,
		ReportType:     string(entity.ReportTypeSales),
	}
}

// Enabled reports whether anyone should receive the digest.
func (c *Config) Enabled() bool {
	return len(c.Recipients) > 0
}

// Reporter computes reports without publishing them.
type Reporter interface {
	Compute(ctx context.Context, req entity.ReportRequest) (*entity.Report, error)
}

// Mailer renders and sends the digest mail.
type Mailer interface {
	dependency.Mailer
	RenderDigest(r *entity.Report) (subject, html string, err error)
}

// Worker sends the digest of the previous calendar day every WorkerInterval.
type Worker struct {
	reports Reporter
	mailer  Mailer
	files   dependency.FileStore
	c       *Config
	loc     *time.Location
	now     func() time.Time
	ctx     context.Context
	stop    context.CancelFunc
}

// New creates a new digest worker. files may be nil, in which case exports
// are only attached to the mail.
func New(c *Config, reports Reporter, mailer Mailer, files dependency.FileStore, loc *time.Location) (*Worker, error) {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = 24 * time.Hour
	}
	if c.ReportType == "" {
		c.ReportType = string(entity.ReportTypeSales)
	}
	if _, ok := entity.ParseReportType(c.ReportType); !ok {
		return nil, fmt.Errorf("digest: bad report type %q", c.ReportType)
	}
	for _, r := range c.Recipients {
		if !govalidator.IsEmail(strings.TrimSpace(r)) {
			return nil, fmt.Errorf("digest: bad recipient %q", r)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Worker{
		reports: reports,
		mailer:  mailer,
		files:   files,
		c:       c,
		loc:     loc,
		now:     time.Now,
	}, nil
}

// Start starts the worker.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("digest worker already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	go w.worker(w.ctx)
	return nil
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("digest worker already stopped or not started")
	}
	w.stop()
	w.stop = nil
	return nil
}
