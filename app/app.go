package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jekabolt/farmgoods-reports/config"
	httpapi "github.com/jekabolt/farmgoods-reports/internal/api/http"
	"github.com/jekabolt/farmgoods-reports/internal/auth/jwt"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/digest"
	"github.com/jekabolt/farmgoods-reports/internal/mail"
	"github.com/jekabolt/farmgoods-reports/internal/report"
)

const shutdownTimeout = 10 * time.Second

// App is the main application
type App struct {
	hs      *httpapi.Server
	digest  *digest.Worker
	release func()
	c       *config.Config
	once    sync.Once
	done    chan struct{}

	reports func(context.Context, *config.Config) (*report.Service, func(), error)
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:       c,
		done:    make(chan struct{}),
		reports: Reports,
	}
}

// Start starts the app. On failure everything acquired so far is released
// and Done is closed.
func (a *App) Start(ctx context.Context) error {
	slog.Default().InfoContext(ctx, "starting farm reports")

	reports, release, err := a.reports(ctx, a.c)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't create report service",
			slog.String("err", err.Error()),
		)
		a.close()
		return err
	}
	a.release = release

	fail := func(msg string, err error) error {
		slog.Default().ErrorContext(ctx, msg,
			slog.String("err", err.Error()),
		)
		if a.digest != nil {
			if err := a.digest.Stop(); err != nil {
				slog.Default().ErrorContext(ctx, "can't stop digest worker",
					slog.String("err", err.Error()),
				)
			}
			a.digest = nil
		}
		a.close()
		return err
	}

	var files dependency.FileStore
	if a.c.Bucket.Enabled() {
		b, err := a.c.Bucket.Init()
		if err != nil {
			return fail("failed create new bucket", err)
		}
		files = b
	}

	if a.c.Digest.Enabled() {
		mailer, err := mail.New(&a.c.Mailer)
		if err != nil {
			return fail("failed create new mailer", err)
		}
		w, err := digest.New(&a.c.Digest, reports, mailer, files, reports.Location())
		if err != nil {
			return fail("failed create new digest worker", err)
		}
		if err := w.Start(ctx); err != nil {
			return fail("failed start digest worker", err)
		}
		a.digest = w
	}

	// start API server
	a.hs = httpapi.New(&a.c.HTTP, reports, files, jwt.New(&a.c.Auth))
	if err = a.hs.Start(ctx); err != nil {
		return fail("cannot start http server", err)
	}

	go func() {
		<-a.hs.Done()
		a.close()
	}()

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if a.digest != nil {
		if err := a.digest.Stop(); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop digest worker",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop http server",
				slog.String("err", err.Error()),
			)
		}
		<-a.hs.Done()
	}
	a.close()
}

func (a *App) close() {
	a.once.Do(func() {
		if a.release != nil {
			a.release()
		}
		close(a.done)
	})
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
