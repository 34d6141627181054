package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/export"
)

func (w *Worker) worker(ctx context.Context) {
	ticker := time.NewTicker(w.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sendDigest(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "can't send report digest",
					slog.String("err", err.Error()),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}

// previousDay is the full calendar day before now in loc.
func previousDay(now time.Time, loc *time.Location) entity.TimeRange {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	from := today.AddDate(0, 0, -1)
	return entity.TimeRange{From: from, To: today.Add(-time.Nanosecond)}
}

func (w *Worker) sendDigest(ctx context.Context) error {
	now := w.now()
	rt, _ := entity.ParseReportType(w.c.ReportType)
	r, err := w.reports.Compute(ctx, entity.ReportRequest{
		Type:     rt,
		Period:   previousDay(now, w.loc),
		Location: w.loc,
	})
	if err != nil {
		return fmt.Errorf("can't compute report: %w", err)
	}

	f, err := export.Workbook(r, now)
	if err != nil {
		return fmt.Errorf("can't export report: %w", err)
	}

	if w.c.Upload && w.files != nil {
		url, err := w.files.UploadReport(ctx, f)
		if err != nil {
			slog.Default().ErrorContext(ctx, "can't upload report digest",
				slog.String("err", err.Error()),
				slog.String("file", f.Name),
			)
		} else {
			slog.Default().InfoContext(ctx, "uploaded report digest",
				slog.String("url", url),
			)
		}
	}

	subject, html, err := w.mailer.RenderDigest(r)
	if err != nil {
		return fmt.Errorf("can't render digest: %w", err)
	}
	if err := w.mailer.SendReport(ctx, w.c.Recipients, subject, html, f); err != nil {
		return fmt.Errorf("can't mail digest: %w", err)
	}

	slog.Default().InfoContext(ctx, "sent report digest",
		slog.String("type", string(r.Type)),
		slog.Int("orders", r.Summary.Orders),
		slog.Int("recipients", len(w.c.Recipients)),
	)
	return nil
}
