// Package report runs the generation cycle of a report: fetch the snapshot,
// filter it for the report type, reduce it into aggregate views and publish
// the result as the current report.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/calc"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/drilldown"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/jekabolt/farmgoods-reports/internal/export"
	"github.com/jekabolt/farmgoods-reports/internal/filter"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// FetchTimeout bounds each snapshot fetch; zero disables the bound.
	FetchTimeout time.Duration    `mapstructure:"fetch_timeout"`
	TopN         int              `mapstructure:"top_n"`
	Timezone     string           `mapstructure:"timezone"`
	Assumptions  calc.Assumptions `mapstructure:"assumptions"`
}

type Service struct {
	c         Config
	loc       *time.Location
	snapshots dependency.Snapshots
	now       func() time.Time

	generation atomic.Uint64

	mu      sync.RWMutex
	current *entity.Report
	rc      *entity.ReportContext
}

var _ dependency.Reports = (*Service)(nil)

func New(c Config, snapshots dependency.Snapshots) (*Service, error) {
	loc := time.Local
	if c.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("can't load timezone %q: %w", c.Timezone, err)
		}
	}
	if c.TopN <= 0 {
		c.TopN = calc.DefaultTopN
	}
	c.Assumptions = c.Assumptions.WithDefaults()
	return &Service{
		c:         c,
		loc:       loc,
		snapshots: snapshots,
		now:       time.Now,
	}, nil
}

// Location is the default zone of calendar boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// snapshot is the raw fetch result of one generation.
type snapshot struct {
	orders    []entity.Order
	products  []entity.Product
	customers []entity.Customer
	notices   []entity.Notice
}

// fetch loads the three collections concurrently. A failed fetch yields an
// empty collection and a notice; it never fails the whole report.
func (s *Service) fetch(ctx context.Context, period entity.TimeRange) snapshot {
	var (
		snap     snapshot
		noticeMu sync.Mutex
	)
	degrade := func(source string, err error) {
		slog.Default().ErrorContext(ctx, "can't fetch report data",
			slog.String("source", source),
			slog.String("err", err.Error()),
		)
		noticeMu.Lock()
		snap.notices = append(snap.notices, entity.Notice{
			Source:  source,
			Message: fmt.Sprintf("%s could not be loaded, the report shows no %s", source, source),
		})
		noticeMu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		ctx, cancel := s.fetchContext(ctx)
		defer cancel()
		orders, err := s.snapshots.Orders(ctx, period.From, period.To)
		if err != nil {
			degrade("orders", err)
			orders = nil
		}
		snap.orders = orders
		return nil
	})
	g.Go(func() error {
		ctx, cancel := s.fetchContext(ctx)
		defer cancel()
		products, err := s.snapshots.Products(ctx)
		if err != nil {
			degrade("products", err)
			products = nil
		}
		snap.products = products
		return nil
	})
	g.Go(func() error {
		ctx, cancel := s.fetchContext(ctx)
		defer cancel()
		customers, err := s.snapshots.Customers(ctx)
		if err != nil {
			degrade("customers", err)
			customers = nil
		}
		snap.customers = customers
		return nil
	})
	_ = g.Wait()

	if snap.orders == nil {
		snap.orders = []entity.Order{}
	}
	if snap.products == nil {
		snap.products = []entity.Product{}
	}
	if snap.customers == nil {
		snap.customers = []entity.Customer{}
	}
	return snap
}

func (s *Service) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.c.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.c.FetchTimeout)
}

// Validate checks a request before anything is fetched.
func Validate(req entity.ReportRequest) error {
	if _, ok := entity.ParseReportType(string(req.Type)); !ok {
		return fmt.Errorf("%w: %q", gerr.ErrInvalidReportType, req.Type)
	}
	if req.Period.From.IsZero() || req.Period.To.IsZero() {
		return fmt.Errorf("%w: period start and end are required", gerr.ErrInvalidRequest)
	}
	if req.Period.From.After(req.Period.To) {
		return gerr.ErrInvalidDateRange
	}
	switch req.Granularity {
	case 0, entity.MetricsGranularityDay, entity.MetricsGranularityWeek, entity.MetricsGranularityMonth:
	default:
		return fmt.Errorf("%w: granularity %d", gerr.ErrInvalidRequest, req.Granularity)
	}
	return nil
}

// Generate runs one generation cycle and publishes its result. When a newer
// Generate call started in the meantime the result is dropped and
// ErrStaleGeneration is returned.
func (s *Service) Generate(ctx context.Context, req entity.ReportRequest) (*entity.Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	token := s.generation.Add(1)
	started := s.now()

	r, rc, err := s.compute(ctx, req, func() bool { return s.generation.Load() == token })
	if err != nil {
		return nil, err
	}
	r.Generation = token

	s.mu.Lock()
	if s.generation.Load() != token {
		s.mu.Unlock()
		return nil, gerr.ErrStaleGeneration
	}
	s.current, s.rc = r, rc
	s.mu.Unlock()

	slog.Default().InfoContext(ctx, "report generated",
		slog.String("type", string(r.Type)),
		slog.Uint64("generation", token),
		slog.Int("orders", len(rc.AllOrders)),
		slog.Int("filtered", len(rc.Orders)),
		slog.Int("notices", len(r.Notices)),
		slog.Duration("took", s.now().Sub(started)),
	)
	return r, nil
}

// Compute builds a report without publishing it.
func (s *Service) Compute(ctx context.Context, req entity.ReportRequest) (*entity.Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	r, _, err := s.compute(ctx, req, func() bool { return true })
	return r, err
}

// compute fetches and reduces the snapshot of a validated request. latest is
// consulted after the fetch; a false result aborts with ErrStaleGeneration.
func (s *Service) compute(ctx context.Context, req entity.ReportRequest, latest func() bool) (*entity.Report, *entity.ReportContext, error) {
	req.Type, _ = entity.ParseReportType(string(req.Type))
	if req.Granularity == 0 {
		req.Granularity = entity.MetricsGranularityDay
	}
	if req.TopN <= 0 {
		req.TopN = s.c.TopN
	}
	loc := req.Location
	if loc == nil {
		loc = s.loc
	}

	snap := s.fetch(ctx, req.Period)
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("can't generate report: %w", err)
	}
	if !latest() {
		return nil, nil, gerr.ErrStaleGeneration
	}

	rc := &entity.ReportContext{
		Type:        req.Type,
		Period:      req.Period,
		Granularity: req.Granularity,
		Location:    loc,
		AsOf:        s.now(),
		Selection:   req.Selection,
		AllOrders:   snap.orders,
		Orders:      filter.Apply(snap.orders, snap.products, req.Type, req.Selection),
		Products:    snap.products,
		Customers:   snap.customers,
	}
	r := Build(rc, req.TopN, s.c.Assumptions)
	r.GeneratedAt = rc.AsOf
	r.Notices = snap.notices
	return r, rc, nil
}

// Build computes the sections of a report from rc. Sections that do not
// belong to rc.Type stay empty; business metrics are computed for every type.
func Build(rc *entity.ReportContext, topN int, a calc.Assumptions) *entity.Report {
	loc := rc.Loc()
	orders := rc.Orders
	r := &entity.Report{
		Type:        rc.Type,
		Period:      rc.Period,
		Granularity: rc.Granularity,
		Selection:   rc.Selection,
		Summary:     calc.Summary(orders),
	}

	lifetimes := calc.CustomerLifetimes(orders, rc.Customers, rc.AsOf)

	switch rc.Type {
	case entity.ReportTypeSales:
		r.SalesTrend = calc.SalesTrend(orders, loc)
		r.Categories = calc.SalesByCategory(orders, rc.Products)
		r.CustomerTypes = calc.CustomerTypes(orders)
		r.TopProducts = calc.TopProducts(orders, rc.Products, topN)
	case entity.ReportTypePayment:
		r.PaymentMethods = calc.PaymentMethods(orders)
		ps := calc.PaymentSuccess(orders)
		r.PaymentSuccess = &ps
		r.TimeSlots = calc.PaymentsByTimeOfDay(orders, loc)
	case entity.ReportTypeProduct:
		r.Products = calc.ProductPerformance(orders, rc.Products, a)
		r.TopProducts = calc.TopProducts(orders, rc.Products, topN)
		r.Categories = calc.SalesByCategory(orders, rc.Products)
	case entity.ReportTypeCustomer:
		r.Lifetimes = lifetimes
		r.Segments = calc.CustomerSegments(lifetimes)
		r.Cohorts = calc.AcquisitionCohorts(rc.Customers, loc)
	}

	r.AOVTrend = calc.AOVTrend(orders, rc.Period, rc.Granularity, loc)
	clv := calc.CLVProjection(orders, rc.Customers, a)
	r.CLV = &clv
	retention := calc.Retention(lifetimes)
	r.Retention = &retention
	profit := calc.Profitability(orders, a)
	r.Profitability = &profit
	r.CategoryProfit = calc.CategoryProfitability(orders, rc.Products, a)
	r.Seasonal = calc.SeasonalTrend(orders, loc)
	return r
}

func (s *Service) published() (*entity.Report, *entity.ReportContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, nil, gerr.ErrNoReport
	}
	return s.current, s.rc, nil
}

// Current returns the last published report.
func (s *Service) Current() (*entity.Report, error) {
	r, _, err := s.published()
	return r, err
}

// Drilldown details one bucket of the current report.
func (s *Service) Drilldown(_ context.Context, kind, key string) (*entity.Drilldown, error) {
	_, rc, err := s.published()
	if err != nil {
		return nil, err
	}
	k, err := drilldown.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return drilldown.Compute(rc, k, key, drilldown.DefaultTopProducts)
}

// Export renders the current report as a workbook.
func (s *Service) Export(_ context.Context) (*entity.ExportFile, error) {
	r, _, err := s.published()
	if err != nil {
		return nil, err
	}
	f, err := export.Workbook(r, s.now())
	if err != nil {
		return nil, fmt.Errorf("can't export report: %w", err)
	}
	return f, nil
}
