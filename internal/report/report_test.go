package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

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

// fakeSnapshots serves fixed collections. gate, when set, runs before the
// orders are returned.
type fakeSnapshots struct {
	orders       []entity.Order
	products     []entity.Product
	customers    []entity.Customer
	customersErr error
	gate         func(from time.Time)
}

func (f *fakeSnapshots) Orders(_ context.Context, from, to time.Time) ([]entity.Order, error) {
	if f.gate != nil {
		f.gate(from)
	}
	out := []entity.Order{}
	for _, o := range f.orders {
		if !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) Products(context.Context) ([]entity.Product, error) {
	return f.products, nil
}

func (f *fakeSnapshots) Customers(context.Context) ([]entity.Customer, error) {
	if f.customersErr != nil {
		return nil, f.customersErr
	}
	return f.customers, nil
}

func item(productID string, price int64, qty int) entity.OrderItem {
	return entity.OrderItem{ProductID: productID, Price: decimal.NewFromInt(price), Quantity: qty}
}

func fixture() *fakeSnapshots {
	return &fakeSnapshots{
		products: []entity.Product{
			{ID: "p1", Name: "Beef", Category: "meat", Price: decimal.NewFromInt(15)},
			{ID: "p2", Name: "Milk", Category: "dairy", Price: decimal.NewFromInt(2)},
		},
		customers: []entity.Customer{
			{ID: "c1", Name: "Ann", CreatedAt: day1.AddDate(0, -2, 0)},
			{ID: "c2", Name: "Bob", CreatedAt: day1.AddDate(0, -1, 0)},
		},
		orders: []entity.Order{
			{
				ID: "o1", CreatedAt: day1.Add(10 * time.Hour), CustomerID: "c1",
				Items: []entity.OrderItem{item("p1", 15, 10)}, Total: decimal.NewFromInt(150),
				PaymentMethod: "cash", OrderStatus: "delivered",
			},
			{
				ID: "o2", CreatedAt: day1.Add(15 * time.Hour), CustomerID: "c2",
				Items: []entity.OrderItem{item("p2", 2, 12)}, Total: decimal.NewFromInt(24),
				PaymentMethod: "card", PaymentStatus: "paid",
			},
			{
				ID: "o3", CreatedAt: day1.Add(33 * time.Hour), CustomerID: "c1",
				Items: []entity.OrderItem{item("p2", 2, 2)}, Total: decimal.NewFromInt(4),
				PaymentMethod: "card", OrderStatus: "cancelled",
			},
		},
	}
}

func newService(t *testing.T, snapshots *fakeSnapshots) *Service {
	t.Helper()
	s, err := New(Config{Timezone: "UTC"}, snapshots)
	require.NoError(t, err)
	s.now = func() time.Time { return day1.AddDate(0, 0, 10) }
	return s
}

func week() entity.TimeRange {
	return entity.TimeRange{From: day1, To: day1.AddDate(0, 0, 7)}
}

func TestGenerateRejectsBeforeFetch(t *testing.T) {
	m := &snapshotsMock{}
	s, err := New(Config{}, m)
	require.NoError(t, err)

	_, err = s.Generate(context.Background(), entity.ReportRequest{
		Type:   entity.ReportTypeSales,
		Period: entity.TimeRange{From: day1.AddDate(0, 0, 1), To: day1},
	})
	assert.ErrorIs(t, err, gerr.ErrInvalidDateRange)

	_, err = s.Generate(context.Background(), entity.ReportRequest{Type: "inventory", Period: week()})
	assert.ErrorIs(t, err, gerr.ErrInvalidReportType)

	_, err = s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales})
	assert.ErrorIs(t, err, gerr.ErrInvalidRequest)

	m.AssertNotCalled(t, "Orders", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Products", mock.Anything)

	_, err = s.Current()
	assert.ErrorIs(t, err, gerr.ErrNoReport)
}

func TestGenerateSales(t *testing.T) {
	s := newService(t, fixture())

	r, err := s.Generate(context.Background(), entity.ReportRequest{Type: "Sales", Period: week()})
	require.NoError(t, err)
	assert.Equal(t, entity.ReportTypeSales, r.Type)
	assert.Equal(t, uint64(1), r.Generation)
	assert.Empty(t, r.Notices)
	assert.Equal(t, 3, r.Summary.Orders)
	assert.True(t, r.Summary.Revenue.Equal(decimal.NewFromInt(178)))

	require.Len(t, r.SalesTrend, 2)
	assert.True(t, r.SalesTrend[0].Revenue.Equal(decimal.NewFromInt(174)))
	require.Len(t, r.Categories, 2)
	assert.Equal(t, "Meat", r.Categories[0].Category)
	require.Len(t, r.CustomerTypes, 2)
	assert.NotEmpty(t, r.TopProducts)
	assert.Empty(t, r.PaymentMethods)
	assert.Empty(t, r.Lifetimes)
	assert.NotNil(t, r.Profitability)
	assert.Len(t, r.Seasonal, 12)

	current, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, r, current)
}

func TestGenerateFilters(t *testing.T) {
	s := newService(t, fixture())

	r, err := s.Generate(context.Background(), entity.ReportRequest{
		Type:      entity.ReportTypeSales,
		Period:    week(),
		Selection: entity.Selection{CustomerType: entity.CustomerTypeBulk},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Summary.Orders)
	assert.True(t, r.Summary.Revenue.Equal(decimal.NewFromInt(24)))

	r, err = s.Generate(context.Background(), entity.ReportRequest{
		Type:      entity.ReportTypeProduct,
		Period:    week(),
		Selection: entity.Selection{Category: "Meat"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Summary.Orders)
	assert.NotEmpty(t, r.Products)
}

func TestGenerateSections(t *testing.T) {
	s := newService(t, fixture())

	r, err := s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypePayment, Period: week()})
	require.NoError(t, err)
	assert.Len(t, r.PaymentMethods, 2)
	require.NotNil(t, r.PaymentSuccess)
	assert.Len(t, r.TimeSlots, 4)
	assert.Empty(t, r.SalesTrend)

	r, err = s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeCustomer, Period: week()})
	require.NoError(t, err)
	assert.Len(t, r.Lifetimes, 2)
	assert.Len(t, r.Segments, 4)
	assert.Len(t, r.Cohorts, 2)
	require.NotNil(t, r.Retention)
	assert.Equal(t, 1, r.Retention.RepeatCustomers)
}

func TestGenerateDegradesOnFetchFault(t *testing.T) {
	snap := fixture()
	snap.customersErr = errors.New("connection refused")
	s := newService(t, snap)

	r, err := s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeCustomer, Period: week()})
	require.NoError(t, err)
	require.Len(t, r.Notices, 1)
	assert.Equal(t, "customers", r.Notices[0].Source)
	assert.Equal(t, 3, r.Summary.Orders)
	assert.Empty(t, r.Cohorts)
	assert.Len(t, r.Lifetimes, 2)
}

func TestGenerateDegradesWithMock(t *testing.T) {
	m := &snapshotsMock{}
	m.On("Orders", mock.Anything, day1, day1.AddDate(0, 0, 7)).Return([]entity.Order(nil), errors.New("timeout"))
	m.On("Products", mock.Anything).Return([]entity.Product(nil), errors.New("timeout"))
	m.On("Customers", mock.Anything).Return([]entity.Customer{}, nil)

	s, err := New(Config{Timezone: "UTC"}, m)
	require.NoError(t, err)

	r, err := s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: week()})
	require.NoError(t, err)
	assert.Len(t, r.Notices, 2)
	assert.Equal(t, 0, r.Summary.Orders)
	assert.True(t, r.Summary.Revenue.IsZero())
	assert.Empty(t, r.SalesTrend)
	m.AssertExpectations(t)
}

func TestStaleGenerationIsDropped(t *testing.T) {
	snap := fixture()
	entered := make(chan struct{})
	release := make(chan struct{})
	snap.gate = func(from time.Time) {
		if from.Equal(day1) {
			close(entered)
			<-release
		}
	}
	s := newService(t, snap)

	var (
		wg       sync.WaitGroup
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: week()})
	}()
	<-entered

	later := entity.TimeRange{From: day1.Add(12 * time.Hour), To: day1.AddDate(0, 0, 7)}
	r, err := s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: later})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.Generation)

	close(release)
	wg.Wait()
	assert.ErrorIs(t, staleErr, gerr.ErrStaleGeneration)

	current, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.Generation)
	assert.Equal(t, 2, current.Summary.Orders)
}

func TestDrilldownAndExport(t *testing.T) {
	s := newService(t, fixture())

	_, err := s.Drilldown(context.Background(), "category", "meat")
	assert.ErrorIs(t, err, gerr.ErrNoReport)
	_, err = s.Export(context.Background())
	assert.ErrorIs(t, err, gerr.ErrNoReport)

	_, err = s.Generate(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: week()})
	require.NoError(t, err)

	d, err := s.Drilldown(context.Background(), "category", "meat")
	require.NoError(t, err)
	assert.Equal(t, "Meat", d.Key)
	assert.Equal(t, 1, d.Orders)
	assert.True(t, d.Revenue.Equal(decimal.NewFromInt(150)))
	assert.InDelta(t, 84.27, d.SharePct, 0.001)

	_, err = s.Drilldown(context.Background(), "weather", "sunny")
	assert.ErrorIs(t, err, gerr.ErrUnknownDrilldown)
	_, err = s.Drilldown(context.Background(), "category", "fish")
	assert.ErrorIs(t, err, gerr.ErrBucketNotFound)

	f, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm-report-2024-03-11.xlsx", f.Name)
	assert.NotEmpty(t, f.Data)
}

func TestComputeDoesNotPublish(t *testing.T) {
	s := newService(t, fixture())

	r, err := s.Compute(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: week()})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Generation)
	assert.Equal(t, 3, r.Summary.Orders)

	_, err = s.Current()
	assert.ErrorIs(t, err, gerr.ErrNoReport)

	_, err = s.Compute(context.Background(), entity.ReportRequest{Type: entity.ReportTypeSales, Period: entity.TimeRange{From: day1, To: day1.Add(-time.Hour)}})
	assert.ErrorIs(t, err, gerr.ErrInvalidDateRange)
}
