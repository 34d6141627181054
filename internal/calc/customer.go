package calc

import (
	"sort"
	"strings"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

const (
	activeWindow = 30 * 24 * time.Hour
	atRiskWindow = 90 * 24 * time.Hour
)

// CustomerStatusAt labels a customer by the age of the last purchase.
func CustomerStatusAt(last *time.Time, asOf time.Time) entity.CustomerStatus {
	if last == nil {
		return entity.CustomerStatusInactive
	}
	age := asOf.Sub(*last)
	switch {
	case age <= activeWindow:
		return entity.CustomerStatusActive
	case age <= atRiskWindow:
		return entity.CustomerStatusAtRisk
	default:
		return entity.CustomerStatusInactive
	}
}

// customerDirectory resolves order customer keys to customer records, by id
// first and by e-mail second.
type customerDirectory struct {
	byID    map[string]*entity.Customer
	byEmail map[string]*entity.Customer
}

func newCustomerDirectory(customers []entity.Customer) customerDirectory {
	d := customerDirectory{
		byID:    make(map[string]*entity.Customer, len(customers)),
		byEmail: make(map[string]*entity.Customer, len(customers)),
	}
	for i := range customers {
		c := &customers[i]
		if c.ID != "" {
			d.byID[c.ID] = c
		}
		if e := strings.ToLower(strings.TrimSpace(c.Email)); e != "" {
			d.byEmail[e] = c
		}
	}
	return d
}

func (d customerDirectory) lookup(o *entity.Order) (*entity.Customer, bool) {
	if c, ok := d.byID[o.CustomerID]; ok {
		return c, true
	}
	c, ok := d.byEmail[strings.ToLower(strings.TrimSpace(o.CustomerEmail))]
	return c, ok
}

func recordKey(c *entity.Customer) string {
	if c.ID != "" {
		return c.ID
	}
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// keyOf returns the lifetime key of an order's buyer: the customer record key
// when the buyer is registered, the order's own customer key otherwise.
func (d customerDirectory) keyOf(o *entity.Order) (string, *entity.Customer) {
	if c, ok := d.lookup(o); ok {
		if k := recordKey(c); k != "" {
			return k, c
		}
	}
	return CustomerKey(o), nil
}

// LifetimeKeys returns the function mapping an order to the CustomerKey of
// its entry in CustomerLifetimes.
func LifetimeKeys(customers []entity.Customer) func(*entity.Order) string {
	dir := newCustomerDirectory(customers)
	return func(o *entity.Order) string {
		k, _ := dir.keyOf(o)
		return k
	}
}

// CustomerLifetimes aggregates orders per buyer and adds registered customers
// without orders. The order's denormalized name wins over the customer record.
// Status is derived relative to asOf. Sorted by total spent descending.
func CustomerLifetimes(orders []entity.Order, customers []entity.Customer, asOf time.Time) []entity.CustomerLifetime {
	dir := newCustomerDirectory(customers)
	byKey := make(map[string]*entity.CustomerLifetime)

	// oldest first so the latest order sets the denormalized name
	sorted := NewestFirst(orders)
	for i := len(sorted) - 1; i >= 0; i-- {
		o := &sorted[i]
		key, rec := dir.keyOf(o)
		lt, ok := byKey[key]
		if !ok {
			lt = newLifetime(key, rec)
			byKey[key] = lt
		}
		if n := strings.TrimSpace(o.CustomerName); n != "" {
			lt.Name = n
		}
		if lt.Email == "" {
			lt.Email = o.CustomerEmail
		}
		lt.Orders++
		lt.TotalSpent = lt.TotalSpent.Add(o.Total)
		created := o.CreatedAt
		if lt.FirstPurchase == nil || created.Before(*lt.FirstPurchase) {
			lt.FirstPurchase = &created
		}
		if lt.LastPurchase == nil || created.After(*lt.LastPurchase) {
			lt.LastPurchase = &created
		}
	}

	for i := range customers {
		c := &customers[i]
		key := recordKey(c)
		if key == "" {
			continue
		}
		if _, ok := byKey[key]; !ok {
			byKey[key] = newLifetime(key, c)
		}
	}

	result := make([]entity.CustomerLifetime, 0, len(byKey))
	for _, lt := range byKey {
		if lt.Name == "" {
			lt.Name = format.Unknown
		}
		lt.AvgOrderValue = avg(lt.TotalSpent, lt.Orders)
		lt.Status = CustomerStatusAt(lt.LastPurchase, asOf)
		result = append(result, *lt)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TotalSpent.Equal(result[j].TotalSpent) {
			return result[i].TotalSpent.GreaterThan(result[j].TotalSpent)
		}
		return result[i].CustomerKey < result[j].CustomerKey
	})
	return result
}

// CustomerSegments buckets lifetimes into the four value segments. Every
// segment is present in the output, empty ones included.
func CustomerSegments(lifetimes []entity.CustomerLifetime) []entity.SegmentMetric {
	bySeg := make(map[entity.Segment]*entity.SegmentMetric)
	for _, s := range Segments() {
		bySeg[s] = &entity.SegmentMetric{Segment: s, Revenue: decimal.Zero}
	}
	for i := range lifetimes {
		lt := &lifetimes[i]
		m := bySeg[SegmentOf(lt.Orders, lt.TotalSpent)]
		m.Customers++
		m.Revenue = m.Revenue.Add(lt.TotalSpent)
	}
	result := make([]entity.SegmentMetric, 0, len(bySeg))
	for _, s := range Segments() {
		m := *bySeg[s]
		m.SharePct = format.RatioInt(m.Customers, len(lifetimes))
		result = append(result, m)
	}
	return result
}

func newLifetime(key string, rec *entity.Customer) *entity.CustomerLifetime {
	lt := &entity.CustomerLifetime{CustomerKey: key, TotalSpent: decimal.Zero}
	if rec == nil {
		return lt
	}
	lt.Name = rec.DisplayName()
	lt.Email = rec.Email
	if !rec.CreatedAt.IsZero() {
		t := rec.CreatedAt
		lt.SignedUpAt = &t
	}
	return lt
}

// SegmentIndex maps customer keys to their value segment.
func SegmentIndex(lifetimes []entity.CustomerLifetime) map[string]entity.Segment {
	idx := make(map[string]entity.Segment, len(lifetimes))
	for i := range lifetimes {
		idx[lifetimes[i].CustomerKey] = SegmentOf(lifetimes[i].Orders, lifetimes[i].TotalSpent)
	}
	return idx
}

// AcquisitionCohorts counts customers by signup month, ascending. Customers
// without a signup time are not counted.
func AcquisitionCohorts(customers []entity.Customer, loc *time.Location) []entity.CohortMetric {
	byMonth := make(map[string]*entity.CohortMetric)
	for i := range customers {
		c := &customers[i]
		key := CohortKey(c, loc)
		if key == "" {
			continue
		}
		m, ok := byMonth[key]
		if !ok {
			t := c.CreatedAt.In(loc)
			m = &entity.CohortMetric{
				Month: key,
				Start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc),
			}
			byMonth[key] = m
		}
		m.Customers++
	}

	result := make([]entity.CohortMetric, 0, len(byMonth))
	for _, m := range byMonth {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})
	running := 0
	for i := range result {
		running += result[i].Customers
		result[i].Cumulative = running
	}
	return result
}

// CohortKeys returns the function mapping an order to the signup month of
// its registered buyer, empty for unknown buyers.
func CohortKeys(customers []entity.Customer, loc *time.Location) func(*entity.Order) string {
	dir := newCustomerDirectory(customers)
	return func(o *entity.Order) string {
		c, ok := dir.lookup(o)
		if !ok {
			return ""
		}
		return CohortKey(c, loc)
	}
}
