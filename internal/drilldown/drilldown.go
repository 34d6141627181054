// Package drilldown recomputes a single aggregate bucket of a report from the
// report context. Buckets are selected with the key functions of package calc,
// the same ones the aggregations use.
package drilldown

import (
	"fmt"
	"math"
	"strings"

	"github.com/jekabolt/farmgoods-reports/internal/calc"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDay           Kind = "day"
	KindCategory      Kind = "category"
	KindCustomerType  Kind = "customer_type"
	KindPaymentMethod Kind = "payment_method"
	KindPaymentClass  Kind = "payment_class"
	KindTimeSlot      Kind = "time_slot"
	KindProduct       Kind = "product"
	KindSegment       Kind = "segment"
	KindCohort        Kind = "cohort"
)

// DefaultTopProducts is the length of the top products list of a drilldown.
const DefaultTopProducts = 5

// Kinds lists every supported bucket kind.
func Kinds() []Kind {
	return []Kind{
		KindDay, KindCategory, KindCustomerType, KindPaymentMethod,
		KindPaymentClass, KindTimeSlot, KindProduct, KindSegment, KindCohort,
	}
}

// ParseKind validates a bucket kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", gerr.ErrUnknownDrilldown, s)
}

// bucketing is the ordered list of bucket keys as the aggregation emits them
// and the predicate selecting the orders of one key.
type bucketing struct {
	keys  []string
	match func(o *entity.Order, key string) bool
	// item is set for buckets built from line items. Revenue and units of
	// such a bucket only count the matching lines.
	item func(it *entity.OrderItem, key string) bool
	// normalize maps user input onto the key space.
	normalize func(key string) string
}

func bucketsFor(rc *entity.ReportContext, kind Kind) (bucketing, error) {
	loc := rc.Loc()
	orders := rc.Orders
	same := func(s string) string { return s }
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	switch kind {
	case KindDay:
		trend := calc.SalesTrend(orders, loc)
		keys := make([]string, 0, len(trend))
		for _, p := range trend {
			keys = append(keys, p.Day)
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return calc.DayKey(o, loc) == key },
			normalize: strings.TrimSpace,
		}, nil

	case KindCategory:
		idx := calc.IndexProducts(rc.Products)
		cats := calc.SalesByCategory(orders, rc.Products)
		keys := make([]string, 0, len(cats))
		for _, c := range cats {
			keys = append(keys, c.Category)
		}
		return bucketing{
			keys:  keys,
			match: func(o *entity.Order, key string) bool { return calc.HasCategory(o, idx, key) },
			item: func(it *entity.OrderItem, key string) bool {
				c, ok := calc.ItemCategory(it, idx)
				return ok && c == key
			},
			normalize: format.Category,
		}, nil

	case KindCustomerType:
		keys := []string{}
		for _, s := range calc.CustomerTypes(orders) {
			keys = append(keys, string(s.Type))
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return string(calc.CustomerTypeOf(o)) == key },
			normalize: lower,
		}, nil

	case KindPaymentMethod:
		keys := []string{}
		for _, m := range calc.PaymentMethods(orders) {
			keys = append(keys, m.Method)
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return entity.PaymentMethodOf(o) == key },
			normalize: lower,
		}, nil

	case KindPaymentClass:
		keys := []string{}
		for _, c := range calc.StatusClasses() {
			keys = append(keys, string(c))
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return string(entity.ClassifyOrder(o)) == key },
			normalize: lower,
		}, nil

	case KindTimeSlot:
		keys := []string{}
		for _, s := range calc.TimeSlots() {
			keys = append(keys, string(s))
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return string(calc.TimeSlotOf(o, loc)) == key },
			normalize: lower,
		}, nil

	case KindProduct:
		keys := []string{}
		for _, p := range calc.TopProducts(orders, rc.Products, math.MaxInt) {
			keys = append(keys, p.ProductID)
		}
		return bucketing{
			keys:      keys,
			match:     calc.ContainsProduct,
			item:      func(it *entity.OrderItem, key string) bool { return calc.ProductKey(it) == key },
			normalize: same,
		}, nil

	case KindSegment:
		lifetimes := calc.CustomerLifetimes(orders, rc.Customers, rc.AsOf)
		segOf := calc.SegmentIndex(lifetimes)
		keyOf := calc.LifetimeKeys(rc.Customers)
		keys := []string{}
		for _, s := range calc.Segments() {
			keys = append(keys, string(s))
		}
		return bucketing{
			keys: keys,
			match: func(o *entity.Order, key string) bool {
				return string(segOf[keyOf(o)]) == key
			},
			normalize: segmentName,
		}, nil

	case KindCohort:
		cohortOf := calc.CohortKeys(rc.Customers, loc)
		keys := []string{}
		for _, c := range calc.AcquisitionCohorts(rc.Customers, loc) {
			keys = append(keys, c.Month)
		}
		return bucketing{
			keys:      keys,
			match:     func(o *entity.Order, key string) bool { return cohortOf(o) == key },
			normalize: strings.TrimSpace,
		}, nil
	}
	return bucketing{}, fmt.Errorf("%w: %q", gerr.ErrUnknownDrilldown, kind)
}

// segmentName accepts segment names case-insensitively.
func segmentName(key string) string {
	key = strings.TrimSpace(key)
	for _, s := range calc.Segments() {
		if strings.EqualFold(string(s), key) {
			return string(s)
		}
	}
	return key
}

// Compute builds the drilldown of one bucket. Revenue share is relative to
// all orders of the context; change is relative to the bucket preceding key
// in the aggregation's output order. Category and product buckets count only
// their own line items and take their share of all line item revenue.
func Compute(rc *entity.ReportContext, kind Kind, key string, topN int) (*entity.Drilldown, error) {
	if topN <= 0 {
		topN = DefaultTopProducts
	}
	b, err := bucketsFor(rc, kind)
	if err != nil {
		return nil, err
	}
	key = b.normalize(key)
	pos := -1
	for i, k := range b.keys {
		if k == key {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s %q", gerr.ErrBucketNotFound, kind, key)
	}

	selected, scoped := selectOrders(rc.Orders, b, key)
	summary := calc.Summary(scoped)
	total := calc.Revenue(rc.Orders)
	if b.item != nil {
		total = lineRevenue(rc.Orders)
	}

	d := &entity.Drilldown{
		Kind:          string(kind),
		Key:           key,
		Orders:        summary.Orders,
		Units:         summary.UnitsSold,
		Customers:     summary.Customers,
		Revenue:       summary.Revenue,
		AvgOrderValue: summary.AvgOrderValue,
		SharePct:      format.Ratio(summary.Revenue, total),
		TopProducts:   calc.TopProducts(scoped, rc.Products, topN),
		OrderList:     calc.NewestFirst(selected),
	}
	if pos > 0 {
		d.PreviousKey = b.keys[pos-1]
		_, prev := selectOrders(rc.Orders, b, d.PreviousKey)
		d.ChangePct = calc.ChangePct(summary.Revenue, calc.Revenue(prev))
	}
	return d, nil
}

// selectOrders returns the orders of a bucket and the same orders reduced to
// the bucket's line items. Both are equal for order-level buckets.
func selectOrders(orders []entity.Order, b bucketing, key string) (selected, scoped []entity.Order) {
	selected = []entity.Order{}
	for i := range orders {
		if b.match(&orders[i], key) {
			selected = append(selected, orders[i])
		}
	}
	if b.item == nil {
		return selected, selected
	}
	scoped = make([]entity.Order, 0, len(selected))
	for _, o := range selected {
		items := make([]entity.OrderItem, 0, len(o.Items))
		for j := range o.Items {
			if b.item(&o.Items[j], key) {
				items = append(items, o.Items[j])
			}
		}
		o.Items = items
		o.Total = lineRevenue([]entity.Order{o})
		scoped = append(scoped, o)
	}
	return selected, scoped
}

func lineRevenue(orders []entity.Order) decimal.Decimal {
	sum := decimal.Zero
	for i := range orders {
		for j := range orders[i].Items {
			sum = sum.Add(orders[i].Items[j].LineTotal())
		}
	}
	return sum
}
