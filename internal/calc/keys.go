package calc

import (
	"strings"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

// Bucket keys. Aggregations and drill-downs both select orders through these
// functions so that a bucket always contains the same orders in either view.

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"

	// GuestCustomer prefixes the key of orders that carry neither a customer
	// id nor an e-mail. Each such order counts as its own buyer.
	GuestCustomer = "guest"
)

// DayKey is the local calendar day of the order.
func DayKey(o *entity.Order, loc *time.Location) string {
	return o.CreatedAt.In(loc).Format(dayLayout)
}

// DayStart returns local midnight of t's day.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MonthKey formats the local month of t.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthLayout)
}

// ItemCategory resolves the display category of a line item. ok is false
// when the product is not in the catalog.
func ItemCategory(it *entity.OrderItem, idx ProductIndex) (string, bool) {
	p, ok := idx[it.ProductID]
	if !ok {
		return "", false
	}
	return format.Category(p.Category), true
}

// HasCategory reports whether any resolvable line item belongs to category.
// The comparison is made on display names.
func HasCategory(o *entity.Order, idx ProductIndex, category string) bool {
	want := format.Category(category)
	for i := range o.Items {
		if c, ok := ItemCategory(&o.Items[i], idx); ok && c == want {
			return true
		}
	}
	return false
}

// CustomerTypeOf classifies the order as bulk or regular.
func CustomerTypeOf(o *entity.Order) entity.CustomerType {
	if o.IsBulk() {
		return entity.CustomerTypeBulk
	}
	return entity.CustomerTypeRegular
}

// CustomerKey identifies the buyer of an order. Anonymous orders are keyed by
// order id.
func CustomerKey(o *entity.Order) string {
	if k := o.CustomerKey(); k != "" {
		return k
	}
	if o.ID == "" {
		return GuestCustomer
	}
	return GuestCustomer + ":" + o.ID
}

// ProductKey identifies the product of a line item, falling back to the
// item name for items without a product reference.
func ProductKey(it *entity.OrderItem) string {
	if it.ProductID != "" {
		return it.ProductID
	}
	if n := strings.TrimSpace(it.Name); n != "" {
		return "name:" + strings.ToLower(n)
	}
	return format.Unknown
}

// ContainsProduct reports whether any line item has the given product key.
func ContainsProduct(o *entity.Order, key string) bool {
	for i := range o.Items {
		if ProductKey(&o.Items[i]) == key {
			return true
		}
	}
	return false
}

type slotRange struct {
	slot       entity.TimeSlot
	start, end int
}

// timeSlots are half-open local hour ranges [start, end).
var timeSlots = []slotRange{
	{entity.TimeSlotMorning, 6, 12},
	{entity.TimeSlotAfternoon, 12, 18},
	{entity.TimeSlotEvening, 18, 24},
	{entity.TimeSlotNight, 0, 6},
}

// TimeSlotOf buckets the order by the local hour it was created at.
func TimeSlotOf(o *entity.Order, loc *time.Location) entity.TimeSlot {
	h := o.CreatedAt.In(loc).Hour()
	for _, s := range timeSlots {
		if h >= s.start && h < s.end {
			return s.slot
		}
	}
	return entity.TimeSlotNight
}

// TimeSlots lists the slots in display order.
func TimeSlots() []entity.TimeSlot {
	out := make([]entity.TimeSlot, 0, len(timeSlots))
	for _, s := range timeSlots {
		out = append(out, s.slot)
	}
	return out
}

var (
	highValueThreshold   = decimal.NewFromInt(1000)
	mediumValueThreshold = decimal.NewFromInt(500)
)

// SegmentOf assigns a customer to exactly one value segment.
func SegmentOf(orders int, spent decimal.Decimal) entity.Segment {
	switch {
	case orders == 0:
		return entity.SegmentNewInactive
	case spent.GreaterThan(highValueThreshold):
		return entity.SegmentHigh
	case spent.GreaterThanOrEqual(mediumValueThreshold):
		return entity.SegmentMedium
	default:
		return entity.SegmentLow
	}
}

// Segments lists the segments in display order.
func Segments() []entity.Segment {
	return []entity.Segment{
		entity.SegmentHigh,
		entity.SegmentMedium,
		entity.SegmentLow,
		entity.SegmentNewInactive,
	}
}

// CohortKey is the signup month of a customer, empty when unknown.
func CohortKey(c *entity.Customer, loc *time.Location) string {
	if c.CreatedAt.IsZero() {
		return ""
	}
	return MonthKey(c.CreatedAt, loc)
}
