package entity

import (
	"strings"
	"time"
)

type ReportType string

const (
	ReportTypeSales    ReportType = "sales"
	ReportTypePayment  ReportType = "payment"
	ReportTypeProduct  ReportType = "product"
	ReportTypeCustomer ReportType = "customer"
)

var reportTypes = map[ReportType]struct{}{
	ReportTypeSales:    {},
	ReportTypePayment:  {},
	ReportTypeProduct:  {},
	ReportTypeCustomer: {},
}

// ParseReportType returns false for anything but the four known types.
func ParseReportType(s string) (ReportType, bool) {
	rt := ReportType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := reportTypes[rt]
	return rt, ok
}

type CustomerType string

const (
	CustomerTypeAll     CustomerType = "all"
	CustomerTypeBulk    CustomerType = "bulk"
	CustomerTypeRegular CustomerType = "regular"
)

// SelectAll disables a selection.
const SelectAll = "all"

// Selection holds the type specific filter selections. Empty values and
// SelectAll leave the order set unchanged.
type Selection struct {
	Category      string       `json:"category,omitempty"`
	CustomerType  CustomerType `json:"customerType,omitempty"`
	PaymentStatus string       `json:"paymentStatus,omitempty"`
}

// IsSet reports whether v narrows the order set.
func IsSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, SelectAll)
}

// ReportContext is the snapshot a report was computed from. Orders holds the
// filtered set; AllOrders holds every order fetched for the period.
type ReportContext struct {
	Type        ReportType
	Period      TimeRange
	Granularity MetricsGranularity
	Location    *time.Location
	AsOf        time.Time
	Selection   Selection
	AllOrders   []Order
	Orders      []Order
	Products    []Product
	Customers   []Customer
}

// Loc returns the location used for calendar boundaries.
func (rc *ReportContext) Loc() *time.Location {
	if rc.Location == nil {
		return time.Local
	}
	return rc.Location
}

// Notice is a non-fatal problem surfaced to the user, e.g. a failed fetch.
type Notice struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Report is the complete output of one generation cycle. Sections not
// relevant to Type stay empty.
type Report struct {
	Type        ReportType         `json:"type"`
	Period      TimeRange          `json:"period"`
	Granularity MetricsGranularity `json:"granularity"`
	Selection   Selection          `json:"selection"`
	Generation  uint64             `json:"generation"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Summary     Summary            `json:"summary"`
	Notices     []Notice           `json:"notices,omitempty"`

	SalesTrend     []SalesTrendPoint       `json:"salesTrend,omitempty"`
	Categories     []CategorySales         `json:"categories,omitempty"`
	CustomerTypes  []CustomerTypeStats     `json:"customerTypes,omitempty"`
	TopProducts    []ProductMetric         `json:"topProducts,omitempty"`
	PaymentMethods []PaymentMethodMetric   `json:"paymentMethods,omitempty"`
	PaymentSuccess *PaymentSuccessOverview `json:"paymentSuccess,omitempty"`
	TimeSlots      []TimeSlotMetric        `json:"timeSlots,omitempty"`
	Products       []ProductPerformance    `json:"products,omitempty"`
	Lifetimes      []CustomerLifetime      `json:"lifetimes,omitempty"`
	Segments       []SegmentMetric         `json:"segments,omitempty"`
	Cohorts        []CohortMetric          `json:"cohorts,omitempty"`

	AOVTrend       []AOVPoint       `json:"aovTrend,omitempty"`
	CLV            *CLVProjection   `json:"clv,omitempty"`
	Retention      *RetentionMetric `json:"retention,omitempty"`
	Profitability  *Profitability   `json:"profitability,omitempty"`
	CategoryProfit []CategoryProfit `json:"categoryProfit,omitempty"`
	Seasonal       []SeasonalPoint  `json:"seasonal,omitempty"`
}
