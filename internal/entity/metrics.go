package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricsGranularity controls time bucket size for time series (day, week, month).
type MetricsGranularity int

const (
	MetricsGranularityDay   MetricsGranularity = 1
	MetricsGranularityWeek  MetricsGranularity = 2
	MetricsGranularityMonth MetricsGranularity = 3
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls into the range, both ends inclusive.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.From) && !t.After(tr.To)
}

// Summary holds the headline scalars of a report.
type Summary struct {
	Orders        int             `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	UnitsSold     int             `json:"unitsSold"`
	Customers     int             `json:"customers"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}

// SalesTrendPoint is one calendar day of the sales trend.
type SalesTrendPoint struct {
	Date    time.Time       `json:"date"`
	Day     string          `json:"day"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategorySales struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Units    int             `json:"units"`
}

type CustomerTypeStats struct {
	Type      CustomerType    `json:"type"`
	Orders    int             `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	Customers int             `json:"customers"`
}

// ProductMetric is a product ranked by revenue; SharePct is relative to the
// ranked set it belongs to.
type ProductMetric struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
	SharePct  float64         `json:"sharePct"`
}

// PaymentMethodMetric aggregates orders by payment method (cash, card, transfer, etc.)
type PaymentMethodMetric struct {
	Method      string          `json:"method"`
	Orders      int             `json:"orders"`
	Successful  int             `json:"successful"`
	Revenue     decimal.Decimal `json:"revenue"`
	SuccessRate float64         `json:"successRate"`
}

type ClassTotal struct {
	Class    StatusClass     `json:"class"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
	SharePct float64         `json:"sharePct"`
}

// PaymentSuccessOverview splits orders into success, failed and pending, in that order.
type PaymentSuccessOverview struct {
	Classes     []ClassTotal `json:"classes"`
	SuccessRate float64      `json:"successRate"`
}

type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
	TimeSlotNight     TimeSlot = "night"
)

type TimeSlotMetric struct {
	Slot       TimeSlot        `json:"slot"`
	StartHour  int             `json:"startHour"`
	EndHour    int             `json:"endHour"`
	Orders     int             `json:"orders"`
	Successful int             `json:"successful"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ProductPerformance carries measured sales next to estimated funnel and
// profit figures. Views, ConversionPct and EstimatedProfit are derived from
// configured assumptions, not from tracked data.
type ProductPerformance struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Active          bool            `json:"active"`
	Stock           int             `json:"stock"`
	Units           int             `json:"units"`
	Revenue         decimal.Decimal `json:"revenue"`
	Views           int             `json:"views"`
	ConversionPct   float64         `json:"conversionPct"`
	EstimatedProfit decimal.Decimal `json:"estimatedProfit"`
	Estimated       bool            `json:"estimated"`
}

type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "Active"
	CustomerStatusAtRisk   CustomerStatus = "At Risk"
	CustomerStatusInactive CustomerStatus = "Inactive"
)

type CustomerLifetime struct {
	CustomerKey   string          `json:"customerKey"`
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Orders        int             `json:"orders"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	FirstPurchase *time.Time      `json:"firstPurchase,omitempty"`
	LastPurchase  *time.Time      `json:"lastPurchase,omitempty"`
	Status        CustomerStatus  `json:"status"`
	SignedUpAt    *time.Time      `json:"signedUpAt,omitempty"`
}

type Segment string

const (
	SegmentHigh        Segment = "High Value"
	SegmentMedium      Segment = "Medium Value"
	SegmentLow         Segment = "Low Value"
	SegmentNewInactive Segment = "New/Inactive"
)

type SegmentMetric struct {
	Segment   Segment         `json:"segment"`
	Customers int             `json:"customers"`
	Revenue   decimal.Decimal `json:"revenue"`
	SharePct  float64         `json:"sharePct"`
}

// CohortMetric counts customers by signup month ("2006-01").
type CohortMetric struct {
	Month      string    `json:"month"`
	Start      time.Time `json:"start"`
	Customers  int       `json:"customers"`
	Cumulative int       `json:"cumulative"`
}

type AOVPoint struct {
	Date          time.Time       `json:"date"`
	Orders        int             `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}

type CLVEstimate struct {
	CustomerKey   string          `json:"customerKey"`
	Name          string          `json:"name"`
	Orders        int             `json:"orders"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	Projected     decimal.Decimal `json:"projected"`
}

// CLVProjection is an illustrative projection, see Estimated.
type CLVProjection struct {
	Customers            int             `json:"customers"`
	AvgOrderValue        decimal.Decimal `json:"avgOrderValue"`
	AvgOrdersPerCustomer float64         `json:"avgOrdersPerCustomer"`
	AvgProjected         decimal.Decimal `json:"avgProjected"`
	Top                  []CLVEstimate   `json:"top"`
	Estimated            bool            `json:"estimated"`
}

type RetentionMetric struct {
	Customers       int     `json:"customers"`
	RepeatCustomers int     `json:"repeatCustomers"`
	RetentionPct    float64 `json:"retentionPct"`
	Active          int     `json:"active"`
	AtRisk          int     `json:"atRisk"`
	Inactive        int     `json:"inactive"`
}

// Profitability applies a fixed cost ratio to measured revenue.
type Profitability struct {
	Revenue        decimal.Decimal `json:"revenue"`
	DeliveryFees   decimal.Decimal `json:"deliveryFees"`
	COGS           decimal.Decimal `json:"cogs"`
	GrossProfit    decimal.Decimal `json:"grossProfit"`
	GrossMarginPct float64         `json:"grossMarginPct"`
	Estimated      bool            `json:"estimated"`
}

type CategoryProfit struct {
	Category    string          `json:"category"`
	Revenue     decimal.Decimal `json:"revenue"`
	COGS        decimal.Decimal `json:"cogs"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	MarginPct   float64         `json:"marginPct"`
	Estimated   bool            `json:"estimated"`
}

type SeasonalPoint struct {
	Month         time.Month      `json:"month"`
	Name          string          `json:"name"`
	Season        string          `json:"season"`
	Orders        int             `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}

// Drilldown is the detail view of a single aggregate bucket.
type Drilldown struct {
	Kind          string          `json:"kind"`
	Key           string          `json:"key"`
	Orders        int             `json:"orders"`
	Units         int             `json:"units"`
	Customers     int             `json:"customers"`
	Revenue       decimal.Decimal `json:"revenue"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	SharePct      float64         `json:"sharePct"`
	PreviousKey   string          `json:"previousKey,omitempty"`
	ChangePct     *float64        `json:"changePct,omitempty"`
	TopProducts   []ProductMetric `json:"topProducts"`
	OrderList     []Order         `json:"orderList"`
}
