// Package calc reduces order, product and customer snapshots into the
// aggregate views of a report. Every function is pure: inputs are never
// mutated and equal inputs give equal outputs.
package calc

import (
	"sort"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the length of the top products list when none is requested.
const DefaultTopN = 10

// Assumptions are the placeholder business ratios behind the estimated
// figures. None of them is backed by cost or traffic data.
type Assumptions struct {
	// ProfitMargin is applied to product revenue for estimated profit.
	ProfitMargin float64 `mapstructure:"profit_margin"`
	// COGSRatio is the share of revenue treated as cost of goods sold.
	COGSRatio float64 `mapstructure:"cogs_ratio"`
	// ViewConversion turns sold units into estimated product views.
	ViewConversion float64 `mapstructure:"view_conversion"`
	// DefaultViews is used for products that sold nothing.
	DefaultViews int `mapstructure:"default_views"`
	// CLVPurchaseDivisor and CLVMonths shape the lifetime value projection:
	// AOV * (orders / divisor) * months.
	CLVPurchaseDivisor float64 `mapstructure:"clv_purchase_divisor"`
	CLVMonths          int     `mapstructure:"clv_months"`
}

func DefaultAssumptions() Assumptions {
	return Assumptions{
		ProfitMargin:       0.4,
		COGSRatio:          0.6,
		ViewConversion:     0.05,
		DefaultViews:       100,
		CLVPurchaseDivisor: 3,
		CLVMonths:          12,
	}
}

// WithDefaults fills zero fields from DefaultAssumptions.
func (a Assumptions) WithDefaults() Assumptions {
	d := DefaultAssumptions()
	if a.ProfitMargin <= 0 {
		a.ProfitMargin = d.ProfitMargin
	}
	if a.COGSRatio <= 0 {
		a.COGSRatio = d.COGSRatio
	}
	if a.ViewConversion <= 0 {
		a.ViewConversion = d.ViewConversion
	}
	if a.DefaultViews <= 0 {
		a.DefaultViews = d.DefaultViews
	}
	if a.CLVPurchaseDivisor <= 0 {
		a.CLVPurchaseDivisor = d.CLVPurchaseDivisor
	}
	if a.CLVMonths <= 0 {
		a.CLVMonths = d.CLVMonths
	}
	return a
}

// ProductIndex maps product ids to catalog entries.
type ProductIndex map[string]*entity.Product

func IndexProducts(products []entity.Product) ProductIndex {
	idx := make(ProductIndex, len(products))
	for i := range products {
		idx[products[i].ID] = &products[i]
	}
	return idx
}

// Revenue sums order totals.
func Revenue(orders []entity.Order) decimal.Decimal {
	sum := decimal.Zero
	for i := range orders {
		sum = sum.Add(orders[i].Total)
	}
	return sum
}

// Summary computes the headline scalars of a report.
func Summary(orders []entity.Order) entity.Summary {
	s := entity.Summary{
		Orders:  len(orders),
		Revenue: Revenue(orders),
	}
	customers := make(map[string]struct{})
	for i := range orders {
		s.UnitsSold += orders[i].Units()
		customers[CustomerKey(&orders[i])] = struct{}{}
	}
	s.Customers = len(customers)
	s.AvgOrderValue = avg(s.Revenue, s.Orders)
	return s
}

func avg(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func ratioAmount(d decimal.Decimal, r float64) decimal.Decimal {
	return d.Mul(decimal.NewFromFloat(r)).Round(2)
}

// NewestFirst sorts a copy of orders by creation time descending, id breaking ties.
func NewestFirst(orders []entity.Order) []entity.Order {
	out := make([]entity.Order, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
