package calc

import (
	"sort"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

// The functions below produce illustrative business estimates. Cost and
// projection figures come from Assumptions and are flagged Estimated.

// clvTopN bounds the per-customer list of a CLV projection.
const clvTopN = 10

// AOVTrend reports average order value per time bucket over period. Empty
// buckets are filled with zeros so the series is continuous. A zero period
// is derived from the orders themselves.
func AOVTrend(orders []entity.Order, period entity.TimeRange, g entity.MetricsGranularity, loc *time.Location) []entity.AOVPoint {
	if g == 0 {
		g = entity.MetricsGranularityDay
	}
	if period.From.IsZero() || period.To.IsZero() {
		if len(orders) == 0 {
			return []entity.AOVPoint{}
		}
		period = orderSpan(orders)
	}

	byBucket := make(map[string]*entity.AOVPoint)
	for i := range orders {
		start := bucketStart(orders[i].CreatedAt.In(loc), g)
		key := start.Format(dayLayout)
		p, ok := byBucket[key]
		if !ok {
			p = &entity.AOVPoint{Date: start, Revenue: decimal.Zero}
			byBucket[key] = p
		}
		p.Orders++
		p.Revenue = p.Revenue.Add(orders[i].Total)
	}

	var result []entity.AOVPoint
	cur := bucketStart(period.From.In(loc), g)
	end := bucketStart(period.To.In(loc), g)
	for !cur.After(end) {
		key := cur.Format(dayLayout)
		if p, ok := byBucket[key]; ok {
			p.AvgOrderValue = avg(p.Revenue, p.Orders)
			result = append(result, *p)
		} else {
			result = append(result, entity.AOVPoint{Date: cur, Revenue: decimal.Zero, AvgOrderValue: decimal.Zero})
		}
		cur = bucketNext(cur, g)
	}
	return result
}

func orderSpan(orders []entity.Order) entity.TimeRange {
	tr := entity.TimeRange{From: orders[0].CreatedAt, To: orders[0].CreatedAt}
	for i := range orders {
		if orders[i].CreatedAt.Before(tr.From) {
			tr.From = orders[i].CreatedAt
		}
		if orders[i].CreatedAt.After(tr.To) {
			tr.To = orders[i].CreatedAt
		}
	}
	return tr
}

func bucketStart(t time.Time, g entity.MetricsGranularity) time.Time {
	loc := t.Location()
	switch g {
	case entity.MetricsGranularityWeek:
		// weeks start on Monday
		daysBack := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-daysBack, 0, 0, 0, 0, loc)
	case entity.MetricsGranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
}

func bucketNext(t time.Time, g entity.MetricsGranularity) time.Time {
	switch g {
	case entity.MetricsGranularityWeek:
		return t.AddDate(0, 0, 7)
	case entity.MetricsGranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// ChangePct is the relative change from previous to current in percent,
// nil when previous is zero.
func ChangePct(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		return nil
	}
	f, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return &f
}

// CLVProjection projects lifetime value per buyer as
// AOV * (orders / CLVPurchaseDivisor) * CLVMonths.
func CLVProjection(orders []entity.Order, customers []entity.Customer, a Assumptions) entity.CLVProjection {
	a = a.WithDefaults()
	keyOf := LifetimeKeys(customers)
	names := make(map[string]string)

	type acc struct {
		orders int
		spent  decimal.Decimal
	}
	byKey := make(map[string]*acc)
	for i := range orders {
		o := &orders[i]
		k := keyOf(o)
		c, ok := byKey[k]
		if !ok {
			c = &acc{spent: decimal.Zero}
			byKey[k] = c
		}
		c.orders++
		c.spent = c.spent.Add(o.Total)
		if o.CustomerName != "" {
			names[k] = o.CustomerName
		}
	}

	out := entity.CLVProjection{
		Customers:     len(byKey),
		AvgOrderValue: avg(Revenue(orders), len(orders)),
		AvgProjected:  decimal.Zero,
		Top:           []entity.CLVEstimate{},
		Estimated:     true,
	}
	if len(byKey) == 0 {
		return out
	}
	out.AvgOrdersPerCustomer = format.Round2(float64(len(orders)) / float64(len(byKey)))

	months := decimal.NewFromInt(int64(a.CLVMonths))
	divisor := decimal.NewFromFloat(a.CLVPurchaseDivisor)
	total := decimal.Zero
	estimates := make([]entity.CLVEstimate, 0, len(byKey))
	for k, c := range byKey {
		aov := avg(c.spent, c.orders)
		projected := aov.Mul(decimal.NewFromInt(int64(c.orders)).Div(divisor)).Mul(months).Round(2)
		total = total.Add(projected)
		name := names[k]
		if name == "" {
			name = k
		}
		estimates = append(estimates, entity.CLVEstimate{
			CustomerKey:   k,
			Name:          name,
			Orders:        c.orders,
			AvgOrderValue: aov,
			Projected:     projected,
		})
	}
	sort.Slice(estimates, func(i, j int) bool {
		if !estimates[i].Projected.Equal(estimates[j].Projected) {
			return estimates[i].Projected.GreaterThan(estimates[j].Projected)
		}
		return estimates[i].CustomerKey < estimates[j].CustomerKey
	})
	if len(estimates) > clvTopN {
		estimates = estimates[:clvTopN]
	}
	out.Top = estimates
	out.AvgProjected = avg(total, len(byKey))
	return out
}

// Retention counts buyers with more than one order among all buyers of the
// lifetimes, plus the activity status split.
func Retention(lifetimes []entity.CustomerLifetime) entity.RetentionMetric {
	var r entity.RetentionMetric
	for i := range lifetimes {
		lt := &lifetimes[i]
		if lt.Orders == 0 {
			continue
		}
		r.Customers++
		if lt.Orders > 1 {
			r.RepeatCustomers++
		}
		switch lt.Status {
		case entity.CustomerStatusActive:
			r.Active++
		case entity.CustomerStatusAtRisk:
			r.AtRisk++
		default:
			r.Inactive++
		}
	}
	r.RetentionPct = format.RatioInt(r.RepeatCustomers, r.Customers)
	return r
}

// Profitability estimates cost of goods as a fixed share of revenue and
// derives gross profit residually.
func Profitability(orders []entity.Order, a Assumptions) entity.Profitability {
	a = a.WithDefaults()
	p := entity.Profitability{
		Revenue:      Revenue(orders),
		DeliveryFees: decimal.Zero,
		Estimated:    true,
	}
	for i := range orders {
		p.DeliveryFees = p.DeliveryFees.Add(orders[i].DeliveryFee)
	}
	p.COGS = ratioAmount(p.Revenue, a.COGSRatio)
	p.GrossProfit = p.Revenue.Sub(p.COGS)
	p.GrossMarginPct = format.Ratio(p.GrossProfit, p.Revenue)
	return p
}

// CategoryProfitability applies the cost ratio per category on top of
// SalesByCategory.
func CategoryProfitability(orders []entity.Order, products []entity.Product, a Assumptions) []entity.CategoryProfit {
	a = a.WithDefaults()
	sales := SalesByCategory(orders, products)
	result := make([]entity.CategoryProfit, 0, len(sales))
	for _, s := range sales {
		cogs := ratioAmount(s.Revenue, a.COGSRatio)
		profit := s.Revenue.Sub(cogs)
		result = append(result, entity.CategoryProfit{
			Category:    s.Category,
			Revenue:     s.Revenue,
			COGS:        cogs,
			GrossProfit: profit,
			MarginPct:   format.Ratio(profit, s.Revenue),
			Estimated:   true,
		})
	}
	return result
}

// SeasonOf names the meteorological season of a month.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}

// SeasonalTrend folds orders onto the twelve calendar months regardless of
// year. All twelve months are returned, January first.
func SeasonalTrend(orders []entity.Order, loc *time.Location) []entity.SeasonalPoint {
	result := make([]entity.SeasonalPoint, 12)
	for m := time.January; m <= time.December; m++ {
		result[m-1] = entity.SeasonalPoint{
			Month:   m,
			Name:    m.String(),
			Season:  SeasonOf(m),
			Revenue: decimal.Zero,
		}
	}
	for i := range orders {
		p := &result[orders[i].CreatedAt.In(loc).Month()-1]
		p.Orders++
		p.Revenue = p.Revenue.Add(orders[i].Total)
	}
	for i := range result {
		result[i].AvgOrderValue = avg(result[i].Revenue, result[i].Orders)
	}
	return result
}
