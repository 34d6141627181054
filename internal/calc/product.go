package calc

import (
	"math"
	"sort"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

// ProductPerformance reports every catalog product, sold or not. Inactive
// products without sales are left out. Views, conversion and profit are
// estimated from the assumptions. Sorted by revenue descending.
func ProductPerformance(orders []entity.Order, products []entity.Product, a Assumptions) []entity.ProductPerformance {
	a = a.WithDefaults()

	type sold struct {
		units   int
		revenue decimal.Decimal
	}
	byID := make(map[string]*sold, len(products))
	for i := range products {
		byID[products[i].ID] = &sold{revenue: decimal.Zero}
	}
	for i := range orders {
		for j := range orders[i].Items {
			it := &orders[i].Items[j]
			s, ok := byID[it.ProductID]
			if !ok {
				continue
			}
			s.units += it.Quantity
			s.revenue = s.revenue.Add(it.LineTotal())
		}
	}

	result := make([]entity.ProductPerformance, 0, len(products))
	for i := range products {
		p := &products[i]
		s := byID[p.ID]
		if s.units == 0 && !p.IsActive() {
			continue
		}
		views := a.DefaultViews
		if s.units > 0 {
			views = int(math.Round(float64(s.units) / a.ViewConversion))
		}
		result = append(result, entity.ProductPerformance{
			ProductID:       p.ID,
			Name:            p.Name,
			Category:        format.Category(p.Category),
			Active:          p.IsActive(),
			Stock:           p.Stock,
			Units:           s.units,
			Revenue:         s.revenue,
			Views:           views,
			ConversionPct:   format.RatioInt(s.units, views),
			EstimatedProfit: ratioAmount(s.revenue, a.ProfitMargin),
			Estimated:       true,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Name < result[j].Name
	})
	return result
}
