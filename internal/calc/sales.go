package calc

import (
	"sort"
	"strings"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

// SalesTrend groups orders by local calendar day, ascending by date.
func SalesTrend(orders []entity.Order, loc *time.Location) []entity.SalesTrendPoint {
	byDay := make(map[string]*entity.SalesTrendPoint)
	for i := range orders {
		o := &orders[i]
		key := DayKey(o, loc)
		p, ok := byDay[key]
		if !ok {
			p = &entity.SalesTrendPoint{
				Date:    DayStart(o.CreatedAt, loc),
				Day:     key,
				Revenue: decimal.Zero,
			}
			byDay[key] = p
		}
		p.Orders++
		p.Revenue = p.Revenue.Add(o.Total)
	}

	result := make([]entity.SalesTrendPoint, 0, len(byDay))
	for _, p := range byDay {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day < result[j].Day
	})
	return result
}

// SalesByCategory attributes line item revenue to the category of the
// resolved product. Items whose product is not in the catalog are skipped.
// Sorted by revenue descending.
func SalesByCategory(orders []entity.Order, products []entity.Product) []entity.CategorySales {
	idx := IndexProducts(products)
	byCat := make(map[string]*entity.CategorySales)
	for i := range orders {
		for j := range orders[i].Items {
			it := &orders[i].Items[j]
			cat, ok := ItemCategory(it, idx)
			if !ok {
				continue
			}
			c, ok := byCat[cat]
			if !ok {
				c = &entity.CategorySales{Category: cat, Revenue: decimal.Zero}
				byCat[cat] = c
			}
			c.Revenue = c.Revenue.Add(it.LineTotal())
			c.Units += it.Quantity
		}
	}

	result := make([]entity.CategorySales, 0, len(byCat))
	for _, c := range byCat {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// CustomerTypes splits orders into bulk and regular, always in that order.
func CustomerTypes(orders []entity.Order) []entity.CustomerTypeStats {
	types := []entity.CustomerType{entity.CustomerTypeBulk, entity.CustomerTypeRegular}
	stats := make(map[entity.CustomerType]*entity.CustomerTypeStats, len(types))
	customers := make(map[entity.CustomerType]map[string]struct{}, len(types))
	for _, t := range types {
		stats[t] = &entity.CustomerTypeStats{Type: t, Revenue: decimal.Zero}
		customers[t] = make(map[string]struct{})
	}

	for i := range orders {
		o := &orders[i]
		t := CustomerTypeOf(o)
		stats[t].Orders++
		stats[t].Revenue = stats[t].Revenue.Add(o.Total)
		customers[t][CustomerKey(o)] = struct{}{}
	}

	result := make([]entity.CustomerTypeStats, 0, len(types))
	for _, t := range types {
		s := *stats[t]
		s.Customers = len(customers[t])
		result = append(result, s)
	}
	return result
}

// productAgg accumulates line items per product key.
type productAgg struct {
	key     string
	name    string
	units   int
	revenue decimal.Decimal
}

func aggregateProducts(orders []entity.Order, idx ProductIndex) []productAgg {
	byKey := make(map[string]*productAgg)
	for i := range orders {
		for j := range orders[i].Items {
			it := &orders[i].Items[j]
			key := ProductKey(it)
			a, ok := byKey[key]
			if !ok {
				a = &productAgg{key: key, name: productName(it, idx), revenue: decimal.Zero}
				byKey[key] = a
			}
			a.units += it.Quantity
			a.revenue = a.revenue.Add(it.LineTotal())
		}
	}
	result := make([]productAgg, 0, len(byKey))
	for _, a := range byKey {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].revenue.Equal(result[j].revenue) {
			return result[i].revenue.GreaterThan(result[j].revenue)
		}
		if result[i].name != result[j].name {
			return result[i].name < result[j].name
		}
		return result[i].key < result[j].key
	})
	return result
}

// productName prefers the catalog name, then the name stored on the item.
func productName(it *entity.OrderItem, idx ProductIndex) string {
	if p, ok := idx[it.ProductID]; ok && strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	if n := strings.TrimSpace(it.Name); n != "" {
		return n
	}
	return format.Unknown
}

// TopProducts ranks products by line item revenue and keeps the first n
// (DefaultTopN when n <= 0). SharePct is each product's share of the revenue
// of the returned set.
func TopProducts(orders []entity.Order, products []entity.Product, n int) []entity.ProductMetric {
	if n <= 0 {
		n = DefaultTopN
	}
	aggs := aggregateProducts(orders, IndexProducts(products))
	if len(aggs) > n {
		aggs = aggs[:n]
	}
	total := decimal.Zero
	for _, a := range aggs {
		total = total.Add(a.revenue)
	}
	result := make([]entity.ProductMetric, 0, len(aggs))
	for _, a := range aggs {
		result = append(result, entity.ProductMetric{
			ProductID: a.key,
			Name:      a.name,
			Units:     a.units,
			Revenue:   a.revenue,
			SharePct:  format.Ratio(a.revenue, total),
		})
	}
	return result
}
