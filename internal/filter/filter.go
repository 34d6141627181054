// Package filter narrows the fetched order set according to the report type
// and the user's selections.
package filter

import (
	"strings"

	"github.com/jekabolt/farmgoods-reports/internal/calc"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
)

// Predicate selects orders.
type Predicate func(o *entity.Order) bool

// Predicates returns the predicates that apply to report type rt under sel.
// An empty result leaves the order set unchanged.
func Predicates(products []entity.Product, rt entity.ReportType, sel entity.Selection) []Predicate {
	var ps []Predicate
	switch rt {
	case entity.ReportTypeSales:
		if entity.IsSet(string(sel.CustomerType)) {
			want := entity.CustomerType(strings.ToLower(strings.TrimSpace(string(sel.CustomerType))))
			ps = append(ps, func(o *entity.Order) bool {
				return calc.CustomerTypeOf(o) == want
			})
		}
		if entity.IsSet(sel.Category) {
			ps = append(ps, categoryPredicate(products, sel.Category))
		}
	case entity.ReportTypePayment:
		if entity.IsSet(sel.PaymentStatus) {
			want := strings.ToLower(strings.TrimSpace(sel.PaymentStatus))
			ps = append(ps, func(o *entity.Order) bool {
				return entity.PaymentStatusOf(o) == want
			})
		}
	case entity.ReportTypeProduct:
		if entity.IsSet(sel.Category) {
			ps = append(ps, categoryPredicate(products, sel.Category))
		}
	}
	return ps
}

func categoryPredicate(products []entity.Product, category string) Predicate {
	idx := calc.IndexProducts(products)
	return func(o *entity.Order) bool {
		return calc.HasCategory(o, idx, category)
	}
}

// Apply returns the orders matching every predicate for rt and sel. The
// input slice is never modified; the result is always a fresh slice.
func Apply(orders []entity.Order, products []entity.Product, rt entity.ReportType, sel entity.Selection) []entity.Order {
	ps := Predicates(products, rt, sel)
	out := make([]entity.Order, 0, len(orders))
	for i := range orders {
		if matchAll(&orders[i], ps) {
			out = append(out, orders[i])
		}
	}
	return out
}

func matchAll(o *entity.Order, ps []Predicate) bool {
	for _, p := range ps {
		if !p(o) {
			return false
		}
	}
	return true
}
