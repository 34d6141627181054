package calc

import (
	"sort"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/jekabolt/farmgoods-reports/internal/format"
	"github.com/shopspring/decimal"
)

// PaymentMethods groups orders by payment method, sorted by order count
// descending. Success follows entity.PaymentSucceeded.
func PaymentMethods(orders []entity.Order) []entity.PaymentMethodMetric {
	byMethod := make(map[string]*entity.PaymentMethodMetric)
	for i := range orders {
		o := &orders[i]
		m := entity.PaymentMethodOf(o)
		pm, ok := byMethod[m]
		if !ok {
			pm = &entity.PaymentMethodMetric{Method: m, Revenue: decimal.Zero}
			byMethod[m] = pm
		}
		pm.Orders++
		pm.Revenue = pm.Revenue.Add(o.Total)
		if entity.PaymentSucceeded(o) {
			pm.Successful++
		}
	}

	result := make([]entity.PaymentMethodMetric, 0, len(byMethod))
	for _, pm := range byMethod {
		pm.SuccessRate = format.RatioInt(pm.Successful, pm.Orders)
		result = append(result, *pm)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Orders != result[j].Orders {
			return result[i].Orders > result[j].Orders
		}
		return result[i].Method < result[j].Method
	})
	return result
}

// StatusClasses lists the classes in display order.
func StatusClasses() []entity.StatusClass {
	return []entity.StatusClass{entity.StatusSuccess, entity.StatusFailed, entity.StatusPending}
}

// PaymentSuccess classifies every order with entity.ClassifyOrder.
func PaymentSuccess(orders []entity.Order) entity.PaymentSuccessOverview {
	totals := make(map[entity.StatusClass]*entity.ClassTotal)
	for _, c := range StatusClasses() {
		totals[c] = &entity.ClassTotal{Class: c, Revenue: decimal.Zero}
	}
	for i := range orders {
		c := totals[entity.ClassifyOrder(&orders[i])]
		c.Orders++
		c.Revenue = c.Revenue.Add(orders[i].Total)
	}

	ov := entity.PaymentSuccessOverview{
		Classes:     make([]entity.ClassTotal, 0, len(totals)),
		SuccessRate: format.RatioInt(totals[entity.StatusSuccess].Orders, len(orders)),
	}
	for _, c := range StatusClasses() {
		ct := *totals[c]
		ct.SharePct = format.RatioInt(ct.Orders, len(orders))
		ov.Classes = append(ov.Classes, ct)
	}
	return ov
}

// PaymentsByTimeOfDay buckets orders into the four fixed local hour ranges.
// All four slots are returned, empty ones included. Success follows
// entity.PaymentSucceeded as in PaymentMethods.
func PaymentsByTimeOfDay(orders []entity.Order, loc *time.Location) []entity.TimeSlotMetric {
	bySlot := make(map[entity.TimeSlot]*entity.TimeSlotMetric, len(timeSlots))
	result := make([]entity.TimeSlotMetric, len(timeSlots))
	for i, s := range timeSlots {
		result[i] = entity.TimeSlotMetric{
			Slot:      s.slot,
			StartHour: s.start,
			EndHour:   s.end,
			Revenue:   decimal.Zero,
		}
		bySlot[s.slot] = &result[i]
	}
	for i := range orders {
		o := &orders[i]
		m := bySlot[TimeSlotOf(o, loc)]
		m.Orders++
		m.Revenue = m.Revenue.Add(o.Total)
		if entity.PaymentSucceeded(o) {
			m.Successful++
		}
	}
	return result
}
