package entity

import "strings"

// StatusClass is the outcome of an order as far as payment is concerned.
type StatusClass string

const (
	StatusSuccess StatusClass = "success"
	StatusFailed  StatusClass = "failed"
	StatusPending StatusClass = "pending"
)

// PaymentMethodCash is assumed for orders without a payment method.
const PaymentMethodCash = "cash"

var (
	successStatuses = map[string]struct{}{
		"delivered":  {},
		"completed":  {},
		"paid":       {},
		"success":    {},
		"successful": {},
	}
	failedStatuses = map[string]struct{}{
		"cancelled": {},
		"failed":    {},
		"declined":  {},
		"rejected":  {},
	}
)

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ClassifyStatus maps a single status value to a class. ok is false when the
// value matches neither the success nor the failure keywords.
func ClassifyStatus(s string) (StatusClass, bool) {
	s = normalizeStatus(s)
	if _, ok := successStatuses[s]; ok {
		return StatusSuccess, true
	}
	if _, ok := failedStatuses[s]; ok {
		return StatusFailed, true
	}
	return StatusPending, false
}

// ClassifyOrder checks the order status and then the payment status; the
// first field that matches a keyword decides. Anything else is pending.
func ClassifyOrder(o *Order) StatusClass {
	for _, s := range []string{o.OrderStatus, o.PaymentStatus} {
		if c, ok := ClassifyStatus(s); ok {
			return c
		}
	}
	return StatusPending
}

// IsCancelled reports whether the order status is "cancelled".
func IsCancelled(o *Order) bool {
	return normalizeStatus(o.OrderStatus) == "cancelled"
}

// PaymentMethodOf returns the normalized payment method, cash when absent.
func PaymentMethodOf(o *Order) string {
	m := normalizeStatus(o.PaymentMethod)
	if m == "" {
		return PaymentMethodCash
	}
	return m
}

// PaymentSucceeded is the per-method success rule: any order classified as
// success, plus cash orders that were not cancelled.
func PaymentSucceeded(o *Order) bool {
	if ClassifyOrder(o) == StatusSuccess {
		return true
	}
	return PaymentMethodOf(o) == PaymentMethodCash && !IsCancelled(o)
}

// PaymentStatusOf returns the normalized payment status.
func PaymentStatusOf(o *Order) string {
	return normalizeStatus(o.PaymentStatus)
}
