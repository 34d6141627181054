package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyOrder(t *testing.T) {
	tests := []struct {
		name          string
		orderStatus   string
		paymentStatus string
		want          StatusClass
	}{
		{"delivered", "delivered", "", StatusSuccess},
		{"payment paid", "confirmed", "paid", StatusSuccess},
		{"case and spaces", " Completed ", "", StatusSuccess},
		{"order status wins", "cancelled", "paid", StatusFailed},
		{"declined payment", "processing", "declined", StatusFailed},
		{"unknown keywords", "confirmed", "awaiting", StatusPending},
		{"empty", "", "", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{OrderStatus: tt.orderStatus, PaymentStatus: tt.paymentStatus}
			assert.Equal(t, tt.want, ClassifyOrder(o))
		})
	}
}

func TestPaymentSucceeded(t *testing.T) {
	t.Run("absent method and confirmed is cash success", func(t *testing.T) {
		o := &Order{OrderStatus: "confirmed"}
		assert.Equal(t, PaymentMethodCash, PaymentMethodOf(o))
		assert.True(t, PaymentSucceeded(o))
	})
	t.Run("cancelled cash fails", func(t *testing.T) {
		o := &Order{PaymentMethod: "cash", OrderStatus: "cancelled"}
		assert.False(t, PaymentSucceeded(o))
	})
	t.Run("card needs success status", func(t *testing.T) {
		assert.False(t, PaymentSucceeded(&Order{PaymentMethod: "Card", OrderStatus: "confirmed"}))
		assert.True(t, PaymentSucceeded(&Order{PaymentMethod: "Card", PaymentStatus: "paid"}))
	})
}

func TestOrderUnits(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{ProductID: "p1", Price: decimal.NewFromInt(2), Quantity: 7},
		{ProductID: "p2", Price: decimal.NewFromInt(3), Quantity: 5},
	}}
	assert.Equal(t, 12, o.Units())
	assert.True(t, o.IsBulk())

	o.Items[1].Quantity = 3
	assert.Equal(t, 10, o.Units())
	assert.False(t, o.IsBulk())

	assert.True(t, decimal.NewFromInt(9).Equal(o.Items[1].LineTotal()))
}

func TestCanonicalFields(t *testing.T) {
	assert.Equal(t, "c1", CanonicalCustomerID("c1", "u1"))
	assert.Equal(t, "u1", CanonicalCustomerID(" ", "u1"))
	assert.Equal(t, "delivered", CanonicalOrderStatus("delivered", "pending"))
	assert.Equal(t, "pending", CanonicalOrderStatus("", "pending"))
}

func TestParseReportType(t *testing.T) {
	rt, ok := ParseReportType(" Sales ")
	assert.True(t, ok)
	assert.Equal(t, ReportTypeSales, rt)

	_, ok = ParseReportType("inventory")
	assert.False(t, ok)
}

func TestProductIsActive(t *testing.T) {
	assert.True(t, (&Product{}).IsActive())
	assert.True(t, (&Product{Status: ProductStatusActive}).IsActive())
	assert.False(t, (&Product{Status: "Inactive"}).IsActive())
}
