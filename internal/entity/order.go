package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BulkUnitsThreshold is the number of units an order has to exceed to count as bulk.
const BulkUnitsThreshold = 10

type Address struct {
	Street     string `json:"street,omitempty" db:"street" dynamodbav:"street"`
	City       string `json:"city,omitempty" db:"city" dynamodbav:"city"`
	Region     string `json:"region,omitempty" db:"region" dynamodbav:"region"`
	PostalCode string `json:"postalCode,omitempty" db:"postal_code" dynamodbav:"postal_code"`
	Country    string `json:"country,omitempty" db:"country" dynamodbav:"country"`
}

// OrderItem is a single line of an order. ProductID may reference a product
// that no longer exists in the catalog.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns price * quantity.
func (oi *OrderItem) LineTotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// StatusChange is one entry of the order status history log.
type StatusChange struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Order is a snapshot of a customer order as read from the backing store.
// CustomerID and OrderStatus hold the canonical values, see
// CanonicalCustomerID and CanonicalOrderStatus.
type Order struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	CustomerID    string          `json:"customerId,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	OrderStatus   string          `json:"orderStatus,omitempty"`
	StatusHistory []StatusChange  `json:"statusHistory,omitempty"`
	Pickup        bool            `json:"pickup"`
	Address       *Address        `json:"address,omitempty"`
}

// Units returns the summed quantity of all line items.
func (o *Order) Units() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// IsBulk reports whether the order holds strictly more than BulkUnitsThreshold units.
func (o *Order) IsBulk() bool {
	return o.Units() > BulkUnitsThreshold
}

// CustomerKey identifies the buyer of the order, falling back to the
// e-mail address for orders without a customer reference.
func (o *Order) CustomerKey() string {
	if o.CustomerID != "" {
		return o.CustomerID
	}
	return strings.ToLower(strings.TrimSpace(o.CustomerEmail))
}

// CanonicalCustomerID picks the customer reference of an order. Older
// documents only carry userId; newer ones carry customerId.
func CanonicalCustomerID(customerID, userID string) string {
	if id := strings.TrimSpace(customerID); id != "" {
		return id
	}
	return strings.TrimSpace(userID)
}

// CanonicalOrderStatus picks the order status. Older documents only carry
// status; newer ones carry orderStatus.
func CanonicalOrderStatus(orderStatus, status string) string {
	if s := strings.TrimSpace(orderStatus); s != "" {
		return s
	}
	return strings.TrimSpace(status)
}
