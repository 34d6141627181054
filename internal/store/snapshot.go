package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID            string              `db:"id"`
	CreatedAt     time.Time           `db:"created_at"`
	CustomerID    sql.NullString      `db:"customer_id"`
	UserID        sql.NullString      `db:"user_id"`
	CustomerName  sql.NullString      `db:"customer_name"`
	CustomerEmail sql.NullString      `db:"customer_email"`
	Total         decimal.NullDecimal `db:"total"`
	Subtotal      decimal.NullDecimal `db:"subtotal"`
	DeliveryFee   decimal.NullDecimal `db:"delivery_fee"`
	PaymentMethod sql.NullString      `db:"payment_method"`
	PaymentStatus sql.NullString      `db:"payment_status"`
	OrderStatus   sql.NullString      `db:"order_status"`
	Status        sql.NullString      `db:"status"`
	Pickup        bool                `db:"pickup"`
	Street        sql.NullString      `db:"street"`
	City          sql.NullString      `db:"city"`
	Region        sql.NullString      `db:"region"`
	PostalCode    sql.NullString      `db:"postal_code"`
	Country       sql.NullString      `db:"country"`
}

type orderItemRow struct {
	OrderID   string              `db:"order_id"`
	ProductID string              `db:"product_id"`
	Name      string              `db:"name"`
	Price     decimal.NullDecimal `db:"price"`
	Quantity  int                 `db:"quantity"`
}

type statusChangeRow struct {
	OrderID   string         `db:"order_id"`
	Status    string         `db:"status"`
	ChangedAt time.Time      `db:"changed_at"`
	Actor     sql.NullString `db:"actor"`
	Note      sql.NullString `db:"note"`
}

type productRow struct {
	ID       string              `db:"id"`
	Name     string              `db:"name"`
	Category string              `db:"category"`
	Price    decimal.NullDecimal `db:"price"`
	Stock    int                 `db:"stock"`
	Status   sql.NullString      `db:"status"`
}

type customerRow struct {
	ID          string         `db:"id"`
	Name        sql.NullString `db:"name"`
	Email       sql.NullString `db:"email"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	LastLoginAt sql.NullTime   `db:"last_login_at"`
}

func decimalOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

func (r *orderRow) toEntity() entity.Order {
	o := entity.Order{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		CustomerID:    entity.CanonicalCustomerID(r.CustomerID.String, r.UserID.String),
		CustomerName:  r.CustomerName.String,
		CustomerEmail: r.CustomerEmail.String,
		Total:         decimalOrZero(r.Total),
		Subtotal:      decimalOrZero(r.Subtotal),
		DeliveryFee:   decimalOrZero(r.DeliveryFee),
		PaymentMethod: r.PaymentMethod.String,
		PaymentStatus: r.PaymentStatus.String,
		OrderStatus:   entity.CanonicalOrderStatus(r.OrderStatus.String, r.Status.String),
		Pickup:        r.Pickup,
		Items:         []entity.OrderItem{},
	}
	if r.Street.Valid || r.City.Valid || r.Country.Valid {
		o.Address = &entity.Address{
			Street:     r.Street.String,
			City:       r.City.String,
			Region:     r.Region.String,
			PostalCode: r.PostalCode.String,
			Country:    r.Country.String,
		}
	}
	return o
}

// Orders returns orders created within [from, to], newest first, with their
// line items and status history.
func (ms *MYSQLStore) Orders(ctx context.Context, from, to time.Time) ([]entity.Order, error) {
	query := `
	SELECT
		id, created_at, customer_id, user_id, customer_name, customer_email,
		total, subtotal, delivery_fee, payment_method, payment_status,
		order_status, status, pickup, street, city, region, postal_code, country
	FROM customer_order
	WHERE created_at BETWEEN :from AND :to
	ORDER BY created_at DESC, id`

	rows, err := QueryListNamed[orderRow](ctx, ms.db, query, map[string]any{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get orders: %w", err)
	}
	if len(rows) == 0 {
		return []entity.Order{}, nil
	}

	orderIds := make([]string, 0, len(rows))
	for _, r := range rows {
		orderIds = append(orderIds, r.ID)
	}

	items, err := ms.orderItems(ctx, orderIds)
	if err != nil {
		return nil, err
	}
	history, err := ms.statusHistory(ctx, orderIds)
	if err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(rows))
	for i := range rows {
		o := rows[i].toEntity()
		if its, ok := items[o.ID]; ok {
			o.Items = its
		}
		o.StatusHistory = history[o.ID]
		orders = append(orders, o)
	}
	return orders, nil
}

func (ms *MYSQLStore) orderItems(ctx context.Context, orderIds []string) (map[string][]entity.OrderItem, error) {
	query := `
	SELECT order_id, product_id, name, price, quantity
	FROM order_item
	WHERE order_id IN (:orderIds)
	ORDER BY id`

	rows, err := QueryListNamed[orderItemRow](ctx, ms.db, query, map[string]any{
		"orderIds": orderIds,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get order items: %w", err)
	}

	itemsByOrder := make(map[string][]entity.OrderItem, len(orderIds))
	for _, r := range rows {
		itemsByOrder[r.OrderID] = append(itemsByOrder[r.OrderID], entity.OrderItem{
			ProductID: r.ProductID,
			Name:      r.Name,
			Price:     decimalOrZero(r.Price),
			Quantity:  r.Quantity,
		})
	}
	return itemsByOrder, nil
}

func (ms *MYSQLStore) statusHistory(ctx context.Context, orderIds []string) (map[string][]entity.StatusChange, error) {
	query := `
	SELECT order_id, status, changed_at, actor, note
	FROM order_status_history
	WHERE order_id IN (:orderIds)
	ORDER BY changed_at, id`

	rows, err := QueryListNamed[statusChangeRow](ctx, ms.db, query, map[string]any{
		"orderIds": orderIds,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get order status history: %w", err)
	}

	history := make(map[string][]entity.StatusChange, len(orderIds))
	for _, r := range rows {
		history[r.OrderID] = append(history[r.OrderID], entity.StatusChange{
			Status: r.Status,
			At:     r.ChangedAt,
			Actor:  r.Actor.String,
			Note:   r.Note.String,
		})
	}
	return history, nil
}

// Products returns the full catalog.
func (ms *MYSQLStore) Products(ctx context.Context) ([]entity.Product, error) {
	query := `SELECT id, name, category, price, stock, status FROM product ORDER BY id`
	rows, err := QueryListNamed[productRow](ctx, ms.db, query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't get products: %w", err)
	}
	products := make([]entity.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, entity.Product{
			ID:       r.ID,
			Name:     r.Name,
			Category: r.Category,
			Price:    decimalOrZero(r.Price),
			Stock:    r.Stock,
			Status:   entity.ProductStatus(r.Status.String),
		})
	}
	return products, nil
}

// Customers returns every registered customer.
func (ms *MYSQLStore) Customers(ctx context.Context) ([]entity.Customer, error) {
	query := `SELECT id, name, email, created_at, last_login_at FROM customer ORDER BY id`
	rows, err := QueryListNamed[customerRow](ctx, ms.db, query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't get customers: %w", err)
	}
	customers := make([]entity.Customer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, entity.Customer{
			ID:          r.ID,
			Name:        r.Name.String,
			Email:       r.Email.String,
			CreatedAt:   timeOrZero(r.CreatedAt),
			LastLoginAt: timeOrZero(r.LastLoginAt),
		})
	}
	return customers, nil
}
