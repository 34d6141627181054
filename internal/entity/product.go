package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog entry. Category is free text entered by the admin.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Status   ProductStatus   `json:"status"`
}

// IsActive treats an absent status as active.
func (p *Product) IsActive() bool {
	return !strings.EqualFold(strings.TrimSpace(string(p.Status)), string(ProductStatusInactive))
}

// Customer is a registered shop user.
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// DisplayName returns the name, or the e-mail when no name was given.
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
