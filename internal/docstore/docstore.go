// Package docstore reads report snapshots from DynamoDB tables. Orders are
// stored as documents with embedded line items and status history.
package docstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
	"github.com/shopspring/decimal"
)

type Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	OrdersTable     string `mapstructure:"orders_table"`
	ProductsTable   string `mapstructure:"products_table"`
	CustomersTable  string `mapstructure:"customers_table"`
}

const (
	defaultRegion         = "us-east-1"
	defaultOrdersTable    = "orders"
	defaultProductsTable  = "products"
	defaultCustomersTable = "customers"
)

type Store struct {
	ddb dynamodb.ScanAPIClient
	cfg Config
}

var _ dependency.Snapshots = (*Store)(nil)

// New builds a DynamoDB client from cfg. Static credentials are used when
// set, otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("can't load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing scan client.
func NewWithClient(client dynamodb.ScanAPIClient, cfg Config) *Store {
	if cfg.OrdersTable == "" {
		cfg.OrdersTable = defaultOrdersTable
	}
	if cfg.ProductsTable == "" {
		cfg.ProductsTable = defaultProductsTable
	}
	if cfg.CustomersTable == "" {
		cfg.CustomersTable = defaultCustomersTable
	}
	return &Store{ddb: client, cfg: cfg}
}

// Times are stored as unix milliseconds; zero means absent.
type orderItem struct {
	ID            string        `dynamodbav:"id"`
	CreatedAt     int64         `dynamodbav:"createdAt"`
	CustomerID    string        `dynamodbav:"customerId,omitempty"`
	UserID        string        `dynamodbav:"userId,omitempty"`
	CustomerName  string        `dynamodbav:"customerName,omitempty"`
	CustomerEmail string        `dynamodbav:"customerEmail,omitempty"`
	Items         []lineItem    `dynamodbav:"items,omitempty"`
	Total         float64       `dynamodbav:"total,omitempty"`
	Subtotal      float64       `dynamodbav:"subtotal,omitempty"`
	DeliveryFee   float64       `dynamodbav:"deliveryFee,omitempty"`
	PaymentMethod string        `dynamodbav:"paymentMethod,omitempty"`
	PaymentStatus string        `dynamodbav:"paymentStatus,omitempty"`
	OrderStatus   string        `dynamodbav:"orderStatus,omitempty"`
	Status        string        `dynamodbav:"status,omitempty"`
	StatusHistory []statusEntry `dynamodbav:"statusHistory,omitempty"`
	Pickup        bool          `dynamodbav:"pickup,omitempty"`
	Address       *addressDoc   `dynamodbav:"address,omitempty"`
}

type lineItem struct {
	ProductID string  `dynamodbav:"productId"`
	Name      string  `dynamodbav:"name,omitempty"`
	Price     float64 `dynamodbav:"price,omitempty"`
	Quantity  int     `dynamodbav:"quantity,omitempty"`
}

type statusEntry struct {
	Status string `dynamodbav:"status"`
	At     int64  `dynamodbav:"at"`
	Actor  string `dynamodbav:"actor,omitempty"`
	Note   string `dynamodbav:"note,omitempty"`
}

type addressDoc struct {
	Street     string `dynamodbav:"street,omitempty"`
	City       string `dynamodbav:"city,omitempty"`
	Region     string `dynamodbav:"region,omitempty"`
	PostalCode string `dynamodbav:"postalCode,omitempty"`
	Country    string `dynamodbav:"country,omitempty"`
}

type productItem struct {
	ID       string  `dynamodbav:"id"`
	Name     string  `dynamodbav:"name,omitempty"`
	Category string  `dynamodbav:"category,omitempty"`
	Price    float64 `dynamodbav:"price,omitempty"`
	Stock    int     `dynamodbav:"stock,omitempty"`
	Status   string  `dynamodbav:"status,omitempty"`
}

type customerItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name,omitempty"`
	Email       string `dynamodbav:"email,omitempty"`
	CreatedAt   int64  `dynamodbav:"createdAt,omitempty"`
	LastLoginAt int64  `dynamodbav:"lastLoginAt,omitempty"`
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// scanAll walks every page of a scan and unmarshals the items into T.
func scanAll[T any](ctx context.Context, client dynamodb.ScanAPIClient, input *dynamodb.ScanInput) ([]T, error) {
	p := dynamodb.NewScanPaginator(client, input)
	var out []T
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", aws.ToString(input.TableName), err)
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", aws.ToString(input.TableName), err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// Orders scans the orders table for documents created within [from, to] and
// returns them newest first.
func (s *Store) Orders(ctx context.Context, from, to time.Time) ([]entity.Order, error) {
	docs, err := scanAll[orderItem](ctx, s.ddb, &dynamodb.ScanInput{
		TableName:        aws.String(s.cfg.OrdersTable),
		FilterExpression: aws.String("#createdAt BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{
			"#createdAt": "createdAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberN{Value: millis(from)},
			":to":   &types.AttributeValueMemberN{Value: millis(to)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("can't get orders: %w", err)
	}

	orders := make([]entity.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, docs[i].toEntity())
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func (d *orderItem) toEntity() entity.Order {
	o := entity.Order{
		ID:            d.ID,
		CreatedAt:     fromMillis(d.CreatedAt),
		CustomerID:    entity.CanonicalCustomerID(d.CustomerID, d.UserID),
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		Items:         make([]entity.OrderItem, 0, len(d.Items)),
		Total:         decimal.NewFromFloat(d.Total),
		Subtotal:      decimal.NewFromFloat(d.Subtotal),
		DeliveryFee:   decimal.NewFromFloat(d.DeliveryFee),
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: d.PaymentStatus,
		OrderStatus:   entity.CanonicalOrderStatus(d.OrderStatus, d.Status),
		Pickup:        d.Pickup,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, entity.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     decimal.NewFromFloat(it.Price),
			Quantity:  it.Quantity,
		})
	}
	for _, h := range d.StatusHistory {
		o.StatusHistory = append(o.StatusHistory, entity.StatusChange{
			Status: h.Status,
			At:     fromMillis(h.At),
			Actor:  h.Actor,
			Note:   h.Note,
		})
	}
	if d.Address != nil {
		o.Address = &entity.Address{
			Street:     d.Address.Street,
			City:       d.Address.City,
			Region:     d.Address.Region,
			PostalCode: d.Address.PostalCode,
			Country:    d.Address.Country,
		}
	}
	return o
}

func (s *Store) Products(ctx context.Context) ([]entity.Product, error) {
	docs, err := scanAll[productItem](ctx, s.ddb, &dynamodb.ScanInput{
		TableName: aws.String(s.cfg.ProductsTable),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get products: %w", err)
	}
	products := make([]entity.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, entity.Product{
			ID:       d.ID,
			Name:     d.Name,
			Category: d.Category,
			Price:    decimal.NewFromFloat(d.Price),
			Stock:    d.Stock,
			Status:   entity.ProductStatus(d.Status),
		})
	}
	return products, nil
}

func (s *Store) Customers(ctx context.Context) ([]entity.Customer, error) {
	docs, err := scanAll[customerItem](ctx, s.ddb, &dynamodb.ScanInput{
		TableName: aws.String(s.cfg.CustomersTable),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get customers: %w", err)
	}
	customers := make([]entity.Customer, 0, len(docs))
	for _, d := range docs {
		customers = append(customers, entity.Customer{
			ID:          d.ID,
			Name:        d.Name,
			Email:       d.Email,
			CreatedAt:   fromMillis(d.CreatedAt),
			LastLoginAt: fromMillis(d.LastLoginAt),
		})
	}
	return customers, nil
}
