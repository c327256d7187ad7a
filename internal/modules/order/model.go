package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

const Currency = "EGP"

// Address is the delivery address, stored as one JSON document.
type Address struct {
	Governorate string `json:"governorate"`
	City        string `json:"city"`
	Street      string `json:"street"`
	Notes       string `json:"notes,omitempty"`
}

// Customer holds the buyer's contact details.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

// Order is a storefront purchase.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	StoreID          uuid.UUID       `json:"store_id"`
	OrderNumber      string          `json:"order_number"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email,omitempty"`
	CustomerPhone    string          `json:"customer_phone"`
	Address          Address         `json:"address"`
	Items            []*OrderItem    `json:"items,omitempty"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Shipping         decimal.Decimal `json:"shipping"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Status           OrderStatus     `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// ClientSecret lets the storefront confirm a card payment. It is
	// returned once, at creation, and never stored.
	ClientSecret string `json:"client_secret,omitempty"`
}

// OrderItem is a single line item within an order, priced when the order
// was placed.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"` // nil once the product is deleted
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineRequest is one requested product and quantity.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ProductSnapshot is the current catalog state of a product at order time.
type ProductSnapshot struct {
	ID    uuid.UUID
	Title string
	Price decimal.Decimal
	Stock int
}

// PlaceOrderRequest is a verified checkout. Shipping is computed server-side
// by the checkout flow; item prices are always re-read from the catalog.
type PlaceOrderRequest struct {
	Customer       Customer
	Address        Address
	PaymentMethod  PaymentMethod
	Items          []LineRequest
	Shipping       decimal.Decimal
	Notes          string
	IdempotencyKey string
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	StoreID string `json:"store_id"`
	Status  string `json:"status"`
}
