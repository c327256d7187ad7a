package order

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/souq-backend/internal/events"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStatusConflict     = errors.New("order status changed concurrently, reload and retry")
	ErrRequestInProgress  = errors.New("an order with this idempotency key is already being placed")
	ErrCardsNotAccepted   = errors.New("invalid payment method: this store does not accept card payments")
	ErrDemoStore          = errors.New("invalid request: the demo store does not take orders")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPaymentUnavailable = errors.New("card payment could not be started")
)

const maxLineQuantity = 100

// PaymentIntents starts card payments on a merchant's own provider account.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, secretKey string, amount decimal.Decimal, currency string, metadata map[string]string) (id, clientSecret string, err error)
}

// StoreLoader reads the full store record, secrets included.
type StoreLoader interface {
	GetStore(ctx context.Context, id string) (*store.Store, error)
}

// Service defines the order management business logic.
type Service interface {
	// PriceItems prices lines from the catalog and checks stock.
	PriceItems(ctx context.Context, storeID uuid.UUID, lines []LineRequest) ([]*OrderItem, decimal.Decimal, error)

	// PlaceOrder re-prices the lines, persists the order atomically and, for
	// card orders, opens a payment intent for the server-side total.
	PlaceOrder(ctx context.Context, st *store.Store, req PlaceOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, storeID uuid.UUID, id string) (*Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, status string) ([]*Order, error)

	// UpdateStatus advances an order to a new lifecycle status.
	UpdateStatus(ctx context.Context, storeID uuid.UUID, id string, status string) (*Order, error)
}

type service struct {
	repo        Repository
	idempotency Idempotency
	payments    PaymentIntents
	stores      StoreLoader
	publisher   events.Publisher
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a new order service. idempotency may be nil.
func NewService(repo Repository, idempotency Idempotency, payments PaymentIntents, stores StoreLoader, publisher events.Publisher, log zerolog.Logger) Service {
	return &service{
		repo:        repo,
		idempotency: idempotency,
		payments:    payments,
		stores:      stores,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// validTransitions defines the allowed status state machine.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *service) PriceItems(ctx context.Context, storeID uuid.UUID, lines []LineRequest) ([]*OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, fmt.Errorf("order must contain at least one item")
	}

	// Merge repeated products so stock is checked against the full quantity.
	quantities := map[uuid.UUID]int{}
	var order []uuid.UUID
	for _, l := range lines {
		pid, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("invalid product_id %q", l.ProductID)
		}
		if l.Quantity <= 0 || l.Quantity > maxLineQuantity {
			return nil, decimal.Zero, fmt.Errorf("invalid quantity for product %s: must be between 1 and %d", pid, maxLineQuantity)
		}
		if _, seen := quantities[pid]; !seen {
			order = append(order, pid)
		}
		quantities[pid] += l.Quantity
	}

	products, err := s.repo.ProductSnapshots(ctx, storeID, order)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load products: %w", err)
	}

	items := make([]*OrderItem, 0, len(order))
	subtotal := decimal.Zero
	for _, pid := range order {
		p, ok := products[pid]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("invalid product %s: not found in this store", pid)
		}
		qty := quantities[pid]
		if p.Stock < qty {
			return nil, decimal.Zero, fmt.Errorf("%s: %w (%d left)", p.Title, ErrInsufficientStock, p.Stock)
		}
		id := pid
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, &OrderItem{
			ID:        uuid.New(),
			ProductID: &id,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
	}
	return items, subtotal, nil
}

func (s *service) PlaceOrder(ctx context.Context, st *store.Store, req PlaceOrderRequest) (*Order, error) {
	if st.ID == uuid.Nil {
		return nil, ErrDemoStore
	}
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod == PaymentCard && !st.AcceptsCards() {
		full, err := s.stores.GetStore(ctx, st.ID.String())
		if err != nil {
			return nil, err
		}
		if !full.AcceptsCards() {
			return nil, ErrCardsNotAccepted
		}
		st = full
	}

	key := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		key = st.ID.String() + ":" + req.IdempotencyKey
		existingID, reserved, err := s.idempotency.Reserve(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			if existingID == "" {
				return nil, ErrRequestInProgress
			}
			return s.repo.GetOrder(ctx, st.ID.String(), existingID)
		}
	}

	o, err := s.placeOrder(ctx, st, req)
	if key != "" {
		if err != nil {
			s.idempotency.Release(ctx, key)
		} else {
			s.idempotency.Complete(ctx, key, o.ID.String())
		}
	}
	return o, err
}

func (s *service) placeOrder(ctx context.Context, st *store.Store, req PlaceOrderRequest) (*Order, error) {
	items, subtotal, err := s.PriceItems(ctx, st.ID, req.Items)
	if err != nil {
		return nil, err
	}
	shipping := req.Shipping.Round(2)
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	now := s.now()
	o := &Order{
		ID:            uuid.New(),
		StoreID:       st.ID,
		OrderNumber:   generateOrderNumber(now),
		CustomerName:  strings.TrimSpace(req.Customer.Name),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		CustomerPhone: strings.TrimSpace(req.Customer.Phone),
		Address:       req.Address,
		Items:         items,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Total:         subtotal.Add(shipping),
		Currency:      Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        StatusPending,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range o.Items {
		item.OrderID = o.ID
		item.CreatedAt = now
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if o.PaymentMethod == PaymentCard {
		if err := s.startPayment(ctx, st, o); err != nil {
			s.log.Error().Err(err).Str("order", o.OrderNumber).Msg("start card payment")
			if cerr := s.repo.UpdateStatus(ctx, o, StatusCancelled); cerr != nil {
				s.log.Error().Err(cerr).Str("order", o.OrderNumber).Msg("cancel unpaid order")
			}
			return nil, ErrPaymentUnavailable
		}
	}

	s.log.Info().Str("order", o.OrderNumber).Str("store_id", st.ID.String()).
		Str("total", o.Total.StringFixed(2)).Msg("order placed")
	published := *o
	published.ClientSecret = ""
	events.Emit(ctx, s.publisher, events.OrderCreated, st.ID.String(), &published)
	return o, nil
}

func (s *service) startPayment(ctx context.Context, st *store.Store, o *Order) error {
	id, secret, err := s.payments.CreateIntent(ctx, st.PaymentSecretKey, o.Total, o.Currency, map[string]string{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
		"store_id":     st.ID.String(),
	})
	if err != nil {
		return err
	}
	if err := s.repo.SetPaymentReference(ctx, o.ID, id); err != nil {
		return err
	}
	o.PaymentReference = id
	o.ClientSecret = secret
	return nil
}

func validateCheckout(req PlaceOrderRequest) error {
	if strings.TrimSpace(req.Customer.Name) == "" {
		return fmt.Errorf("customer name is required")
	}
	if strings.TrimSpace(req.Customer.Phone) == "" {
		return fmt.Errorf("customer phone is required")
	}
	if email := strings.TrimSpace(req.Customer.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("invalid customer email")
		}
	}
	if err := ValidateAddress(req.Address); err != nil {
		return err
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("invalid payment method %q", req.PaymentMethod)
	}
	return nil
}

// ValidateAddress checks the fields a courier needs.
func ValidateAddress(a Address) error {
	switch {
	case strings.TrimSpace(a.Governorate) == "":
		return fmt.Errorf("governorate is required")
	case strings.TrimSpace(a.City) == "":
		return fmt.Errorf("city is required")
	case strings.TrimSpace(a.Street) == "":
		return fmt.Errorf("street is required")
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, storeID uuid.UUID, id string) (*Order, error) {
	return s.repo.GetOrder(ctx, storeID.String(), id)
}

func (s *service) ListOrders(ctx context.Context, storeID uuid.UUID, status string) ([]*Order, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" {
		if _, known := validTransitions[st]; !known {
			return nil, fmt.Errorf("invalid status filter %q", status)
		}
	}
	orders, err := s.repo.ListOrders(ctx, storeID.String(), st)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*Order{}
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, storeID uuid.UUID, id string, status string) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, storeID.String(), id)
	if err != nil {
		return nil, err
	}

	next := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !CanTransition(o.Status, next) {
		return nil, fmt.Errorf("%w: cannot transition order from %s to %s", ErrInvalidTransition, o.Status, next)
	}

	previous := o.Status
	if err := s.repo.UpdateStatus(ctx, o, next); err != nil {
		return nil, err
	}
	o.Status = next
	o.UpdatedAt = s.now()

	events.Emit(ctx, s.publisher, events.OrderStatusChanged, storeID.String(), map[string]string{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
		"from":         string(previous),
		"to":           string(next),
	})
	return o, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber(now time.Time) string {
	date := now.UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
