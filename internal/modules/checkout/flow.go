package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/souq-backend/internal/modules/order"
	"github.com/georgemunganga/souq-backend/internal/modules/settings"
	"github.com/georgemunganga/souq-backend/internal/modules/shipping"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

// Step is a checkout stage. Steps run in the order of steps.
type Step string

const (
	StepAddress Step = "collecting_address"
	StepPayment Step = "selecting_payment"
	StepReview  Step = "review_and_confirm"
)

var steps = []Step{StepAddress, StepPayment, StepReview}

func (s Step) index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

var (
	ErrWrongStep      = errors.New("invalid checkout step")
	ErrNotDeliverable = errors.New("invalid governorate: this store does not deliver there")
	ErrSubmitted      = errors.New("invalid request: order already submitted")
)

// Quoter prices order lines from the catalog.
type Quoter interface {
	PriceItems(ctx context.Context, storeID uuid.UUID, lines []order.LineRequest) ([]*order.OrderItem, decimal.Decimal, error)
}

// Rates looks up delivery prices.
type Rates interface {
	RateFor(ctx context.Context, storeID uuid.UUID, governorate string) (decimal.Decimal, error)
}

// Promotions reads a store's free-shipping promotion.
type Promotions interface {
	Promotion(ctx context.Context, storeID uuid.UUID) (settings.Promotion, error)
}

// Submitter creates orders.
type Submitter interface {
	PlaceOrder(ctx context.Context, st *store.Store, req order.PlaceOrderRequest) (*order.Order, error)
}

// Orchestrator starts checkout flows against the store's catalog, rates
// and settings.
type Orchestrator struct {
	quoter     Quoter
	rates      Rates
	promotions Promotions
	orders     Submitter
	now        func() time.Time
}

func NewOrchestrator(quoter Quoter, rates Rates, promotions Promotions, orders Submitter) *Orchestrator {
	return &Orchestrator{quoter: quoter, rates: rates, promotions: promotions, orders: orders, now: time.Now}
}

// Flow is one shopper's pass through checkout. A Flow is not safe for
// concurrent use.
type Flow struct {
	o *Orchestrator

	store          *store.Store
	items          []order.LineRequest
	idempotencyKey string
	promotion      settings.Promotion

	step     Step
	customer order.Customer
	address  order.Address
	method   order.PaymentMethod
	notes    string

	rate    decimal.Decimal
	rateErr error

	placed *order.Order
	err    error
}

// Start opens a flow at the address step. The promotion is read here once.
func (o *Orchestrator) Start(ctx context.Context, st *store.Store, items []order.LineRequest, idempotencyKey string) (*Flow, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	promo, err := o.promotions.Promotion(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("load promotion: %w", err)
	}
	return &Flow{
		o:              o,
		store:          st,
		items:          items,
		idempotencyKey: idempotencyKey,
		promotion:      promo,
		step:           StepAddress,
	}, nil
}

func (f *Flow) Step() Step { return f.step }

// Err is the failure of the last Submit, if any.
func (f *Flow) Err() error { return f.err }

// SetAddress records the delivery details. The shipping rate is looked up
// again when the governorate changes.
func (f *Flow) SetAddress(ctx context.Context, customer order.Customer, addr order.Address) error {
	if f.step != StepAddress {
		return fmt.Errorf("%w: address can only be changed at %s", ErrWrongStep, StepAddress)
	}
	addr.Governorate = shipping.NormaliseGovernorate(addr.Governorate)
	changed := addr.Governorate != f.address.Governorate
	f.customer = customer
	f.address = addr
	if changed {
		f.lookupRate(ctx)
	}
	return nil
}

func (f *Flow) lookupRate(ctx context.Context) {
	f.rate, f.rateErr = decimal.Zero, nil
	if f.address.Governorate == "" {
		return
	}
	rate, err := f.o.rates.RateFor(ctx, f.store.ID, f.address.Governorate)
	switch {
	case errors.Is(err, shipping.ErrNoRate):
		f.rateErr = fmt.Errorf("%w (%s)", ErrNotDeliverable, f.address.Governorate)
	case err != nil:
		f.rateErr = fmt.Errorf("load shipping rate: %w", err)
	default:
		f.rate = rate
	}
}

// SetPayment records the payment method.
func (f *Flow) SetPayment(method order.PaymentMethod, notes string) error {
	if f.step != StepPayment {
		return fmt.Errorf("%w: payment can only be chosen at %s", ErrWrongStep, StepPayment)
	}
	f.method = method
	f.notes = strings.TrimSpace(notes)
	return nil
}

// Next validates the current step and advances one step.
func (f *Flow) Next() error {
	switch f.step {
	case StepAddress:
		if strings.TrimSpace(f.customer.Name) == "" {
			return fmt.Errorf("customer name is required")
		}
		if strings.TrimSpace(f.customer.Phone) == "" {
			return fmt.Errorf("customer phone is required")
		}
		if err := order.ValidateAddress(f.address); err != nil {
			return err
		}
		if f.rateErr != nil {
			return f.rateErr
		}
	case StepPayment:
		if !f.method.Valid() {
			return fmt.Errorf("invalid payment method %q", f.method)
		}
		if f.method == order.PaymentCard && f.store.ID != uuid.Nil && f.store.PaymentPublishableKey == "" {
			return order.ErrCardsNotAccepted
		}
	default:
		return fmt.Errorf("%w: %s is the last step", ErrWrongStep, f.step)
	}
	f.step = steps[f.step.index()+1]
	return nil
}

// Back returns to an earlier step.
func (f *Flow) Back(to Step) error {
	i := to.index()
	if i < 0 || i >= f.step.index() {
		return fmt.Errorf("%w: cannot go back from %s to %s", ErrWrongStep, f.step, to)
	}
	f.step = to
	f.err = nil
	return nil
}

// Quote is the server-side price of a flow.
type Quote struct {
	Items        []*order.OrderItem `json:"items"`
	Governorate  string             `json:"governorate,omitempty"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Shipping     decimal.Decimal    `json:"shipping"`
	Total        decimal.Decimal    `json:"total"`
	FreeShipping bool               `json:"free_shipping"`
	Currency     string             `json:"currency"`
}

// Quote prices the flow now. Promotion expiry is checked against the clock
// on every call.
func (f *Flow) Quote(ctx context.Context) (*Quote, error) {
	items, subtotal, err := f.o.quoter.PriceItems(ctx, f.store.ID, f.items)
	if err != nil {
		return nil, err
	}
	fee, free, err := f.shippingFee()
	if err != nil {
		return nil, err
	}
	return &Quote{
		Items:        items,
		Governorate:  f.address.Governorate,
		Subtotal:     subtotal,
		Shipping:     fee,
		Total:        subtotal.Add(fee),
		FreeShipping: free,
		Currency:     order.Currency,
	}, nil
}

func (f *Flow) shippingFee() (decimal.Decimal, bool, error) {
	if f.promotion.Active(f.o.now()) {
		return decimal.Zero, true, nil
	}
	if f.rateErr != nil {
		return decimal.Zero, false, f.rateErr
	}
	return f.rate, false, nil
}

// Submit places the order with one order-creation call. On failure the
// flow stays at review carrying the error.
func (f *Flow) Submit(ctx context.Context) (*order.Order, error) {
	if f.step != StepReview {
		return nil, fmt.Errorf("%w: submit is only allowed at %s", ErrWrongStep, StepReview)
	}
	if f.placed != nil {
		return nil, ErrSubmitted
	}
	fee, _, err := f.shippingFee()
	if err != nil {
		f.err = err
		return nil, err
	}
	o, err := f.o.orders.PlaceOrder(ctx, f.store, order.PlaceOrderRequest{
		Customer:       f.customer,
		Address:        f.address,
		PaymentMethod:  f.method,
		Items:          f.items,
		Shipping:       fee,
		Notes:          f.notes,
		IdempotencyKey: f.idempotencyKey,
	})
	if err != nil {
		f.err = err
		return nil, err
	}
	f.err = nil
	f.placed = o
	return o, nil
}
