package order

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memRepo models the conditional stock decrement of the SQL repository.
type memRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*ProductSnapshot
	orders   map[uuid.UUID]*Order
	storeOf  map[uuid.UUID]uuid.UUID
	failNext error
}

func newMemRepo() *memRepo {
	return &memRepo{
		products: map[uuid.UUID]*ProductSnapshot{},
		orders:   map[uuid.UUID]*Order{},
		storeOf:  map[uuid.UUID]uuid.UUID{},
	}
}

func (m *memRepo) addProduct(storeID uuid.UUID, title string, price int64, stock int) uuid.UUID {
	id := uuid.New()
	m.products[id] = &ProductSnapshot{ID: id, Title: title, Price: decimal.NewFromInt(price), Stock: stock}
	m.storeOf[id] = storeID
	return id
}

func (m *memRepo) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memRepo) CreateOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, item := range o.Items {
		p := m.products[*item.ProductID]
		if p == nil || m.storeOf[p.ID] != o.StoreID || p.Stock < item.Quantity {
			return ErrInsufficientStock
		}
	}
	for _, item := range o.Items {
		m.products[*item.ProductID].Stock -= item.Quantity
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memRepo) GetOrder(_ context.Context, storeID, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID.String() == id && o.StoreID.String() == storeID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) ListOrders(_ context.Context, storeID string, status OrderStatus) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Order
	for _, o := range m.orders {
		if o.StoreID.String() == storeID && (status == "" || o.Status == status) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, o *Order, next OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok || stored.Status != o.Status {
		return ErrStatusConflict
	}
	stored.Status = next
	if next == StatusCancelled {
		for _, item := range stored.Items {
			if item.ProductID != nil {
				if p, ok := m.products[*item.ProductID]; ok {
					p.Stock += item.Quantity
				}
			}
		}
	}
	return nil
}

func (m *memRepo) SetPaymentReference(_ context.Context, id uuid.UUID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.PaymentReference = ref
	}
	return nil
}

func (m *memRepo) ProductSnapshots(_ context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]ProductSnapshot{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && m.storeOf[id] == storeID {
			out[id] = *p
		}
	}
	return out, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdempotency) Reserve(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[key]; ok {
		if v == pendingMarker {
			return "", false, nil
		}
		return v, false, nil
	}
	m.keys[key] = pendingMarker
	return "", true, nil
}

func (m *memIdempotency) Complete(_ context.Context, key, orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = orderID
}

func (m *memIdempotency) Release(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
}

type fakeIntents struct {
	calls  int
	amount decimal.Decimal
	key    string
	err    error
}

func (f *fakeIntents) CreateIntent(_ context.Context, secretKey string, amount decimal.Decimal, _ string, _ map[string]string) (string, string, error) {
	f.calls++
	f.amount = amount
	f.key = secretKey
	if f.err != nil {
		return "", "", f.err
	}
	return "pi_123", "pi_123_secret", nil
}
