package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

type fixture struct {
	svc    *Service
	orders domain.OrderRepository
	outbox interface {
		domain.OutboxRepository
		AllPending() []domain.OutboxMessage
	}
}

func newFixture(t *testing.T, options ...Option) *fixture {
	t.Helper()

	var seq int
	var mu sync.Mutex
	nextID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	orders := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	opts := append([]Option{
		WithOutbox(outbox),
		WithIDGenerator(nextID),
		WithMetrics(metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())),
	}, options...)

	svc := NewService(orders, memory.NewCustomerRepository(), memory.NewProductRepository(), opts...)
	return &fixture{svc: svc, orders: orders, outbox: outbox}
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func placeSample(t *testing.T, f *fixture) *domain.Order {
	t.Helper()
	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		OrderID:    "order-1",
		CustomerID: "customer-1",
		Items: []ItemInput{
			{ID: "item-1", Name: "Keyboard", Price: price("19.99"), ProductID: "product-1", Quantity: 2},
			{ID: "item-2", Name: "Mouse", Price: price("5.25"), ProductID: "product-2", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

func TestService_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	order := placeSample(t, f)

	if !order.Total().Equal(decimal.RequireFromString("45.23")) {
		t.Fatalf("unexpected total %s", order.Total())
	}

	stored, err := f.orders.Find(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("order was not stored: %v", err)
	}
	if len(stored.Items()) != 2 {
		t.Fatalf("unexpected stored items: %+v", stored.Items())
	}

	pending := f.outbox.AllPending()
	if len(pending) != 1 || pending[0].EventType != domain.EventOrderCreated || pending[0].AggregateID != "order-1" {
		t.Fatalf("unexpected outbox: %+v", pending)
	}
	var event OrderEvent
	if err := json.Unmarshal(pending[0].Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.Total != "45.23" || len(event.Items) != 2 {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestService_PlaceOrder_GeneratesIDsAndResolvesProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddProduct(ctx, "product-1", "Keyboard", decimal.RequireFromString("19.99")); err != nil {
		t.Fatalf("add product: %v", err)
	}

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID: "customer-1",
		Items: []ItemInput{
			{ProductID: "product-1", Quantity: 3},
			{ProductID: "product-1", Name: "Discounted keyboard", Price: price("10"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.ID() == "" {
		t.Fatal("order id was not generated")
	}

	items := order.Items()
	if items[0].ID() == "" || items[0].ID() == items[1].ID() {
		t.Fatalf("item ids were not generated: %q %q", items[0].ID(), items[1].ID())
	}
	if items[0].Name() != "Keyboard" || !items[0].Price().Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("item was not resolved from catalog: %+v", items[0])
	}
	if items[1].Name() != "Discounted keyboard" || !items[1].Price().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("explicit item fields were overwritten: %+v", items[1])
	}
	if !order.Total().Equal(decimal.RequireFromString("69.97")) {
		t.Fatalf("unexpected total %s", order.Total())
	}
}

func TestService_PlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: "customer-1",
		Items:      []ItemInput{{ProductID: "missing", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestService_PlaceOrder_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   PlaceOrderInput
		kind error
	}{
		{
			name: "missing customer",
			in:   PlaceOrderInput{OrderID: "o", Items: []ItemInput{{Name: "x", Price: price("1"), Quantity: 1}}},
			kind: domain.ErrMissingIdentifier,
		},
		{
			name: "no items",
			in:   PlaceOrderInput{OrderID: "o", CustomerID: "c"},
			kind: domain.ErrEmptyItemList,
		},
		{
			name: "zero quantity",
			in:   PlaceOrderInput{OrderID: "o", CustomerID: "c", Items: []ItemInput{{Name: "x", Price: price("1"), Quantity: 0}}},
			kind: domain.ErrInvalidQuantity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.PlaceOrder(context.Background(), tc.in)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if len(f.outbox.AllPending()) != 0 {
				t.Fatal("rejected order must not emit events")
			}
		})
	}
}

func TestService_PlaceOrder_Duplicate(t *testing.T) {
	f := newFixture(t)
	placeSample(t, f)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		OrderID:    "order-1",
		CustomerID: "customer-1",
		Items:      []ItemInput{{Name: "x", Price: price("1"), Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists, got %v", err)
	}
}

func TestService_ChangeItemQuantity(t *testing.T) {
	f := newFixture(t)
	placeSample(t, f)
	ctx := context.Background()

	order, err := f.svc.ChangeItemQuantity(ctx, "order-1", "item-2", 3)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if !order.Total().Equal(decimal.RequireFromString("55.73")) {
		t.Fatalf("unexpected total %s", order.Total())
	}

	stored, _ := f.orders.Find(ctx, "order-1")
	if item, _ := stored.Item("item-2"); item.Quantity() != 3 {
		t.Fatalf("quantity was not persisted: %d", item.Quantity())
	}

	pending := f.outbox.AllPending()
	if len(pending) != 2 || pending[1].EventType != domain.EventOrderItemQuantityChanged {
		t.Fatalf("unexpected outbox: %+v", pending)
	}
	var event OrderEvent
	if err := json.Unmarshal(pending[1].Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.ChangedItemID != "item-2" || event.Total != "55.73" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestService_ChangeItemQuantity_NonPositiveIsNoop(t *testing.T) {
	f := newFixture(t)
	placeSample(t, f)
	ctx := context.Background()

	for _, quantity := range []int{0, -4} {
		order, err := f.svc.ChangeItemQuantity(ctx, "order-1", "item-1", quantity)
		if err != nil {
			t.Fatalf("quantity %d: unexpected error %v", quantity, err)
		}
		if item, _ := order.Item("item-1"); item.Quantity() != 2 {
			t.Fatalf("quantity %d: item changed to %d", quantity, item.Quantity())
		}
	}
	if len(f.outbox.AllPending()) != 1 {
		t.Fatal("no-op change must not emit events")
	}
}

func TestService_ChangeItemQuantity_Errors(t *testing.T) {
	f := newFixture(t)
	placeSample(t, f)
	ctx := context.Background()

	if _, err := f.svc.ChangeItemQuantity(ctx, "order-1", "missing", 5); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := f.svc.ChangeItemQuantity(ctx, "missing", "item-1", 5); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := f.svc.ChangeItemQuantity(ctx, "", "item-1", 5); !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}

	stored, _ := f.orders.Find(ctx, "order-1")
	if !stored.Total().Equal(decimal.RequireFromString("45.23")) {
		t.Fatalf("failed changes must not touch the order, total %s", stored.Total())
	}
}

func TestService_ChangeItemQuantity_ConcurrentUpdatesAreSerialized(t *testing.T) {
	f := newFixture(t)
	placeSample(t, f)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			if _, err := f.svc.ChangeItemQuantity(ctx, "order-1", "item-2", quantity); err != nil {
				t.Errorf("change quantity %d: %v", quantity, err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := f.orders.Find(ctx, "order-1")
	item, _ := stored.Item("item-2")
	keyboard, _ := stored.Item("item-1")
	want := keyboard.TotalPrice().Add(item.TotalPrice())
	if !stored.Total().Equal(want) {
		t.Fatalf("total %s does not match items %s", stored.Total(), want)
	}
	if len(f.outbox.AllPending()) != 21 {
		t.Fatalf("expected 21 events, got %d", len(f.outbox.AllPending()))
	}
}

func TestService_ListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []PlaceOrderInput{
		{OrderID: "order-2", CustomerID: "customer-1"},
		{OrderID: "order-1", CustomerID: "customer-1"},
		{OrderID: "order-3", CustomerID: "customer-2"},
	} {
		in.Items = []ItemInput{{Name: "x", Price: price("1"), Quantity: 1}}
		if _, err := f.svc.PlaceOrder(ctx, in); err != nil {
			t.Fatalf("place %s: %v", in.OrderID, err)
		}
	}

	orders, err := f.svc.ListOrders(ctx, "customer-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 || orders[0].ID() != "order-1" || orders[1].ID() != "order-2" {
		t.Fatalf("unexpected orders: %v", orders)
	}

	all, err := f.svc.ListOrders(ctx, "", 2)
	if err != nil || len(all) != 2 {
		t.Fatalf("unexpected limited list: %v (%d)", err, len(all))
	}
}

type failingOutbox struct {
	domain.OutboxRepository
}

func (failingOutbox) Enqueue(context.Context, domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, errors.New("outbox is down")
}

func TestService_OutboxFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, WithOutbox(failingOutbox{}))

	order := placeSample(t, f)
	if order == nil {
		t.Fatal("order expected")
	}
	if _, err := f.orders.Find(context.Background(), "order-1"); err != nil {
		t.Fatalf("order must be stored despite outbox failure: %v", err)
	}
}

func TestService_WithoutOutbox(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), memory.NewCustomerRepository(), memory.NewProductRepository())

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: "customer-1",
		Items:      []ItemInput{{Name: "x", Price: price("1"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place order without outbox: %v", err)
	}
}

func TestService_Customers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.svc.RegisterCustomer(ctx, "", "John")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if customer.ID() == "" || customer.IsActive() {
		t.Fatalf("unexpected customer: %+v", customer)
	}
	if _, err := f.svc.RegisterCustomer(ctx, "c", ""); !errors.Is(err, domain.ErrCustomerNameRequired) {
		t.Fatalf("expected ErrCustomerNameRequired, got %v", err)
	}

	if _, err := f.svc.ChangeCustomerAddress(ctx, customer.ID(), domain.Address{}, false); !errors.Is(err, domain.ErrAddressInvalid) {
		t.Fatalf("expected ErrAddressInvalid, got %v", err)
	}

	addr, _ := domain.NewAddress("Street 1", 1, "Zipcode 1", "City 1")
	updated, err := f.svc.ChangeCustomerAddress(ctx, customer.ID(), addr, true)
	if err != nil {
		t.Fatalf("change address: %v", err)
	}
	if got, ok := updated.Address(); !ok || got != addr || !updated.IsActive() {
		t.Fatalf("unexpected customer after address change: %+v", updated)
	}

	if _, err := f.svc.ChangeCustomerAddress(ctx, "missing", addr, false); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	all, err := f.svc.ListCustomers(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("unexpected customers: %v (%d)", err, len(all))
	}

	var events []string
	for _, msg := range f.outbox.AllPending() {
		events = append(events, msg.EventType)
	}
	if len(events) != 2 || events[0] != domain.EventCustomerRegistered || events[1] != domain.EventCustomerAddressChanged {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestService_Products(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddProduct(ctx, "product-1", "Keyboard", decimal.RequireFromString("-1")); !errors.Is(err, domain.ErrProductPriceInvalid) {
		t.Fatalf("expected ErrProductPriceInvalid, got %v", err)
	}
	if _, err := f.svc.AddProduct(ctx, "product-1", "Keyboard", decimal.RequireFromString("19.99")); err != nil {
		t.Fatalf("add product: %v", err)
	}
	if _, err := f.svc.AddProduct(ctx, "product-1", "Keyboard", decimal.RequireFromString("19.99")); !errors.Is(err, domain.ErrProductAlreadyExists) {
		t.Fatalf("expected ErrProductAlreadyExists, got %v", err)
	}

	placeSample(t, f)

	product, err := f.svc.ChangeProductPrice(ctx, "product-1", decimal.RequireFromString("17.49"))
	if err != nil {
		t.Fatalf("change price: %v", err)
	}
	if !product.Price().Equal(decimal.RequireFromString("17.49")) {
		t.Fatalf("unexpected price %s", product.Price())
	}

	order, _ := f.svc.GetOrder(ctx, "order-1")
	if !order.Total().Equal(decimal.RequireFromString("45.23")) {
		t.Fatalf("placed orders must keep their prices, total %s", order.Total())
	}

	if _, err := f.svc.GetProduct(ctx, ""); !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}
	products, err := f.svc.ListProducts(ctx)
	if err != nil || len(products) != 1 {
		t.Fatalf("unexpected products: %v (%d)", err, len(products))
	}
}

func TestKeyedMutex_ReleasesKeys(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	unlockA()
	unlockB()

	if len(k.locks) != 0 {
		t.Fatalf("expected no held keys, got %d", len(k.locks))
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		domain.ErrOrderIDRequired:     "missing_identifier",
		domain.ErrItemsRequired:       "empty_item_list",
		domain.ErrItemQuantityInvalid: "invalid_quantity",
		domain.ErrItemNotFound:        "item_not_found",
		domain.ErrAddressInvalid:      "invalid_attribute",
		domain.ErrOrderNotFound:       "",
	}
	for err, want := range cases {
		if got := errorKind(err); got != want {
			t.Fatalf("errorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
