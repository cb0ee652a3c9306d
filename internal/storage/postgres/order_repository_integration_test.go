package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestOrderRepository_PostgresRoundTrip(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	order := sampleOrder(t, "order-1", "customer-1")
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	var total decimal.Decimal
	if err := store.DB().QueryRowContext(ctx, `SELECT total FROM orders WHERE id = $1`, order.ID()).Scan(&total); err != nil {
		t.Fatalf("select total: %v", err)
	}
	if !total.Equal(order.Total()) {
		t.Fatalf("stored total %s != computed %s", total, order.Total())
	}

	got, err := repo.Find(ctx, order.ID())
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	assertSameOrder(t, order, got)

	item, _ := got.Item("item-2")
	if err := got.ChangeItemQuantity(item, 4); err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update order: %v", err)
	}

	updated, err := repo.Find(ctx, order.ID())
	if err != nil {
		t.Fatalf("find updated: %v", err)
	}
	assertSameOrder(t, got, updated)
}

func TestOrderRepository_PostgresRepeatedItemIDs(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	order, err := domain.NewOrder("order-1", "customer-1", []domain.OrderItem{
		domain.NewOrderItem("item-1", "Keyboard", decimal.NewFromInt(10), "product-1", 1),
		domain.NewOrderItem("item-1", "Mouse", decimal.NewFromInt(5), "product-2", 4),
	})
	if err != nil {
		t.Fatalf("build order: %v", err)
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order with repeated item ids: %v", err)
	}

	got, err := repo.Find(ctx, order.ID())
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	assertSameOrder(t, order, got)

	item, _ := got.Item("item-1")
	if err := got.ChangeItemQuantity(item, 2); err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update order: %v", err)
	}
	updated, err := repo.Find(ctx, order.ID())
	if err != nil {
		t.Fatalf("find updated: %v", err)
	}
	assertSameOrder(t, got, updated)
}

func TestOrderRepository_PostgresListByCustomer(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	for _, o := range []*domain.Order{
		sampleOrder(t, "order-2", "customer-1"),
		sampleOrder(t, "order-1", "customer-1"),
		sampleOrder(t, "order-3", "customer-2"),
	} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("create %s: %v", o.ID(), err)
		}
	}

	listed, err := repo.FindByCustomer(ctx, "customer-1", 0)
	if err != nil {
		t.Fatalf("find by customer: %v", err)
	}
	if len(listed) != 2 || listed[0].ID() != "order-1" || listed[1].ID() != "order-2" {
		t.Fatalf("unexpected list result: %+v", listed)
	}

	limited, err := repo.FindByCustomer(ctx, "customer-1", 1)
	if err != nil {
		t.Fatalf("find by customer with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 order, got %d", len(limited))
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
}

func TestOrderRepository_PostgresErrors(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	base := sampleOrder(t, "order-errors", "customer-2")

	if _, err := repo.Find(ctx, "missing-order"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if err := repo.Update(ctx, base); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on update missing, got %v", err)
	}
	if err := repo.Create(ctx, base); err != nil {
		t.Fatalf("create base order: %v", err)
	}
	if err := repo.Create(ctx, base); !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists on duplicate create, got %v", err)
	}

	if _, err := store.DB().ExecContext(ctx, `UPDATE orders SET total = total + 1 WHERE id = $1`, base.ID()); err != nil {
		t.Fatalf("corrupt total: %v", err)
	}
	if _, err := repo.Find(ctx, base.ID()); !errors.Is(err, domain.ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got %v", err)
	}
}

func TestCatalogRepositories_Postgres(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customers := NewCustomerRepository(store)
	products := NewProductRepository(store)
	ctx := context.Background()

	customer, _ := domain.NewCustomer("customer-1", "John")
	if err := customers.Create(ctx, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if err := customers.Create(ctx, customer); !errors.Is(err, domain.ErrCustomerAlreadyExists) {
		t.Fatalf("expected ErrCustomerAlreadyExists, got %v", err)
	}

	addr, _ := domain.NewAddress("Street 1", 1, "Zipcode 1", "City 1")
	_ = customer.ChangeAddress(addr)
	_ = customer.Activate()
	if err := customers.Update(ctx, customer); err != nil {
		t.Fatalf("update customer: %v", err)
	}
	stored, err := customers.Find(ctx, customer.ID())
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if got, ok := stored.Address(); !ok || got != addr || !stored.IsActive() {
		t.Fatalf("unexpected customer: %+v", stored)
	}

	product, _ := domain.NewProduct("product-1", "Keyboard", decimal.RequireFromString("19.99"))
	if err := products.Create(ctx, product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	_ = product.ChangePrice(decimal.RequireFromString("17.49"))
	if err := products.Update(ctx, product); err != nil {
		t.Fatalf("update product: %v", err)
	}
	all, err := products.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all products: %v", err)
	}
	if len(all) != 1 || !all[0].Price().Equal(decimal.RequireFromString("17.49")) {
		t.Fatalf("unexpected products: %+v", all)
	}
	if _, err := products.Find(ctx, "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}

func sampleOrder(t *testing.T, id, customerID string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, customerID, []domain.OrderItem{
		domain.NewOrderItem("item-1", "Keyboard", decimal.RequireFromString("19.99"), "product-1", 2),
		domain.NewOrderItem("item-2", "Mouse", decimal.RequireFromString("5.25"), "product-2", 1),
	})
	if err != nil {
		t.Fatalf("build order: %v", err)
	}
	return order
}

func assertSameOrder(t *testing.T, want, got *domain.Order) {
	t.Helper()
	if got.ID() != want.ID() || got.CustomerID() != want.CustomerID() {
		t.Fatalf("unexpected identifiers: %s/%s", got.ID(), got.CustomerID())
	}
	if !got.Total().Equal(want.Total()) {
		t.Fatalf("total mismatch: got=%s want=%s", got.Total(), want.Total())
	}
	wantItems, gotItems := want.Items(), got.Items()
	if len(gotItems) != len(wantItems) {
		t.Fatalf("items count mismatch: got=%d want=%d", len(gotItems), len(wantItems))
	}
	for i := range wantItems {
		w, g := wantItems[i], gotItems[i]
		if g.ID() != w.ID() || g.Name() != w.Name() || !g.Price().Equal(w.Price()) ||
			g.Quantity() != w.Quantity() || g.ProductID() != w.ProductID() {
			t.Fatalf("item %d mismatch: got=%+v want=%+v", i, g, w)
		}
	}
}
