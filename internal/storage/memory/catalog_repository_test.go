package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func TestCustomerRepository_Lifecycle(t *testing.T) {
	repo := memory.NewCustomerRepository()
	ctx := context.Background()

	customer, err := domain.NewCustomer("customer-1", "John")
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, customer); !errors.Is(err, domain.ErrCustomerAlreadyExists) {
		t.Fatalf("expected ErrCustomerAlreadyExists, got %v", err)
	}

	addr, _ := domain.NewAddress("Street 1", 1, "Zipcode 1", "City 1")
	if err := customer.ChangeAddress(addr); err != nil {
		t.Fatalf("change address: %v", err)
	}
	if err := customer.Activate(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := repo.Update(ctx, customer); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, err := repo.Find(ctx, "customer-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	storedAddr, ok := stored.Address()
	if !ok || storedAddr != addr {
		t.Fatalf("unexpected address: %+v (%v)", storedAddr, ok)
	}
	if !stored.IsActive() {
		t.Fatal("expected active customer")
	}

	if _, err := repo.Find(ctx, "missing"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestProductRepository_Lifecycle(t *testing.T) {
	repo := memory.NewProductRepository()
	ctx := context.Background()

	for _, id := range []string{"product-2", "product-1"} {
		product, err := domain.NewProduct(id, "Product "+id, decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("new product: %v", err)
		}
		if err := repo.Create(ctx, product); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	product, err := repo.Find(ctx, "product-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if err := product.ChangePrice(decimal.RequireFromString("12.50")); err != nil {
		t.Fatalf("change price: %v", err)
	}
	if err := repo.Update(ctx, product); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if len(all) != 2 || all[0].ID() != "product-1" {
		t.Fatalf("unexpected products: %+v", all)
	}
	if !all[0].Price().Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected updated price, got %s", all[0].Price())
	}

	missing, _ := domain.NewProduct("missing", "Missing", decimal.NewFromInt(1))
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
