package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestNewOrderEvent(t *testing.T) {
	order, err := domain.NewOrder("order-123", "cust-1", []domain.OrderItem{
		domain.NewOrderItem("item-1", "Keyboard", decimal.RequireFromString("19.99"), "product-1", 2),
		domain.NewOrderItem("item-2", "Mouse", decimal.RequireFromString("5.25"), "product-2", 1),
	})
	if err != nil {
		t.Fatalf("build order: %v", err)
	}

	event := newOrderEvent(domain.EventOrderItemQuantityChanged, order)
	if event.EventType != domain.EventOrderItemQuantityChanged {
		t.Errorf("expected event type %s, got %s", domain.EventOrderItemQuantityChanged, event.EventType)
	}
	if event.CustomerID != "cust-1" || event.Total != "45.23" {
		t.Errorf("unexpected order event: %+v", event)
	}
	if event.Items[0].TotalPrice != "39.98" || event.Items[1].Price != "5.25" {
		t.Errorf("unexpected items: %+v", event.Items)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}

func TestNewCustomerEvent(t *testing.T) {
	customer, err := domain.NewCustomer("cust-1", "John")
	if err != nil {
		t.Fatal(err)
	}

	event := newCustomerEvent(domain.EventCustomerRegistered, customer)
	if event.Address != nil || event.Active {
		t.Errorf("unexpected new customer event: %+v", event)
	}

	addr, _ := domain.NewAddress("Street 1", 1, "Zipcode 1", "City 1")
	_ = customer.ChangeAddress(addr)
	event = newCustomerEvent(domain.EventCustomerAddressChanged, customer)
	if event.Address == nil || event.Address.City != "City 1" || event.Address.Number != 1 {
		t.Errorf("unexpected address in event: %+v", event.Address)
	}
}

func TestNewProductEvent(t *testing.T) {
	product, err := domain.NewProduct("product-1", "Keyboard", decimal.RequireFromString("19.99"))
	if err != nil {
		t.Fatal(err)
	}

	event := newProductEvent(domain.EventProductPriceChanged, product)
	if event.ProductID != "product-1" || event.Price != "19.99" {
		t.Errorf("unexpected product event: %+v", event)
	}
}
