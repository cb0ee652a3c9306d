package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// RegisterCustomer создаёт клиента. Пустой id генерируется.
func (s *Service) RegisterCustomer(ctx context.Context, id, name string) (*domain.Customer, error) {
	if id == "" {
		id = s.newID()
	}
	customer, err := domain.NewCustomer(id, name)
	if err != nil {
		return nil, s.reject(err)
	}

	start := time.Now()
	err = s.customers.Create(ctx, customer)
	s.observe("customer_create", start)
	if err != nil {
		return nil, fmt.Errorf("create customer %s: %w", id, err)
	}

	s.emit(ctx, domain.AggregateTypeCustomer, id, domain.EventCustomerRegistered,
		newCustomerEvent(domain.EventCustomerRegistered, customer))
	return customer, nil
}

// ChangeCustomerAddress задаёт адрес клиента и, если нужно, активирует его.
func (s *Service) ChangeCustomerAddress(ctx context.Context, id string, address domain.Address, activate bool) (*domain.Customer, error) {
	unlock := s.locks.Lock("customer:" + id)
	defer unlock()

	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.ChangeAddress(address); err != nil {
		return nil, s.reject(err)
	}
	if activate {
		if err := customer.Activate(); err != nil {
			return nil, s.reject(err)
		}
	}

	start := time.Now()
	err = s.customers.Update(ctx, customer)
	s.observe("customer_update", start)
	if err != nil {
		return nil, fmt.Errorf("update customer %s: %w", id, err)
	}

	s.emit(ctx, domain.AggregateTypeCustomer, id, domain.EventCustomerAddressChanged,
		newCustomerEvent(domain.EventCustomerAddressChanged, customer))
	return customer, nil
}

// GetCustomer возвращает клиента по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if id == "" {
		return nil, s.reject(domain.ErrCustomerIDRequired)
	}

	start := time.Now()
	customer, err := s.customers.Find(ctx, id)
	s.observe("customer_find", start)
	if err != nil {
		return nil, fmt.Errorf("find customer %s: %w", id, err)
	}
	return customer, nil
}

// ListCustomers возвращает всех клиентов.
func (s *Service) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	start := time.Now()
	defer s.observe("customer_list", start)

	customers, err := s.customers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// AddProduct добавляет товар в каталог. Пустой id генерируется.
func (s *Service) AddProduct(ctx context.Context, id, name string, price decimal.Decimal) (*domain.Product, error) {
	if id == "" {
		id = s.newID()
	}
	product, err := domain.NewProduct(id, name, price)
	if err != nil {
		return nil, s.reject(err)
	}

	start := time.Now()
	err = s.products.Create(ctx, product)
	s.observe("product_create", start)
	if err != nil {
		return nil, fmt.Errorf("create product %s: %w", id, err)
	}

	s.emit(ctx, domain.AggregateTypeProduct, id, domain.EventProductCreated,
		newProductEvent(domain.EventProductCreated, product))
	return product, nil
}

// ChangeProductPrice меняет цену товара. Уже оформленные заказы не пересчитываются.
func (s *Service) ChangeProductPrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error) {
	unlock := s.locks.Lock("product:" + id)
	defer unlock()

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.ChangePrice(price); err != nil {
		return nil, s.reject(err)
	}

	start := time.Now()
	err = s.products.Update(ctx, product)
	s.observe("product_update", start)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	s.emit(ctx, domain.AggregateTypeProduct, id, domain.EventProductPriceChanged,
		newProductEvent(domain.EventProductPriceChanged, product))
	return product, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, s.reject(domain.ErrProductIDRequired)
	}

	start := time.Now()
	product, err := s.products.Find(ctx, id)
	s.observe("product_find", start)
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return product, nil
}

// ListProducts возвращает все товары.
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	start := time.Now()
	defer s.observe("product_list", start)

	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
