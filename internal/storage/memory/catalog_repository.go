package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// customerRepositoryInMemory хранит клиентов в памяти (для разработки/тестов).
type customerRepositoryInMemory struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

// NewCustomerRepository создаёт in-memory реализацию CustomerRepository.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{customers: make(map[string]*domain.Customer)}
}

func (r *customerRepositoryInMemory) Create(_ context.Context, customer *domain.Customer) error {
	snapshot, err := cloneCustomer(customer)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.customers[customer.ID()]; exists {
		return domain.ErrCustomerAlreadyExists
	}
	r.customers[customer.ID()] = snapshot
	return nil
}

func (r *customerRepositoryInMemory) Update(_ context.Context, customer *domain.Customer) error {
	snapshot, err := cloneCustomer(customer)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[customer.ID()]; !ok {
		return domain.ErrCustomerNotFound
	}
	r.customers[customer.ID()] = snapshot
	return nil
}

func (r *customerRepositoryInMemory) Find(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(customer)
}

func (r *customerRepositoryInMemory) FindAll(_ context.Context) ([]*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		clone, err := cloneCustomer(customer)
		if err != nil {
			return nil, err
		}
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result, nil
}

func cloneCustomer(customer *domain.Customer) (*domain.Customer, error) {
	var addr *domain.Address
	if a, ok := customer.Address(); ok {
		addr = &a
	}
	return domain.RestoreCustomer(customer.ID(), customer.Name(), addr, customer.IsActive(), customer.RewardPoints())
}

// productRepositoryInMemory хранит каталог товаров в памяти.
type productRepositoryInMemory struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewProductRepository создаёт in-memory реализацию ProductRepository.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{products: make(map[string]*domain.Product)}
}

func (r *productRepositoryInMemory) Create(_ context.Context, product *domain.Product) error {
	snapshot, err := domain.NewProduct(product.ID(), product.Name(), product.Price())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID()]; exists {
		return domain.ErrProductAlreadyExists
	}
	r.products[product.ID()] = snapshot
	return nil
}

func (r *productRepositoryInMemory) Update(_ context.Context, product *domain.Product) error {
	snapshot, err := domain.NewProduct(product.ID(), product.Name(), product.Price())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID()]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[product.ID()] = snapshot
	return nil
}

func (r *productRepositoryInMemory) Find(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return domain.NewProduct(product.ID(), product.Name(), product.Price())
}

func (r *productRepositoryInMemory) FindAll(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		clone, err := domain.NewProduct(product.ID(), product.Name(), product.Price())
		if err != nil {
			return nil, err
		}
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result, nil
}

var (
	_ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
	_ domain.ProductRepository  = (*productRepositoryInMemory)(nil)
)
