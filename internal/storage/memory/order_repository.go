package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]*domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]*domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(_ context.Context, order *domain.Order) error {
	snapshot, err := cloneOrder(order)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID()]; exists {
		return domain.ErrOrderAlreadyExists
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID()] = snapshot
	return nil
}

// Update перезаписывает заказ целиком.
func (r *orderRepositoryInMemory) Update(_ context.Context, order *domain.Order) error {
	snapshot, err := cloneOrder(order)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[order.ID()]; !ok {
		return domain.ErrOrderNotFound
	}
	r.items[order.ID()] = snapshot
	return nil
}

// Find возвращает копию заказа или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Find(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(order)
}

// FindAll возвращает все заказы в порядке возрастания ID.
func (r *orderRepositoryInMemory) FindAll(_ context.Context) ([]*domain.Order, error) {
	return r.collect("", 0)
}

// FindByCustomer возвращает заказы клиента, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) FindByCustomer(_ context.Context, customerID string, limit int) ([]*domain.Order, error) {
	return r.collect(customerID, limit)
}

func (r *orderRepositoryInMemory) collect(customerID string, limit int) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id, order := range r.items {
		if customerID != "" && order.CustomerID() != customerID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		order, err := cloneOrder(r.items[id])
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, nil
}

func cloneOrder(order *domain.Order) (*domain.Order, error) {
	return domain.NewOrder(order.ID(), order.CustomerID(), order.Items())
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
