package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// ItemInput описывает позицию нового заказа.
// Пустые Name и Price берутся из каталога по ProductID.
type ItemInput struct {
	ID        string
	ProductID string
	Name      string
	Price     decimal.NullDecimal
	Quantity  int
}

// PlaceOrderInput — параметры создания заказа. Пустой OrderID генерируется.
type PlaceOrderInput struct {
	OrderID    string
	CustomerID string
	Items      []ItemInput
}

// PlaceOrder создаёт и сохраняет заказ, затем пишет order.created в outbox.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	orderID := in.OrderID
	if orderID == "" {
		orderID = s.newID()
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, input := range in.Items {
		item, err := s.buildItem(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(orderID, in.CustomerID, items)
	if err != nil {
		return nil, s.reject(err)
	}

	start := time.Now()
	err = s.orders.Create(ctx, order)
	s.observe("order_create", start)
	if err != nil {
		return nil, fmt.Errorf("create order %s: %w", order.ID(), err)
	}

	s.metrics.RecordOrderPlaced()
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID(),
		"customer_id": order.CustomerID(),
		"total":       order.Total().String(),
	}).Info("order placed")

	s.emit(ctx, domain.AggregateTypeOrder, order.ID(), domain.EventOrderCreated,
		newOrderEvent(domain.EventOrderCreated, order))
	return order, nil
}

func (s *Service) buildItem(ctx context.Context, in ItemInput) (domain.OrderItem, error) {
	id := in.ID
	if id == "" {
		id = s.newID()
	}

	name, price := in.Name, in.Price.Decimal
	if in.ProductID != "" && (name == "" || !in.Price.Valid) {
		start := time.Now()
		product, err := s.products.Find(ctx, in.ProductID)
		s.observe("product_find", start)
		if err != nil {
			return domain.OrderItem{}, fmt.Errorf("resolve item %s: %w", id, err)
		}
		if name == "" {
			name = product.Name()
		}
		if !in.Price.Valid {
			price = product.Price()
		}
	}

	return domain.NewOrderItem(id, name, price, in.ProductID, in.Quantity), nil
}

// ChangeItemQuantity меняет количество позиции заказа.
// Неположительное количество оставляет заказ без изменений и ничего не сохраняет.
func (s *Service) ChangeItemQuantity(ctx context.Context, orderID, itemID string, quantity int) (*domain.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	item, ok := order.Item(itemID)
	if !ok {
		s.metrics.RecordQuantityChange("rejected")
		return nil, s.reject(fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID))
	}

	if err := order.ChangeItemQuantity(item, quantity); err != nil {
		s.metrics.RecordQuantityChange("rejected")
		return nil, s.reject(err)
	}
	if quantity <= 0 {
		s.metrics.RecordQuantityChange("noop")
		return order, nil
	}

	start := time.Now()
	err = s.orders.Update(ctx, order)
	s.observe("order_update", start)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", order.ID(), err)
	}
	s.metrics.RecordQuantityChange("changed")

	event := newOrderEvent(domain.EventOrderItemQuantityChanged, order)
	event.ChangedItemID = itemID
	s.emit(ctx, domain.AggregateTypeOrder, order.ID(), domain.EventOrderItemQuantityChanged, event)
	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, s.reject(domain.ErrOrderIDRequired)
	}

	start := time.Now()
	order, err := s.orders.Find(ctx, orderID)
	s.observe("order_find", start)
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return order, nil
}

// ListOrders возвращает заказы клиента или все заказы, если customerID пуст.
// limit <= 0 означает без ограничения.
func (s *Service) ListOrders(ctx context.Context, customerID string, limit int) ([]*domain.Order, error) {
	start := time.Now()
	defer s.observe("order_list", start)

	if customerID != "" {
		orders, err := s.orders.FindByCustomer(ctx, customerID, limit)
		if err != nil {
			return nil, fmt.Errorf("list orders of %s: %w", customerID, err)
		}
		return orders, nil
	}

	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
