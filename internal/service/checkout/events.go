package checkout

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Полезные нагрузки outbox-событий. Их сериализованный вид публикуется как payload
// конверта брокера, поэтому теги json являются контрактом с потребителями.

// OrderItemEvent — позиция заказа в событии. Денежные значения передаются строками.
type OrderItemEvent struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
}

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType     string           `json:"event_type"`
	OrderID       string           `json:"order_id"`
	CustomerID    string           `json:"customer_id"`
	Total         string           `json:"total"`
	Items         []OrderItemEvent `json:"items"`
	ChangedItemID string           `json:"changed_item_id,omitempty"` // только для order.item_quantity_changed
	Timestamp     time.Time        `json:"timestamp"`
}

// AddressEvent — адрес клиента в событии.
type AddressEvent struct {
	Street string `json:"street"`
	Number int    `json:"number"`
	Zip    string `json:"zip"`
	City   string `json:"city"`
}

// CustomerEvent представляет событие клиента
type CustomerEvent struct {
	EventType  string        `json:"event_type"`
	CustomerID string        `json:"customer_id"`
	Name       string        `json:"name"`
	Active     bool          `json:"active"`
	Address    *AddressEvent `json:"address,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ProductEvent представляет событие товара
type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// newOrderEvent строит событие из текущего состояния агрегата.
func newOrderEvent(eventType string, order *domain.Order) *OrderEvent {
	items := order.Items()
	event := &OrderEvent{
		EventType:  eventType,
		OrderID:    order.ID(),
		CustomerID: order.CustomerID(),
		Total:      order.Total().String(),
		Items:      make([]OrderItemEvent, 0, len(items)),
		Timestamp:  time.Now().UTC(),
	}
	for _, item := range items {
		event.Items = append(event.Items, OrderItemEvent{
			ID:         item.ID(),
			ProductID:  item.ProductID(),
			Name:       item.Name(),
			Price:      item.Price().String(),
			Quantity:   item.Quantity(),
			TotalPrice: item.TotalPrice().String(),
		})
	}
	return event
}

func newCustomerEvent(eventType string, customer *domain.Customer) *CustomerEvent {
	event := &CustomerEvent{
		EventType:  eventType,
		CustomerID: customer.ID(),
		Name:       customer.Name(),
		Active:     customer.IsActive(),
		Timestamp:  time.Now().UTC(),
	}
	if addr, ok := customer.Address(); ok {
		event.Address = &AddressEvent{Street: addr.Street, Number: addr.Number, Zip: addr.Zip, City: addr.City}
	}
	return event
}

func newProductEvent(eventType string, product *domain.Product) *ProductEvent {
	return &ProductEvent{
		EventType: eventType,
		ProductID: product.ID(),
		Name:      product.Name(),
		Price:     product.Price().String(),
		Timestamp: time.Now().UTC(),
	}
}
