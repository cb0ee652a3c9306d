package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderItem представляет одну позицию заказа.
// Значение неизменяемо: смена количества создаёт новую позицию через WithQuantity.
type OrderItem struct {
	id        string
	name      string
	price     decimal.Decimal
	productID string
	quantity  int
}

// NewOrderItem создаёт позицию. Количество проверяется на уровне заказа, а не здесь.
func NewOrderItem(id, name string, price decimal.Decimal, productID string, quantity int) OrderItem {
	return OrderItem{
		id:        id,
		name:      name,
		price:     price,
		productID: productID,
		quantity:  quantity,
	}
}

// ID позиции нужен для однозначной идентификации внутри заказа.
func (i OrderItem) ID() string { return i.id }

// Name — название товара на момент оформления.
func (i OrderItem) Name() string { return i.name }

// Price — цена за единицу.
func (i OrderItem) Price() decimal.Decimal { return i.price }

// ProductID — ссылка на агрегат Product.
func (i OrderItem) ProductID() string { return i.productID }

// Quantity — количество единиц товара.
func (i OrderItem) Quantity() int { return i.quantity }

// TotalPrice возвращает price * quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.price.Mul(decimal.NewFromInt(int64(i.quantity)))
}

// WithQuantity возвращает копию позиции с новым количеством.
func (i OrderItem) WithQuantity(quantity int) OrderItem {
	i.quantity = quantity
	return i
}

// Order агрегирует позиции заказа и охраняет его инварианты.
// Сумма заказа не хранится: Total всегда считается по текущим позициям.
type Order struct {
	id         string
	customerID string
	items      []OrderItem
}

// NewOrder собирает заказ и проверяет инварианты.
// При нарушении возвращается nil и первая найденная ошибка — частично собранный заказ не наблюдаем.
func NewOrder(id, customerID string, items []OrderItem) (*Order, error) {
	order := &Order{
		id:         id,
		customerID: customerID,
		items:      append([]OrderItem(nil), items...),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// RestoreOrder восстанавливает заказ из хранилища и сверяет сохранённую сумму с суммой позиций.
func RestoreOrder(id, customerID string, storedTotal decimal.Decimal, items []OrderItem) (*Order, error) {
	order, err := NewOrder(id, customerID, items)
	if err != nil {
		return nil, err
	}
	if !order.Total().Equal(storedTotal) {
		return nil, fmt.Errorf("%w: order %s stored=%s computed=%s", ErrTotalMismatch, id, storedTotal, order.Total())
	}
	return order, nil
}

// ID возвращает идентификатор заказа.
func (o *Order) ID() string { return o.id }

// CustomerID возвращает идентификатор клиента.
func (o *Order) CustomerID() string { return o.customerID }

// Items возвращает копию позиций в исходном порядке.
func (o *Order) Items() []OrderItem {
	return append([]OrderItem(nil), o.items...)
}

// Item ищет позицию по идентификатору.
func (o *Order) Item(id string) (OrderItem, bool) {
	if idx := o.indexOf(id); idx >= 0 {
		return o.items[idx], true
	}
	return OrderItem{}, false
}

// Total возвращает сумму TotalPrice всех позиций.
func (o *Order) Total() decimal.Decimal {
	return sumItems(o.items)
}

// Validate проверяет инварианты заказа. Порядок проверок фиксирован, возвращается первая ошибка.
func (o *Order) Validate() error {
	return validateOrder(o.id, o.customerID, o.items)
}

// ChangeItemQuantity заменяет позицию копией с новым количеством.
// Неположительное количество игнорируется. Новое состояние проверяется до присвоения,
// поэтому при ошибке заказ остаётся прежним.
func (o *Order) ChangeItemQuantity(item OrderItem, newQuantity int) error {
	idx := o.indexOf(item.ID())
	if idx < 0 {
		return ErrItemNotFound
	}

	candidate := o.items
	if newQuantity > 0 {
		candidate = append([]OrderItem(nil), o.items...)
		candidate[idx] = o.items[idx].WithQuantity(newQuantity)
	}

	if err := validateOrder(o.id, o.customerID, candidate); err != nil {
		return err
	}
	o.items = candidate
	return nil
}

func (o *Order) indexOf(itemID string) int {
	for i := range o.items {
		if o.items[i].id == itemID {
			return i
		}
	}
	return -1
}

func validateOrder(id, customerID string, items []OrderItem) error {
	if id == "" {
		return ErrOrderIDRequired
	}
	if customerID == "" {
		return ErrCustomerIDRequired
	}
	if len(items) == 0 {
		return ErrItemsRequired
	}
	for _, item := range items {
		if item.quantity <= 0 {
			return ErrItemQuantityInvalid
		}
	}
	return nil
}

func sumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice())
	}
	return total
}
