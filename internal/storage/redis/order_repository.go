package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type orderRepository struct {
	store *Store
}

// NewOrderRepository создаёт Redis-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

func (r *orderRepository) orderKey(id string) string { return r.store.key("order", id) }
func (r *orderRepository) indexKey() string          { return r.store.key("orders") }

// itemKey адресует позицию по её порядковому номеру: ID позиций внутри заказа не обязаны быть уникальными.
func (r *orderRepository) itemKey(id string, position int) string {
	return r.store.key("order", id, "item", strconv.Itoa(position))
}

func (r *orderRepository) customerIndexKey(customerID string) string {
	return r.store.key("customer", customerID, "orders")
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := r.orderKey(order.ID())
	return r.store.watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if n > 0 {
			return domain.ErrOrderAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			r.write(ctx, pipe, order)
			return nil
		})
		if err != nil {
			return fmt.Errorf("write order: %w", err)
		}
		return nil
	}, key)
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := r.orderKey(order.ID())
	return r.store.watch(ctx, func(tx *goredis.Tx) error {
		previous, err := tx.HMGet(ctx, key, "customer_id", "items").Result()
		if err != nil {
			return fmt.Errorf("read order: %w", err)
		}
		previousCustomer, ok := previous[0].(string)
		if !ok {
			return domain.ErrOrderNotFound
		}
		previousCount, err := itemCount(previous[1])
		if err != nil {
			return fmt.Errorf("read order %s: %w", order.ID(), err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for position := len(order.Items()); position < previousCount; position++ {
				pipe.Del(ctx, r.itemKey(order.ID(), position))
			}
			if previousCustomer != order.CustomerID() {
				pipe.ZRem(ctx, r.customerIndexKey(previousCustomer), order.ID())
			}
			r.write(ctx, pipe, order)
			return nil
		})
		if err != nil {
			return fmt.Errorf("write order: %w", err)
		}
		return nil
	}, key)
}

// write ставит в pipeline полную запись заказа: хеш, позиции и индексы.
func (r *orderRepository) write(ctx context.Context, pipe goredis.Pipeliner, order *domain.Order) {
	pipe.HSet(ctx, r.orderKey(order.ID()),
		"id", order.ID(),
		"customer_id", order.CustomerID(),
		"total", order.Total().String(),
		"items", len(order.Items()),
	)
	for position, item := range order.Items() {
		pipe.HSet(ctx, r.itemKey(order.ID(), position),
			"id", item.ID(),
			"name", item.Name(),
			"price", item.Price().String(),
			"quantity", item.Quantity(),
			"product_id", item.ProductID(),
		)
	}
	pipe.ZAdd(ctx, r.indexKey(), goredis.Z{Member: order.ID()})
	pipe.ZAdd(ctx, r.customerIndexKey(order.CustomerID()), goredis.Z{Member: order.ID()})
}

func (r *orderRepository) Find(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.load(ctx, id)
}

func (r *orderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := r.store.rangeIndex(ctx, r.indexKey(), 0)
	if err != nil {
		return nil, err
	}
	return r.loadMany(ctx, ids)
}

func (r *orderRepository) FindByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := r.store.rangeIndex(ctx, r.customerIndexKey(customerID), limit)
	if err != nil {
		return nil, err
	}
	return r.loadMany(ctx, ids)
}

func (r *orderRepository) loadMany(ctx context.Context, ids []string) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *orderRepository) load(ctx context.Context, id string) (*domain.Order, error) {
	fields, err := r.store.client.HGetAll(ctx, r.orderKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	total, err := decimal.NewFromString(fields["total"])
	if err != nil {
		return nil, fmt.Errorf("parse order %s total: %w", id, err)
	}

	count, err := itemCount(fields["items"])
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", id, err)
	}

	cmds := make([]*goredis.MapStringStringCmd, 0, count)
	if _, err := r.store.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for position := 0; position < count; position++ {
			cmds = append(cmds, pipe.HGetAll(ctx, r.itemKey(id, position)))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read order item hashes: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cmds))
	for _, cmd := range cmds {
		item, err := parseItem(cmd.Val())
		if err != nil {
			return nil, fmt.Errorf("parse order %s item: %w", id, err)
		}
		items = append(items, item)
	}

	order, err := domain.RestoreOrder(fields["id"], fields["customer_id"], total, items)
	if err != nil {
		return nil, fmt.Errorf("restore order %s: %w", id, err)
	}
	return order, nil
}

// itemCount разбирает поле items хеша заказа.
func itemCount(raw any) (int, error) {
	value, _ := raw.(string)
	count, err := strconv.Atoi(value)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid item count %q", value)
	}
	return count, nil
}

func parseItem(fields map[string]string) (domain.OrderItem, error) {
	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("price: %w", err)
	}
	quantity, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("quantity: %w", err)
	}
	return domain.NewOrderItem(fields["id"], fields["name"], price, fields["product_id"], quantity), nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
