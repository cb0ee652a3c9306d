package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type orderRepository struct {
	store *Store
}

// NewOrderRepository создаёт SQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

type orderRow struct {
	id         string
	customerID string
	total      decimal.Decimal
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, tableOrders, order.ID())
		if err != nil {
			return err
		}
		if found {
			return domain.ErrOrderAlreadyExists
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, customer_id, total) VALUES (?, ?, ?)
		`, order.ID(), order.CustomerID(), order.Total()); err != nil {
			if isDuplicateKey(err) {
				return domain.ErrOrderAlreadyExists
			}
			return fmt.Errorf("insert order: %w", err)
		}
		return insertItems(ctx, tx, order)
	})
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders SET customer_id = ?, total = ? WHERE id = ?
		`, order.CustomerID(), order.Total(), order.ID())
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := expectAffected(res, domain.ErrOrderNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID()); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		return insertItems(ctx, tx, order)
	})
}

func (r *orderRepository) Find(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var row orderRow
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, customer_id, total FROM orders WHERE id = ?
	`, id).Scan(&row.id, &row.customerID, &row.total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return r.restore(ctx, row)
}

func (r *orderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.list(ctx, `SELECT id, customer_id, total FROM orders ORDER BY id`)
}

func (r *orderRepository) FindByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT id, customer_id, total FROM orders WHERE customer_id = ? ORDER BY id`
	if limit > 0 {
		return r.list(ctx, query+" LIMIT ?", customerID, limit)
	}
	return r.list(ctx, query, customerID)
}

// list сначала вычитывает заголовки и закрывает курсор: у SQLite одно соединение.
func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	headers, err := r.scanHeaders(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(headers))
	for _, row := range headers {
		order, err := r.restore(ctx, row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *orderRepository) scanHeaders(ctx context.Context, query string, args ...any) ([]orderRow, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	headers := make([]orderRow, 0)
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(&row.id, &row.customerID, &row.total); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		headers = append(headers, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return headers, nil
}

func (r *orderRepository) restore(ctx context.Context, row orderRow) (*domain.Order, error) {
	items, err := r.loadItems(ctx, row.id)
	if err != nil {
		return nil, err
	}
	order, err := domain.RestoreOrder(row.id, row.customerID, row.total, items)
	if err != nil {
		return nil, fmt.Errorf("restore order %s: %w", row.id, err)
	}
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, name, price, quantity, product_id
		FROM order_items
		WHERE order_id = ?
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			id, name, productID string
			price               decimal.Decimal
			quantity            int
		)
		if err := rows.Scan(&id, &name, &price, &quantity, &productID); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, domain.NewOrderItem(id, name, price, productID, quantity))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	for position, item := range order.Items() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, id, position, name, price, quantity, product_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			order.ID(), item.ID(), position, item.Name(), item.Price(), item.Quantity(), item.ProductID(),
		); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ID(), err)
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
