package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const customerSelect = `SELECT id, name, street, street_number, zip, city, active, reward_points FROM customers`

type customerRepository struct {
	store *Store
}

// NewCustomerRepository создаёт SQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{store: store}
}

type customerRow struct {
	id, name     string
	street       sql.NullString
	number       sql.NullInt64
	zip, city    sql.NullString
	active       bool
	rewardPoints int
}

func toCustomerRow(c *domain.Customer) customerRow {
	row := customerRow{id: c.ID(), name: c.Name(), active: c.IsActive(), rewardPoints: c.RewardPoints()}
	if addr, ok := c.Address(); ok {
		row.street = sql.NullString{String: addr.Street, Valid: true}
		row.number = sql.NullInt64{Int64: int64(addr.Number), Valid: true}
		row.zip = sql.NullString{String: addr.Zip, Valid: true}
		row.city = sql.NullString{String: addr.City, Valid: true}
	}
	return row
}

func (row *customerRow) scanArgs() []any {
	return []any{&row.id, &row.name, &row.street, &row.number, &row.zip, &row.city, &row.active, &row.rewardPoints}
}

func (row customerRow) toDomain() (*domain.Customer, error) {
	var addr *domain.Address
	if row.street.Valid {
		addr = &domain.Address{Street: row.street.String, Number: int(row.number.Int64), Zip: row.zip.String, City: row.city.String}
	}
	customer, err := domain.RestoreCustomer(row.id, row.name, addr, row.active, row.rewardPoints)
	if err != nil {
		return nil, fmt.Errorf("restore customer %s: %w", row.id, err)
	}
	return customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := toCustomerRow(customer)
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, tableCustomers, row.id)
		if err != nil {
			return err
		}
		if found {
			return domain.ErrCustomerAlreadyExists
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, street, street_number, zip, city, active, reward_points)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, row.id, row.name, row.street, row.number, row.zip, row.city, row.active, row.rewardPoints); err != nil {
			if isDuplicateKey(err) {
				return domain.ErrCustomerAlreadyExists
			}
			return fmt.Errorf("insert customer: %w", err)
		}
		return nil
	})
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := toCustomerRow(customer)
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, street = ?, street_number = ?, zip = ?, city = ?, active = ?, reward_points = ?
		WHERE id = ?
	`, row.name, row.street, row.number, row.zip, row.city, row.active, row.rewardPoints, row.id)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return expectAffected(res, domain.ErrCustomerNotFound)
}

func (r *customerRepository) Find(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var row customerRow
	if err := r.store.db.QueryRowContext(ctx, customerSelect+` WHERE id = ?`, id).Scan(row.scanArgs()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return row.toDomain()
}

func (r *customerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, customerSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Customer, 0)
	for rows.Next() {
		var row customerRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customer, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return result, nil
}

type productRepository struct {
	store *Store
}

// NewProductRepository создаёт SQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, tableProducts, product.ID())
		if err != nil {
			return err
		}
		if found {
			return domain.ErrProductAlreadyExists
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, price) VALUES (?, ?, ?)
		`, product.ID(), product.Name(), product.Price()); err != nil {
			if isDuplicateKey(err) {
				return domain.ErrProductAlreadyExists
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	})
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `
		UPDATE products SET name = ?, price = ? WHERE id = ?
	`, product.Name(), product.Price(), product.ID())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) Find(ctx context.Context, id string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		name  string
		price decimal.Decimal
	)
	err := r.store.db.QueryRowContext(ctx, `SELECT name, price FROM products WHERE id = ?`, id).Scan(&name, &price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return domain.NewProduct(id, name, price)
}

func (r *productRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `SELECT id, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Product, 0)
	for rows.Next() {
		var (
			id, name string
			price    decimal.Decimal
		)
		if err := rows.Scan(&id, &name, &price); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		product, err := domain.NewProduct(id, name, price)
		if err != nil {
			return nil, fmt.Errorf("restore product %s: %w", id, err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return result, nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.ProductRepository  = (*productRepository)(nil)
)
