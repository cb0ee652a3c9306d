package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

// customerColumns содержит nullable-поля адреса.
type customerColumns struct {
	id, name     string
	street       sql.NullString
	number       sql.NullInt64
	zip, city    sql.NullString
	active       bool
	rewardPoints int
}

func newCustomerColumns(c *domain.Customer) customerColumns {
	cols := customerColumns{id: c.ID(), name: c.Name(), active: c.IsActive(), rewardPoints: c.RewardPoints()}
	if addr, ok := c.Address(); ok {
		cols.street = sql.NullString{String: addr.Street, Valid: true}
		cols.number = sql.NullInt64{Int64: int64(addr.Number), Valid: true}
		cols.zip = sql.NullString{String: addr.Zip, Valid: true}
		cols.city = sql.NullString{String: addr.City, Valid: true}
	}
	return cols
}

func (c customerColumns) restore() (*domain.Customer, error) {
	var addr *domain.Address
	if c.street.Valid {
		addr = &domain.Address{
			Street: c.street.String,
			Number: int(c.number.Int64),
			Zip:    c.zip.String,
			City:   c.city.String,
		}
	}
	customer, err := domain.RestoreCustomer(c.id, c.name, addr, c.active, c.rewardPoints)
	if err != nil {
		return nil, fmt.Errorf("restore customer %s: %w", c.id, err)
	}
	return customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c := newCustomerColumns(customer)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, street, street_number, zip, city, active, reward_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.id, c.name, c.street, c.number, c.zip, c.city, c.active, c.rewardPoints)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerAlreadyExists
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c := newCustomerColumns(customer)
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, street = $3, street_number = $4, zip = $5, city = $6,
		    active = $7, reward_points = $8
		WHERE id = $1
	`, c.id, c.name, c.street, c.number, c.zip, c.city, c.active, c.rewardPoints)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return expectAffected(res, domain.ErrCustomerNotFound)
}

func (r *customerRepository) Find(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c customerColumns
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, street, street_number, zip, city, active, reward_points
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.id, &c.name, &c.street, &c.number, &c.zip, &c.city, &c.active, &c.rewardPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return c.restore()
}

func (r *customerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, street, street_number, zip, city, active, reward_points
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Customer, 0)
	for rows.Next() {
		var c customerColumns
		if err := rows.Scan(&c.id, &c.name, &c.street, &c.number, &c.zip, &c.city, &c.active, &c.rewardPoints); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customer, err := c.restore()
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
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price) VALUES ($1, $2, $3)
	`, product.ID(), product.Name(), product.Price())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = $2, price = $3 WHERE id = $1
	`, product.ID(), product.Name(), product.Price())
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
	err := r.db.QueryRowContext(ctx, `SELECT name, price FROM products WHERE id = $1`, id).Scan(&name, &price)
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

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price FROM products ORDER BY id`)
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

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.ProductRepository  = (*productRepository)(nil)
)
