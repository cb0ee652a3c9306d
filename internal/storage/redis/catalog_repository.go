package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type customerRepository struct {
	store *Store
}

// NewCustomerRepository создаёт Redis-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{store: store}
}

func (r *customerRepository) customerKey(id string) string { return r.store.key("customer", id) }
func (r *customerRepository) indexKey() string             { return r.store.key("customers") }

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return createHash(ctx, r.store, r.customerKey(customer.ID()), r.indexKey(), customer.ID(),
		customerFields(customer), domain.ErrCustomerAlreadyExists)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return replaceHash(ctx, r.store, r.customerKey(customer.ID()), customerFields(customer), domain.ErrCustomerNotFound)
}

func (r *customerRepository) Find(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	fields, err := r.store.client.HGetAll(ctx, r.customerKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read customer: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return parseCustomer(fields)
}

func (r *customerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := r.store.rangeIndex(ctx, r.indexKey(), 0)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Customer, 0, len(ids))
	for _, id := range ids {
		fields, err := r.store.client.HGetAll(ctx, r.customerKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("read customer %s: %w", id, err)
		}
		customer, err := parseCustomer(fields)
		if err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, nil
}

func customerFields(c *domain.Customer) map[string]any {
	fields := map[string]any{
		"id":            c.ID(),
		"name":          c.Name(),
		"active":        strconv.FormatBool(c.IsActive()),
		"reward_points": c.RewardPoints(),
	}
	if addr, ok := c.Address(); ok {
		fields["street"] = addr.Street
		fields["street_number"] = addr.Number
		fields["zip"] = addr.Zip
		fields["city"] = addr.City
	}
	return fields
}

func parseCustomer(fields map[string]string) (*domain.Customer, error) {
	id := fields["id"]
	active, err := strconv.ParseBool(fields["active"])
	if err != nil {
		return nil, fmt.Errorf("parse customer %s active: %w", id, err)
	}
	points, err := strconv.Atoi(fields["reward_points"])
	if err != nil {
		return nil, fmt.Errorf("parse customer %s reward points: %w", id, err)
	}

	var addr *domain.Address
	if street, ok := fields["street"]; ok {
		number, err := strconv.Atoi(fields["street_number"])
		if err != nil {
			return nil, fmt.Errorf("parse customer %s street number: %w", id, err)
		}
		addr = &domain.Address{Street: street, Number: number, Zip: fields["zip"], City: fields["city"]}
	}

	customer, err := domain.RestoreCustomer(id, fields["name"], addr, active, points)
	if err != nil {
		return nil, fmt.Errorf("restore customer %s: %w", id, err)
	}
	return customer, nil
}

type productRepository struct {
	store *Store
}

// NewProductRepository создаёт Redis-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store}
}

func (r *productRepository) productKey(id string) string { return r.store.key("product", id) }
func (r *productRepository) indexKey() string            { return r.store.key("products") }

func productFields(p *domain.Product) map[string]any {
	return map[string]any{"id": p.ID(), "name": p.Name(), "price": p.Price().String()}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return createHash(ctx, r.store, r.productKey(product.ID()), r.indexKey(), product.ID(),
		productFields(product), domain.ErrProductAlreadyExists)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return replaceHash(ctx, r.store, r.productKey(product.ID()), productFields(product), domain.ErrProductNotFound)
}

func (r *productRepository) Find(ctx context.Context, id string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	fields, err := r.store.client.HGetAll(ctx, r.productKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read product: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return parseProduct(fields)
}

func (r *productRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := r.store.rangeIndex(ctx, r.indexKey(), 0)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		fields, err := r.store.client.HGetAll(ctx, r.productKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("read product %s: %w", id, err)
		}
		product, err := parseProduct(fields)
		if err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, nil
}

func parseProduct(fields map[string]string) (*domain.Product, error) {
	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("parse product %s price: %w", fields["id"], err)
	}
	product, err := domain.NewProduct(fields["id"], fields["name"], price)
	if err != nil {
		return nil, fmt.Errorf("restore product %s: %w", fields["id"], err)
	}
	return product, nil
}

// createHash атомарно создаёт хеш и добавляет ID в индекс, если ключ свободен.
func createHash(ctx context.Context, store *Store, key, index, id string, fields map[string]any, exists error) error {
	return store.watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("check %s exists: %w", key, err)
		}
		if n > 0 {
			return exists
		}
		if _, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.ZAdd(ctx, index, goredis.Z{Member: id})
			return nil
		}); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	}, key)
}

// replaceHash перезаписывает существующий хеш целиком (поля адреса могут исчезнуть).
func replaceHash(ctx context.Context, store *Store, key string, fields map[string]any, notFound error) error {
	return store.watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("check %s exists: %w", key, err)
		}
		if n == 0 {
			return notFound
		}
		if _, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fields)
			return nil
		}); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	}, key)
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.ProductRepository  = (*productRepository)(nil)
)
