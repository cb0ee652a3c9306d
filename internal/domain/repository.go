package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
// Реализации записывают total = Order.Total() при каждом Create/Update
// и восстанавливают агрегат через NewOrder при чтении.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists, если ID занят.
	Create(ctx context.Context, order *Order) error
	// Update перезаписывает позиции и сумму заказа или возвращает ErrOrderNotFound.
	Update(ctx context.Context, order *Order) error
	// Find возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Find(ctx context.Context, id string) (*Order, error)
	// FindAll возвращает все заказы, отсортированные по ID.
	FindAll(ctx context.Context) ([]*Order, error)
	// FindByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	FindByCustomer(ctx context.Context, customerID string, limit int) ([]*Order, error)
}

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	Find(ctx context.Context, id string) (*Customer, error)
	FindAll(ctx context.Context) ([]*Customer, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Find(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
}
