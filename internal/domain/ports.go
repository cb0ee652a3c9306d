package domain

import (
	"context"
	"time"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// Типы агрегатов в outbox.
const (
	AggregateTypeOrder    = "order"
	AggregateTypeCustomer = "customer"
	AggregateTypeProduct  = "product"
)

// Типы событий в outbox.
const (
	EventOrderCreated             = "order.created"
	EventOrderItemQuantityChanged = "order.item_quantity_changed"
	EventCustomerRegistered       = "customer.registered"
	EventCustomerAddressChanged   = "customer.address_changed"
	EventProductCreated           = "product.created"
	EventProductPriceChanged      = "product.price_changed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
