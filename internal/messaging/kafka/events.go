package kafka

import (
	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "checkout.order.events"
	TopicCatalogEvents   = "checkout.catalog.events"
	TopicDeadLetterQueue = "checkout.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderOutboxID      = "x-outbox-id"
	HeaderAggregateType = "x-aggregate-type"
)

// TopicFor возвращает topic по типу агрегата.
func TopicFor(aggregateType string) string {
	switch aggregateType {
	case domain.AggregateTypeCustomer, domain.AggregateTypeProduct:
		return TopicCatalogEvents
	default:
		return TopicOrderEvents
	}
}
