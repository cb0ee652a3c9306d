package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Service — прикладной слой над заказами и каталогом.
type Service struct {
	orders    domain.OrderRepository
	customers domain.CustomerRepository
	products  domain.ProductRepository
	outbox    domain.OutboxRepository

	logger  *log.Entry
	metrics *metrics.CheckoutMetrics
	newID   func() string
	locks   *keyedMutex
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics включает запись метрик.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOutbox задаёт outbox для доменных событий. Без него события не пишутся.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// NewService создаёт сервис.
func NewService(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	options ...Option,
) *Service {
	s := &Service{
		orders:    orders,
		customers: customers,
		products:  products,
		newID:     uuid.NewString,
		locks:     newKeyedMutex(),
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "checkout-service")
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// observe записывает длительность операции хранилища.
func (s *Service) observe(op string, start time.Time) {
	s.metrics.ObserveRepository(op, time.Since(start))
}

// reject учитывает доменный отказ и возвращает ошибку без изменений.
func (s *Service) reject(err error) error {
	if kind := errorKind(err); kind != "" {
		s.metrics.RecordValidationFailure(kind)
	}
	return err
}

// emit пишет событие в outbox. Ошибки только логируются.
func (s *Service) emit(ctx context.Context, aggregateType, aggregateID, eventType string, event any) {
	if s.outbox == nil {
		return
	}

	entry := s.logger.WithFields(log.Fields{
		"aggregate_id": aggregateID,
		"event":        eventType,
	})

	payload, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Error("marshal event failed")
		s.metrics.RecordOutboxEnqueue(eventType, false)
		return
	}

	_, err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		ID:            s.newID(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		entry.WithError(err).Error("enqueue event failed")
		s.metrics.RecordOutboxEnqueue(eventType, false)
		return
	}
	s.metrics.RecordOutboxEnqueue(eventType, true)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingIdentifier):
		return "missing_identifier"
	case errors.Is(err, domain.ErrEmptyItemList):
		return "empty_item_list"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, domain.ErrInvalidAttribute):
		return "invalid_attribute"
	default:
		return ""
	}
}

// keyedMutex сериализует read-modify-write одного агрегата внутри процесса.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock захватывает блокировку ключа и возвращает функцию освобождения.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
