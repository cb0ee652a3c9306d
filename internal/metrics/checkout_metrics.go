package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики операций над заказами и каталогом.
type CheckoutMetrics struct {
	ordersPlaced       prometheus.Counter
	quantityChanges    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec

	// Длительность обращений к хранилищу по операциям
	repositoryDuration *prometheus.HistogramVec

	outboxEnqueued *prometheus.CounterVec
}

// NewCheckoutMetrics регистрирует метрики в DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		quantityChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_item_quantity_changes_total",
			Help: "Total number of item quantity change requests grouped by result",
		}, []string{"result"}),
		validationFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_validation_failures_total",
			Help: "Total number of rejected domain operations grouped by error kind",
		}, []string{"kind"}),
		repositoryDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_repository_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"op"}),
		outboxEnqueued: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_outbox_events_enqueued_total",
			Help: "Total number of outbox enqueue attempts grouped by event type and result",
		}, []string{"event_type", "result"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик созданных заказов.
func (m *CheckoutMetrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// RecordQuantityChange учитывает запрос на изменение количества.
func (m *CheckoutMetrics) RecordQuantityChange(result string) {
	if m == nil {
		return
	}
	m.quantityChanges.WithLabelValues(result).Inc()
}

// RecordValidationFailure учитывает отказ доменной валидации.
func (m *CheckoutMetrics) RecordValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(kind).Inc()
}

// ObserveRepository записывает длительность операции хранилища.
func (m *CheckoutMetrics) ObserveRepository(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.repositoryDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordOutboxEnqueue учитывает попытку записи события в outbox.
func (m *CheckoutMetrics) RecordOutboxEnqueue(eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.outboxEnqueued.WithLabelValues(eventType, result).Inc()
}
