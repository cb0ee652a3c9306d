package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// ErrNotDeadLetter — данные не являются записью DLQ, которую пишет Worker.
var ErrNotDeadLetter = errors.New("payload is not an outbox dead letter")

// DeadLetter — запись DLQ: исходное outbox-сообщение и причина отказа.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	Attempts      int             `json:"attempts"`
	FailedAt      time.Time       `json:"dlq_published_at"`
}

// NewDeadLetter упаковывает сообщение, которое не удалось опубликовать за attempts попыток.
// Невалидный JSON в payload заменяется на null.
func NewDeadLetter(event domain.OutboxMessage, attempts int, publishErr error, failedAt time.Time) DeadLetter {
	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("null")
	}

	letter := DeadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		Attempts:      attempts,
		FailedAt:      failedAt.UTC(),
	}
	if publishErr != nil {
		letter.PublishError = publishErr.Error()
	}
	return letter
}

// DecodeDeadLetter разбирает запись DLQ. Для чужих сообщений возвращает ErrNotDeadLetter.
func DecodeDeadLetter(raw []byte) (DeadLetter, error) {
	var letter DeadLetter
	if err := json.Unmarshal(raw, &letter); err != nil {
		return DeadLetter{}, fmt.Errorf("%w: %v", ErrNotDeadLetter, err)
	}
	if letter.OutboxID == "" && letter.PublishError == "" {
		return DeadLetter{}, ErrNotDeadLetter
	}
	return letter, nil
}

// Message восстанавливает исходное outbox-сообщение.
func (d DeadLetter) Message() (domain.OutboxMessage, error) {
	if len(d.Payload) == 0 || string(d.Payload) == "null" {
		return domain.OutboxMessage{}, fmt.Errorf("%w: original payload is missing", ErrNotDeadLetter)
	}
	return domain.OutboxMessage{
		ID:            d.OutboxID,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       []byte(d.Payload),
	}, nil
}

// dlqMessage — сообщение для DLQ-паблишера: метаданные исходного события, в payload запись DeadLetter.
func (d DeadLetter) dlqMessage(event domain.OutboxMessage) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal dead letter: %w", err)
	}
	dlq := event
	dlq.Payload = payload
	return dlq, nil
}
