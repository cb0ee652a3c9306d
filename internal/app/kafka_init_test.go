package app

import (
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	for _, brokers := range [][]string{nil, {}, {"", " , "}} {
		producer, err := initKafkaProducer(brokers, "checkout-test", logger)
		if err != nil {
			t.Errorf("expected no error for empty brokers %v, got %v", brokers, err)
		}
		if producer != nil {
			t.Errorf("expected nil producer for empty brokers %v", brokers)
		}
	}
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Несуществующий broker: ошибка возвращается, producer nil.
	producer, err := initKafkaProducer([]string{"invalid-broker:9999"}, "checkout-test", logger)
	if err == nil {
		t.Error("expected error for invalid brokers")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestNormalizeBrokers(t *testing.T) {
	got := normalizeBrokers([]string{"broker1:9092, broker2:9092", "", " broker3:9092 "})
	want := []string{"broker1:9092", "broker2:9092", "broker3:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeBrokers() = %v, want %v", got, want)
	}
}

func TestCloseKafkaProducer_NilProducer(_ *testing.T) {
	// Не должно паниковать
	closeKafkaProducer(nil, log.WithField("test", "kafka"))
}
