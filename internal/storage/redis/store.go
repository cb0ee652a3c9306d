// Package redis хранит заказы и каталог в Redis: агрегат в хеше,
// позиции заказа в списке идентификаторов плюс хеш на каждую позицию,
// индексы в sorted set с нулевым score (лексикографический порядок по ID).
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "checkout:"
	defaultTimeout   = 5 * time.Second
	opTimeout        = 5 * time.Second
	maxTxAttempts    = 3
)

var errStoreNotInitialized = errors.New("redis store is not initialized")

// Store оборачивает клиента Redis и префикс ключей.
type Store struct {
	client *goredis.Client
	prefix string
}

// Option настраивает Store.
type Option func(*Store)

// WithKeyPrefix задаёт префикс всех ключей (удобно для изоляции тестов).
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// Open подключается к Redis и проверяет доступность сервера.
func Open(ctx context.Context, addr string, db int, opts ...Option) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: defaultTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewStore(client, opts...), nil
}

// NewStore создаёт Store поверх готового клиента.
func NewStore(client *goredis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client возвращает клиента Redis.
func (s *Store) Client() *goredis.Client {
	return s.client
}

// Ping проверяет доступность сервера.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errStoreNotInitialized
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

// Close закрывает клиента.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(parts ...string) string {
	return s.prefix + strings.Join(parts, ":")
}

// watch выполняет оптимистичную транзакцию WATCH/MULTI и повторяет её при конфликте.
func (s *Store) watch(ctx context.Context, fn func(tx *goredis.Tx) error, keys ...string) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction retries exhausted: %w", err)
}

// rangeIndex читает участников индекса по возрастанию; limit<=0 — без ограничения.
func (s *Store) rangeIndex(ctx context.Context, index string, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRange(ctx, index, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", index, err)
	}
	return ids, nil
}
