// Package rediscache кэширует справочники в Redis поверх основного CatalogStore.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

const (
	defaultTTL       = 30 * time.Second
	defaultKeyPrefix = "bms:catalog"

	entityProduct       = "product"
	entityPerson        = "person"
	entitySupplier      = "supplier"
	entityPaymentMethod = "payment_method"
)

// CatalogCache кэширует справочники по схеме read-through. Ошибки Redis не ломают чтение:
// запрос уходит в основной store. Отсутствующие записи не кэшируются.
type CatalogCache struct {
	client *redis.Client
	next   domain.CatalogStore
	ttl    time.Duration
	prefix string
	logger *log.Entry
}

// Option настраивает CatalogCache.
type Option func(*CatalogCache)

// WithTTL задаёт время жизни записи; значение <= 0 игнорируется.
func WithTTL(ttl time.Duration) Option {
	return func(c *CatalogCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix меняет префикс ключей (удобно для изоляции тестов).
func WithKeyPrefix(prefix string) Option {
	return func(c *CatalogCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(c *CatalogCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient создаёт клиента Redis по адресу host:port.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewCatalogCache оборачивает next кэшем в Redis.
func NewCatalogCache(client *redis.Client, next domain.CatalogStore, opts ...Option) (*CatalogCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if next == nil {
		return nil, errors.New("backing catalog store is required")
	}

	c := &CatalogCache{
		client: client,
		next:   next,
		ttl:    defaultTTL,
		prefix: defaultKeyPrefix,
		logger: log.WithField("component", "catalog-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ping проверяет доступность Redis; используется health-проверкой.
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CatalogCache) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	return readThrough(ctx, c, entityProduct, id, c.next.FindProduct)
}

func (c *CatalogCache) FindPerson(ctx context.Context, id int64) (domain.Person, error) {
	return readThrough(ctx, c, entityPerson, id, c.next.FindPerson)
}

func (c *CatalogCache) FindSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	return readThrough(ctx, c, entitySupplier, id, c.next.FindSupplier)
}

func (c *CatalogCache) FindPaymentMethod(ctx context.Context, id int64) (domain.PaymentMethod, error) {
	return readThrough(ctx, c, entityPaymentMethod, id, c.next.FindPaymentMethod)
}

// InvalidateProduct удаляет товар из кэша, например после смены цены.
func (c *CatalogCache) InvalidateProduct(ctx context.Context, id int64) error {
	return c.client.Del(ctx, c.key(entityProduct, id)).Err()
}

func (c *CatalogCache) key(entity string, id int64) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, entity, strconv.FormatInt(id, 10))
}

func readThrough[T any](ctx context.Context, c *CatalogCache, entity string, id int64, load func(context.Context, int64) (T, error)) (T, error) {
	key := c.key(entity, id)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.WithField("key", key).Warn("dropping undecodable cache entry")
		_ = c.client.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("key", key).Debug("catalog cache read failed")
	}

	value, err := load(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("failed to encode catalog entry")
		return value, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("catalog cache write failed")
	}
	return value, nil
}

var _ domain.CatalogStore = (*CatalogCache)(nil)
