// Package cache holds the Redis-backed inventory ledger used when stock has
// to be shared by several backend instances without going through the
// product table on every checkout.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "pos:stock:"

// decrementScript returns {status, value}:
// status -1: key missing; 0: insufficient, value is the stock; 1: done, value is the new stock.
var decrementScript = redis.NewScript(`
local stock = redis.call('GET', KEYS[1])
if not stock then
	return {-1, 0}
end
stock = tonumber(stock)
local qty = tonumber(ARGV[1])
if stock < qty then
	return {0, stock}
end
return {1, redis.call('DECRBY', KEYS[1], qty)}
`)

// incrementScript adds to an existing key only, so a missing key is loaded
// from the backing ledger instead of starting at zero.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {-1, 0}
end
return {1, redis.call('INCRBY', KEYS[1], tonumber(ARGV[1]))}
`)

// RedisInventoryLedger keeps per-product stock counters in Redis. Counters are
// loaded on first use from a backing ledger, and every successful move is
// mirrored to it so an evicted or lost key reloads a current value.
type RedisInventoryLedger struct {
	client    redis.UniversalClient
	backing   inventory.Ledger
	keyPrefix string
	keyTTL    time.Duration
	logger    *zap.Logger
}

// RedisLedgerOption configures a RedisInventoryLedger
type RedisLedgerOption func(*RedisInventoryLedger)

// WithKeyPrefix overrides the "pos:stock:" key prefix
func WithKeyPrefix(prefix string) RedisLedgerOption {
	return func(l *RedisInventoryLedger) {
		l.keyPrefix = prefix
	}
}

// WithKeyTTL expires loaded counters after ttl so they are refreshed from
// the backing ledger. Zero keeps them until evicted.
func WithKeyTTL(ttl time.Duration) RedisLedgerOption {
	return func(l *RedisInventoryLedger) {
		l.keyTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisLedgerOption {
	return func(l *RedisInventoryLedger) {
		l.logger = logger
	}
}

// NewRedisInventoryLedger creates a ledger on client backed by backing
func NewRedisInventoryLedger(client redis.UniversalClient, backing inventory.Ledger, opts ...RedisLedgerOption) *RedisInventoryLedger {
	l := &RedisInventoryLedger{
		client:    client,
		backing:   backing,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetStock returns the counter, loading it first when needed
func (l *RedisInventoryLedger) GetStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	stock, err := l.client.Get(ctx, l.key(productID)).Int64()
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read stock counter: %w", err)
	}
	return l.load(ctx, productID)
}

// TryDecrement subtracts quantity atomically in Redis when enough stock is left
func (l *RedisInventoryLedger) TryDecrement(ctx context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	status, value, err := l.runLoaded(ctx, decrementScript, productID, quantity)
	if err != nil {
		return err
	}
	if status == 0 {
		return inventory.NewInsufficientStockError(productID, value, quantity)
	}

	if err := l.backing.TryDecrement(ctx, productID, quantity); err != nil {
		l.logger.Warn("Failed to mirror stock decrement",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)
	}
	return nil
}

// Restock adds quantity to the counter
func (l *RedisInventoryLedger) Restock(ctx context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	if _, _, err := l.runLoaded(ctx, incrementScript, productID, quantity); err != nil {
		return err
	}

	if err := l.backing.Restock(ctx, productID, quantity); err != nil {
		l.logger.Warn("Failed to mirror restock",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)
	}
	return nil
}

// Evict drops the counter of a product
func (l *RedisInventoryLedger) Evict(ctx context.Context, productID uuid.UUID) error {
	if err := l.client.Del(ctx, l.key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to evict stock counter: %w", err)
	}
	return nil
}

// runLoaded runs script and, when the key is missing, loads it once and retries
func (l *RedisInventoryLedger) runLoaded(ctx context.Context, script *redis.Script, productID uuid.UUID, quantity int64) (int64, int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		res, err := script.Run(ctx, l.client, []string{l.key(productID)}, quantity).Int64Slice()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to run stock script: %w", err)
		}
		if len(res) != 2 {
			return 0, 0, fmt.Errorf("unexpected stock script reply %v", res)
		}
		if res[0] != -1 {
			return res[0], res[1], nil
		}
		if _, err := l.load(ctx, productID); err != nil {
			return 0, 0, err
		}
	}
	return 0, 0, fmt.Errorf("stock counter for %s vanished while loading", productID)
}

// load seeds the counter from the backing ledger. SETNX keeps a counter that
// another instance loaded first, and the winning value is returned.
func (l *RedisInventoryLedger) load(ctx context.Context, productID uuid.UUID) (int64, error) {
	stock, err := l.backing.GetStock(ctx, productID)
	if err != nil {
		return 0, err
	}

	key := l.key(productID)
	if err := l.client.SetNX(ctx, key, stock, l.keyTTL).Err(); err != nil {
		return 0, fmt.Errorf("failed to load stock counter: %w", err)
	}
	current, err := l.client.Get(ctx, key).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to read stock counter: %w", err)
	}
	l.logger.Debug("Stock counter loaded",
		zap.String("product_id", productID.String()),
		zap.Int64("stock", current),
	)
	return current, nil
}

func (l *RedisInventoryLedger) key(productID uuid.UUID) string {
	return l.keyPrefix + productID.String()
}

var _ inventory.Ledger = (*RedisInventoryLedger)(nil)
