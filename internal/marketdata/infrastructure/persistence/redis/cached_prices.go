// Package redis 参考价的 Redis 读穿缓存层。
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ordermanagement/internal/marketdata/domain"
	"github.com/wyfcoding/ordermanagement/pkg/cache"
)

// CachedPrices 在内存权威表外挂一层共享缓存：多实例部署时消费行情的
// 实例写穿，其余实例读穿。缓存只存价格字符串，Redis 故障一律退回内层。
type CachedPrices struct {
	inner  domain.PriceRepository
	cache  *cache.RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedPrices 创建带缓存的参考价存取
func NewCachedPrices(inner domain.PriceRepository, c *cache.RedisCache, ttl time.Duration, logger *slog.Logger) *CachedPrices {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedPrices{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("module", "price_cache"),
	}
}

func priceKey(symbol string) string {
	return "marketdata:refprice:" + symbol
}

// Get 读穿：缓存命中直接返回，未命中读内层并回填
func (c *CachedPrices) Get(ctx context.Context, symbol string) (*domain.ReferencePrice, error) {
	val, err := c.cache.Get(ctx, priceKey(symbol))
	if err != nil {
		c.logger.WarnContext(ctx, "参考价缓存读取失败，退回内存表", "symbol", symbol, "error", err)
	} else if val != "" {
		if px, perr := decimal.NewFromString(val); perr == nil {
			return &domain.ReferencePrice{Symbol: symbol, Price: px}, nil
		}
	}

	p, err := c.inner.Get(ctx, symbol)
	if err != nil || p == nil {
		return p, err
	}
	if serr := c.cache.Set(ctx, priceKey(symbol), p.Price.String(), c.ttl); serr != nil {
		c.logger.WarnContext(ctx, "参考价缓存回填失败", "symbol", symbol, "error", serr)
	}
	return p, nil
}

// Set 写穿：先落内层权威表，再刷新缓存
func (c *CachedPrices) Set(ctx context.Context, price *domain.ReferencePrice) error {
	if err := c.inner.Set(ctx, price); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, priceKey(price.Symbol), price.Price.String(), c.ttl); err != nil {
		c.logger.WarnContext(ctx, "参考价缓存写入失败", "symbol", price.Symbol, "error", err)
	}
	return nil
}

// List 全量列表直接走内层
func (c *CachedPrices) List(ctx context.Context) ([]*domain.ReferencePrice, error) {
	return c.inner.List(ctx)
}
