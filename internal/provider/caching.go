package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"channelscout/internal/cache"
	"channelscout/pkg/model"
)

// CachingProvider wraps a Provider with a TTL cache for GetCandles so repeated
// scans of the same universe do not refetch every symbol
type CachingProvider struct {
	inner  Provider
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachingProvider creates a caching wrapper
func NewCachingProvider(inner Provider, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachingProvider {
	return &CachingProvider{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger.With().Str("component", "candle_cache").Logger(),
	}
}

func (p *CachingProvider) Name() string               { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool          { return p.inner.IsAvailable() }
func (p *CachingProvider) Supports(symbol string) bool { return p.inner.Supports(symbol) }

// GetCandles serves from cache when possible. Cache failures are logged and
// fall through to the inner provider.
func (p *CachingProvider) GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error) {
	key := candleKey(p.inner.Name(), symbol, tf, count)

	if raw, err := p.cache.Get(ctx, key); err == nil {
		var candles []model.Candle
		if err := json.Unmarshal(raw, &candles); err == nil {
			p.logger.Debug().Str("key", key).Int("bars", len(candles)).Msg("cache hit")
			return candles, nil
		}
		p.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, cache.ErrMiss) {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	candles, err := p.inner.GetCandles(ctx, symbol, tf, count)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(candles); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return candles, nil
}

func candleKey(provider, symbol string, tf model.Timeframe, count int) string {
	return fmt.Sprintf("candles:%s:%s:%s:%d", provider, strings.ToUpper(symbol), tf, count)
}
