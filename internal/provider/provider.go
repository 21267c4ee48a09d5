package provider

import (
	"context"
	"errors"
	"fmt"

	"channelscout/pkg/model"
)

// ErrUnsupported is returned when no provider serves a symbol
var ErrUnsupported = errors.New("symbol not supported")

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider can be used
	IsAvailable() bool

	// Supports reports whether the provider can quote a symbol
	Supports(symbol string) bool

	// GetCandles fetches up to count bars, oldest first
	GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error)
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider error worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil && p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// Supports returns true if any provider supports the symbol
func (f *FallbackProvider) Supports(symbol string) bool {
	for _, p := range f.providers {
		if p.Supports(symbol) {
			return true
		}
	}
	return false
}

// GetCandles tries each supporting provider in order until one succeeds
func (f *FallbackProvider) GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error) {
	var lastErr error
	for _, p := range f.providers {
		if !p.Supports(symbol) {
			continue
		}
		candles, err := p.GetCandles(ctx, symbol, tf, count)
		if err == nil && len(candles) > 0 {
			return candles, nil
		}
		if err == nil {
			err = &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no data for %s", symbol)}
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnsupported)
	}
	return nil, lastErr
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// lastN trims candles to the most recent count bars
func lastN(candles []model.Candle, count int) []model.Candle {
	if count > 0 && len(candles) > count {
		return candles[len(candles)-count:]
	}
	return candles
}
