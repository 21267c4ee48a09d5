package model

import (
	"strings"
	"time"
)

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // fractional for crypto
}

// AssetClass distinguishes stocks from crypto pairs
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// Instrument represents a tradable symbol
type Instrument struct {
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	Class  AssetClass `json:"class"`
}

// Timeframe is the bar interval requested from a provider
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe1d  Timeframe = "1d"
)

// Duration returns the nominal length of one bar
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// IsIntraday reports whether bars are shorter than a session
func (tf Timeframe) IsIntraday() bool {
	return tf.Duration() < 24*time.Hour
}

// cryptoQuotes are quote assets recognised on concatenated pair symbols (BTCUSDT)
var cryptoQuotes = []string{"USDT", "USDC", "BUSD", "FDUSD"}

// IsCryptoSymbol reports whether a symbol looks like a crypto pair:
// BTC-USD, ETH/USDT or BTCUSDT.
func IsCryptoSymbol(symbol string) bool {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, "-USD") || strings.Contains(s, "/") {
		return true
	}
	for _, q := range cryptoQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return true
		}
	}
	return false
}

// NewInstrument builds an instrument, inferring the asset class from the symbol
func NewInstrument(symbol string) Instrument {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	class := AssetStock
	if IsCryptoSymbol(sym) {
		class = AssetCrypto
	}
	return Instrument{Symbol: sym, Name: sym, Class: class}
}
