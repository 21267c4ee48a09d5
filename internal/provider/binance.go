package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"channelscout/pkg/model"
)

const binanceBaseURL = "https://api.binance.com"

// Binance caps a klines request at 1000 bars
const binanceMaxLimit = 1000

// BinanceProvider fetches crypto klines from the public Binance REST API
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	enabled bool
}

// NewBinanceProvider creates a Binance provider. An empty baseURL uses the
// public endpoint.
func NewBinanceProvider(baseURL string, enabled bool) *BinanceProvider {
	if baseURL == "" {
		baseURL = binanceBaseURL
	}
	return &BinanceProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		enabled: enabled,
	}
}

// Name returns the provider name
func (p *BinanceProvider) Name() string {
	return "binance"
}

// IsAvailable returns whether the provider is enabled in config
func (p *BinanceProvider) IsAvailable() bool {
	return p.enabled
}

// Supports accepts crypto pairs only
func (p *BinanceProvider) Supports(symbol string) bool {
	return BinanceSymbol(symbol) != ""
}

// GetCandles fetches the most recent count klines
func (p *BinanceProvider) GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error) {
	pair := BinanceSymbol(symbol)
	if pair == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrUnsupported)}
	}

	limit := count
	if limit <= 0 || limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	params := url.Values{}
	params.Set("symbol", pair)
	params.Set("interval", binanceInterval(tf))
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("reading response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418:
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("API error %d: %s", resp.StatusCode, body), Retryable: resp.StatusCode >= 500}
	}

	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("parsing klines: %w", err)}
	}

	candles := make([]model.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(int64(openTime)).UTC(),
			Open:   parseFloat(k[1]),
			High:   parseFloat(k[2]),
			Low:    parseFloat(k[3]),
			Close:  parseFloat(k[4]),
			Volume: parseFloat(k[5]),
		})
	}

	return lastN(candles, count), nil
}

// parseFloat reads Binance's string-encoded numbers
func parseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case float64:
		return val
	}
	return 0
}

func binanceInterval(tf model.Timeframe) string {
	switch tf {
	case model.Timeframe5m:
		return "5m"
	case model.Timeframe15m:
		return "15m"
	case model.Timeframe1h:
		return "1h"
	}
	return "1d"
}

// BinanceSymbol normalizes a crypto pair to Binance notation
// (BTC/USDT, BTC-USD and btcusdt all map to BTCUSDT). Returns "" for
// non-crypto symbols.
func BinanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !model.IsCryptoSymbol(s) {
		return ""
	}
	if strings.HasSuffix(s, "-USD") {
		return strings.TrimSuffix(s, "-USD") + "USDT"
	}
	return strings.ReplaceAll(s, "/", "")
}
