package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"channelscout/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Yahoo serves at most 60 days of intraday bars
const yahooMaxIntradayDays = 60

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// NewYahooProvider creates a new Yahoo Finance provider. An empty baseURL
// uses the public chart endpoint.
func NewYahooProvider(baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// Supports accepts stocks and crypto pairs quoted against USD
func (p *YahooProvider) Supports(symbol string) bool {
	return yahooSymbol(symbol) != ""
}

// yahooResponse represents the Yahoo Finance API response. Missing bars come
// back as nulls, hence the pointers.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetCandles fetches the most recent count bars for a symbol
func (p *YahooProvider) GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error) {
	ysym := yahooSymbol(symbol)
	if ysym == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrUnsupported)}
	}

	end := p.now()
	start := end.AddDate(0, 0, -yahooLookbackDays(tf, count))

	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", yahooInterval(tf))
	q.Set("includePrePost", "false")
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(ysym), q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: resp.StatusCode >= 500}
	}

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description), Retryable: false}
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no data available"), Retryable: false}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		o, h, l, c := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		// Skip bars with any missing price
		if math.IsNaN(o) || math.IsNaN(h) || math.IsNaN(l) || math.IsNaN(c) {
			continue
		}

		v := at(quotes.Volume, i)
		if math.IsNaN(v) {
			v = 0
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(result.Timestamp[i], 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	return lastN(candles, count), nil
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}

func yahooInterval(tf model.Timeframe) string {
	switch tf {
	case model.Timeframe5m:
		return "5m"
	case model.Timeframe15m:
		return "15m"
	case model.Timeframe1h:
		return "60m"
	}
	return "1d"
}

// yahooLookbackDays converts a bar count into a calendar range wide enough
// to cover weekends and holidays
func yahooLookbackDays(tf model.Timeframe, count int) int {
	if count <= 0 {
		count = 100
	}
	if !tf.IsIntraday() {
		return count*7/5 + 10
	}

	// 6.5 hour regular session
	perDay := int((390 * time.Minute) / tf.Duration())
	if perDay < 1 {
		perDay = 1
	}
	days := (count/perDay+1)*7/5 + 3
	if days > yahooMaxIntradayDays {
		days = yahooMaxIntradayDays
	}
	return days
}

// yahooSymbol maps a symbol to Yahoo's notation (BTC/USDT -> BTC-USD).
// Returns "" for pairs Yahoo does not quote.
func yahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	if !model.IsCryptoSymbol(s) {
		return s
	}
	if strings.HasSuffix(s, "-USD") {
		return s
	}

	base := s
	if i := strings.Index(s, "/"); i >= 0 {
		base = s[:i]
	} else {
		for _, quote := range []string{"FDUSD", "USDT", "USDC", "BUSD"} {
			if strings.HasSuffix(s, quote) {
				base = strings.TrimSuffix(s, quote)
				break
			}
		}
	}
	if base == "" {
		return ""
	}
	return base + "-USD"
}
