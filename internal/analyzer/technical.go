package analyzer

import (
	"math"

	"github.com/markcheno/go-talib"

	"channelscout/pkg/model"
)

// Indicators contains the technical context shared by the scorer and the
// trade plan generator
type Indicators struct {
	RSI         float64 `json:"rsi"`
	RSISignal   string  `json:"rsi_signal"`
	ATR         float64 `json:"atr"`
	VolumeRatio float64 `json:"volume_ratio"`
	PriceVsMA20 float64 `json:"price_vs_ma20"`
	TrendSignal string  `json:"trend_signal"`
}

// CalculateIndicators computes RSI14, ATR14, volume ratio and MA20 position.
// Fields that need more history than available keep neutral defaults.
func CalculateIndicators(candles []model.Candle) Indicators {
	ind := Indicators{RSI: 50, RSISignal: "neutral", VolumeRatio: 1.0, TrendSignal: "neutral"}

	if len(candles) == 0 {
		return ind
	}

	ind.RSI = CalculateRSI(candles, 14)
	ind.RSISignal = rsiSignal(ind.RSI)
	ind.ATR = CalculateATR(candles, 14)
	ind.VolumeRatio = CalculateVolumeRatio(candles, 20)
	ind.PriceVsMA20 = priceVsMA(candles, 20)

	if ind.PriceVsMA20 > 1 {
		ind.TrendSignal = "uptrend"
	} else if ind.PriceVsMA20 < -1 {
		ind.TrendSignal = "downtrend"
	}

	return ind
}

// CalculateRSI returns the latest Wilder RSI, or 50 with too little history
func CalculateRSI(candles []model.Candle, period int) float64 {
	if len(candles) < period+2 {
		return 50
	}
	rsi := talib.Rsi(closes(candles), period)
	v := rsi[len(rsi)-1]
	if math.IsNaN(v) {
		return 50
	}
	return v
}

// CalculateATR returns the latest Average True Range. Short series fall back
// to the mean high-low range.
func CalculateATR(candles []model.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period+2 {
		var sum float64
		for _, c := range candles {
			sum += c.High - c.Low
		}
		return sum / float64(len(candles))
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	atr := talib.Atr(highs, lows, closes(candles), period)
	return atr[len(atr)-1]
}

// CalculateVolumeRatio compares the latest bar's volume with the mean of the
// preceding period bars
func CalculateVolumeRatio(candles []model.Candle, period int) float64 {
	return RecentVolumeRatio(candles, 1, period)
}

// RecentVolumeRatio compares the mean volume of the last recent bars with the
// mean of the baseline bars before them. Returns 1.0 when undefined.
func RecentVolumeRatio(candles []model.Candle, recent, baseline int) float64 {
	n := len(candles)
	if recent < 1 || n < recent+1 {
		return 1.0
	}

	start := n - recent - baseline
	if start < 0 {
		start = 0
	}

	var base float64
	for i := start; i < n-recent; i++ {
		base += candles[i].Volume
	}
	base /= float64(n - recent - start)
	if base == 0 {
		return 1.0
	}

	var cur float64
	for i := n - recent; i < n; i++ {
		cur += candles[i].Volume
	}
	cur /= float64(recent)

	return cur / base
}

// priceVsMA returns the latest close's distance from the simple moving average, in percent
func priceVsMA(candles []model.Candle, period int) float64 {
	if period < 2 || len(candles) < period {
		return 0
	}

	sma := talib.Sma(closes(candles), period)
	ma := sma[len(sma)-1]
	if ma == 0 || math.IsNaN(ma) {
		return 0
	}

	return (lastClose(candles) - ma) / ma * 100
}

func rsiSignal(rsi float64) string {
	if rsi < 30 {
		return "oversold"
	} else if rsi > 70 {
		return "overbought"
	}
	return "neutral"
}
