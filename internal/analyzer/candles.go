package analyzer

import (
	"math"

	"channelscout/pkg/model"
)

// MinBars is the shortest series any detector will analyze
const MinBars = 20

// Sanitize drops bars that cannot be real prices: NaN/Inf fields,
// non-positive prices, high below low, or open/close outside the range.
// The input slice is returned unchanged when every bar is valid.
func Sanitize(candles []model.Candle) []model.Candle {
	bad := 0
	for _, c := range candles {
		if !validBar(c) {
			bad++
		}
	}
	if bad == 0 {
		return candles
	}

	clean := make([]model.Candle, 0, len(candles)-bad)
	for _, c := range candles {
		if validBar(c) {
			clean = append(clean, c)
		}
	}
	return clean
}

func validBar(c model.Candle) bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.Low <= 0 || c.High < c.Low || c.Volume < 0 {
		return false
	}
	if c.Open < c.Low || c.Open > c.High || c.Close < c.Low || c.Close > c.High {
		return false
	}
	return true
}

// candleShape holds the geometry of a single bar
type candleShape struct {
	body  float64
	upper float64
	lower float64
	rng   float64
	green bool
	red   bool
}

func shapeOf(c model.Candle) candleShape {
	return candleShape{
		body:  math.Abs(c.Close - c.Open),
		upper: c.High - math.Max(c.Open, c.Close),
		lower: math.Min(c.Open, c.Close) - c.Low,
		rng:   c.High - c.Low,
		green: c.Close > c.Open,
		red:   c.Close < c.Open,
	}
}

func lastClose(candles []model.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	return candles[len(candles)-1].Close
}

func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
