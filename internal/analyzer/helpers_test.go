package analyzer

import (
	"math"
	"time"

	"channelscout/pkg/model"
)

var testStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c, v float64) model.Candle {
	return model.Candle{Time: testStart.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c, Volume: v}
}

func tri(p int) float64 {
	if p < 5 {
		return float64(p) / 5
	}
	return float64(10-p) / 5
}

// risingChannelBars builds 39 bars oscillating inside a channel that rises
// 0.2 per bar: swing lows on 99.8+0.2i, swing highs on 105.2+0.2i
func risingChannelBars() []model.Candle {
	candles := make([]model.Candle, 0, 40)
	for i := 0; i < 39; i++ {
		base := 100 + 0.2*float64(i)
		p := (i + 1) % 10
		c := base + 5*tri(p)
		o := c + 0.3
		if p >= 1 && p <= 5 {
			o = c - 0.3
		}
		hi, lo := o, c
		if c > o {
			hi, lo = c, o
		}
		candles = append(candles, bar(i, o, hi+0.2, lo-0.2, c, 1000))
	}
	return candles
}

// supportBounce ends the rising channel with a high-volume hammer just above
// support (107.6 at the last bar, resistance 113.0)
func supportBounce() []model.Candle {
	return append(risingChannelBars(), bar(39, 108.1, 108.35, 107.4, 108.3, 1500))
}

// withLast replaces the final bar of the rising channel
func withLast(o, h, l, c float64) []model.Candle {
	return append(risingChannelBars(), bar(39, o, h, l, c, 1000))
}

// mirror reflects prices around 100 so every bullish structure becomes its
// bearish counterpart
func mirror(candles []model.Candle) []model.Candle {
	out := make([]model.Candle, len(candles))
	for i, c := range candles {
		out[i] = model.Candle{
			Time:   c.Time,
			Open:   200 - c.Open,
			High:   200 - c.Low,
			Low:    200 - c.High,
			Close:  200 - c.Close,
			Volume: c.Volume,
		}
	}
	return out
}

// flatBars returns n identical narrow bars
func flatBars(n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = bar(i, 99.95, 100.2, 99.8, 100.05, 1000)
	}
	return candles
}

// doubleBottom falls to a trough, rises to a single flat-topped peak, falls
// to a second trough at the same level and recovers
func doubleBottom() []model.Candle {
	path := func(i int) float64 {
		switch {
		case i <= 9:
			return 104 - 0.6*float64(i)
		case i <= 19:
			return 98.6 + 0.64*float64(i-9)
		case i == 20:
			return 105
		case i <= 30:
			return 105 - 0.64*float64(i-20)
		}
		return 98.6 + 0.3*float64(i-30)
	}

	candles := make([]model.Candle, 40)
	prev := path(0)
	for i := range candles {
		c := path(i)
		candles[i] = bar(i, prev, math.Max(prev, c)+0.1, math.Min(prev, c)-0.1, c, 1000)
		prev = c
	}
	return candles
}

// sidewaysBars wanders up to ±amp around 100 with no trend. The fixed-seed
// generator keeps every run identical.
func sidewaysBars(n int, seed uint32, amp float64) []model.Candle {
	state := seed
	next := func() float64 {
		state = state*1664525 + 1013904223
		return float64(state>>8) / (1 << 24)
	}

	candles := make([]model.Candle, n)
	prev := 100.0
	for i := range candles {
		c := 100 * (1 + amp*(2*next()-1))
		h := math.Max(prev, c) * (1 + 0.005*next())
		l := math.Min(prev, c) * (1 - 0.005*next())
		candles[i] = bar(i, prev, h, l, c, 1000)
		prev = c
	}
	return candles
}
