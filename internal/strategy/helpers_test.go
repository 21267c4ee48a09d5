package strategy

import (
	"math"
	"time"

	"channelscout/internal/analyzer"
	"channelscout/pkg/model"
)

var testStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c, v float64) model.Candle {
	return model.Candle{Time: testStart.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c, Volume: v}
}

// channelBars oscillates inside a channel rising 0.2 per bar: swing lows on
// 99.8+0.2i, swing highs on 105.2+0.2i
func channelBars() []model.Candle {
	candles := make([]model.Candle, 0, 40)
	for i := 0; i < 39; i++ {
		base := 100 + 0.2*float64(i)
		p := (i + 1) % 10
		tri := float64(p) / 5
		if p >= 5 {
			tri = float64(10-p) / 5
		}
		c := base + 5*tri
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

// bounceBars ends the channel with a high-volume hammer just above support
func bounceBars() []model.Candle {
	return append(channelBars(), bar(39, 108.1, 108.35, 107.4, 108.3, 1500))
}

func mirrorBars(candles []model.Candle) []model.Candle {
	out := make([]model.Candle, len(candles))
	for i, c := range candles {
		out[i] = model.Candle{
			Time: c.Time, Open: 200 - c.Open, High: 200 - c.Low,
			Low: 200 - c.High, Close: 200 - c.Close, Volume: c.Volume,
		}
	}
	return out
}

func flatBars(n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = bar(i, 99.95, 100.2, 99.8, 100.05, 1000)
	}
	return candles
}

// sidewaysBars wanders up to ±amp around 100 with no trend, from a fixed seed
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

// detected runs the default detectors the way the pipeline does
func detected(symbol string, candles []model.Candle) PlanInput {
	return PlanInput{
		Symbol:  symbol,
		Candles: candles,
		Channel: analyzer.DetectChannel(candles, 40),
		Pattern: analyzer.DetectPatterns(candles),
	}
}
