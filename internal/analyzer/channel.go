package analyzer

import (
	"math"

	"channelscout/pkg/model"
)

// ChannelStatus describes where the latest close sits relative to the channel
type ChannelStatus string

const (
	StatusNearSupport    ChannelStatus = "near_support"
	StatusNearResistance ChannelStatus = "near_resistance"
	StatusInside         ChannelStatus = "inside"
	StatusBrokenOut      ChannelStatus = "broken_out"
	StatusBrokenDown     ChannelStatus = "broken_down"
	StatusNoChannel      ChannelStatus = "no_channel"
)

// ChannelDirection is the sign of the channel slope
type ChannelDirection string

const (
	DirectionRising  ChannelDirection = "rising"
	DirectionFalling ChannelDirection = "falling"
	DirectionFlat    ChannelDirection = "flat"
)

// Channel is a fitted support/resistance pair projected to the latest bar
type Channel struct {
	HasChannel        bool             `json:"has_channel"`
	Support           float64          `json:"support"`
	Resistance        float64          `json:"resistance"`
	Slope             float64          `json:"slope"`     // price units per bar
	SlopePct          float64          `json:"slope_pct"` // percent of mid price per bar
	WidthPct          float64          `json:"width_pct"`
	Direction         ChannelDirection `json:"direction"`
	Status            ChannelStatus    `json:"status"`
	SupportTouches    int              `json:"support_touches"`
	ResistanceTouches int              `json:"resistance_touches"`
}

// Height returns resistance minus support at the latest bar
func (c Channel) Height() float64 {
	if !c.HasChannel {
		return 0
	}
	return c.Resistance - c.Support
}

// ChannelConfig holds channel fitting thresholds. Percentages are in percent
// units (1.5 = 1.5%).
type ChannelConfig struct {
	MinBars           int     `yaml:"min_bars"`
	Lookback          int     `yaml:"lookback"`
	PivotSpan         int     `yaml:"pivot_span"` // bars on each side of a swing point
	TouchTolerancePct float64 `yaml:"touch_tolerance_pct"`
	MinTouches        int     `yaml:"min_touches"`
	MinTouchRatio     float64 `yaml:"min_touch_ratio"` // share of a side's swings that must touch its line
	MinWidthPct       float64 `yaml:"min_width_pct"`
	MaxWidthPct       float64 `yaml:"max_width_pct"`
	MinHeightATR      float64 `yaml:"min_height_atr"` // channel height in ATR14 of the fitted bars
	ProximityPct      float64 `yaml:"proximity_pct"`
	BreakoutPct       float64 `yaml:"breakout_pct"`
	FlatSlopePct      float64 `yaml:"flat_slope_pct"`
}

// DefaultChannelConfig returns the default channel thresholds
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		MinBars:           MinBars,
		Lookback:          40,
		PivotSpan:         2,
		TouchTolerancePct: 1.0,
		MinTouches:        2,
		MinTouchRatio:     0.5,
		MinWidthPct:       2.0,
		MaxWidthPct:       25.0,
		MinHeightATR:      4.0,
		ProximityPct:      1.5,
		BreakoutPct:       0.5,
		FlatSlopePct:      0.05,
	}
}

// ChannelDetector fits price channels over a lookback window
type ChannelDetector struct {
	config ChannelConfig
}

// NewChannelDetector creates a channel detector
func NewChannelDetector(cfg ChannelConfig) *ChannelDetector {
	if cfg.PivotSpan < 1 {
		cfg.PivotSpan = 1
	}
	if cfg.MinTouches < 2 {
		cfg.MinTouches = 2
	}
	return &ChannelDetector{config: cfg}
}

// DetectChannel runs the default detector
func DetectChannel(candles []model.Candle, lookback int) Channel {
	return NewChannelDetector(DefaultChannelConfig()).Detect(candles, lookback)
}

// Detect fits support through swing lows and resistance through swing highs
// of the lookback window, excluding the latest bar, then classifies the
// latest close against both lines projected forward. lookback <= 0 uses the
// configured default.
//
// Both fitted lines are shifted outward until they bound every bar of the fit,
// so touches are swings that actually test the edge of the range. Ranges
// narrower than MinHeightATR average true ranges are bar noise, not a channel.
func (d *ChannelDetector) Detect(candles []model.Candle, lookback int) Channel {
	empty := Channel{Direction: DirectionFlat, Status: StatusNoChannel}

	candles = Sanitize(candles)
	minBars := d.config.MinBars
	if floor := 2*d.config.PivotSpan + 3; minBars < floor {
		minBars = floor
	}
	if len(candles) < minBars {
		return empty
	}

	if lookback <= 0 {
		lookback = d.config.Lookback
	}
	if lookback <= 0 || lookback > len(candles) {
		lookback = len(candles)
	}
	if lookback < minBars {
		return empty
	}

	window := candles[len(candles)-lookback:]
	fit := window[:len(window)-1]
	lastX := float64(len(window) - 1)

	lows := swingPoints(fit, d.config.PivotSpan, true)
	highs := swingPoints(fit, d.config.PivotSpan, false)
	if len(lows) < 2 || len(highs) < 2 {
		return empty
	}

	supLine := boundBelow(fitLine(lows), fit)
	resLine := boundAbove(fitLine(highs), fit)

	support := supLine.at(lastX)
	resistance := resLine.at(lastX)
	if support <= 0 || resistance <= support || resLine.at(0) <= supLine.at(0) {
		return empty
	}

	supTouches := countTouches(lows, supLine, d.config.TouchTolerancePct)
	resTouches := countTouches(highs, resLine, d.config.TouchTolerancePct)
	if !d.confirmed(supTouches, len(lows)) || !d.confirmed(resTouches, len(highs)) {
		return empty
	}

	widthPct := (resistance - support) / support * 100
	if widthPct <= d.config.MinWidthPct || widthPct >= d.config.MaxWidthPct {
		return empty
	}
	if atr := CalculateATR(fit, 14); atr > 0 && resistance-support < d.config.MinHeightATR*atr {
		return empty
	}

	slope := (supLine.slope + resLine.slope) / 2
	slopePct := slope / ((support + resistance) / 2) * 100

	direction := DirectionFlat
	if slopePct > d.config.FlatSlopePct {
		direction = DirectionRising
	} else if slopePct < -d.config.FlatSlopePct {
		direction = DirectionFalling
	}

	return Channel{
		HasChannel:        true,
		Support:           support,
		Resistance:        resistance,
		Slope:             slope,
		SlopePct:          slopePct,
		WidthPct:          widthPct,
		Direction:         direction,
		Status:            d.classify(lastClose(window), support, resistance),
		SupportTouches:    supTouches,
		ResistanceTouches: resTouches,
	}
}

// confirmed reports whether a line has enough touches, both absolutely and
// as a share of the swings it was fitted through
func (d *ChannelDetector) confirmed(touches, swings int) bool {
	if touches < d.config.MinTouches {
		return false
	}
	return float64(touches) >= d.config.MinTouchRatio*float64(swings)
}

func (d *ChannelDetector) classify(price, support, resistance float64) ChannelStatus {
	if price > resistance*(1+d.config.BreakoutPct/100) {
		return StatusBrokenOut
	}
	if price < support*(1-d.config.BreakoutPct/100) {
		return StatusBrokenDown
	}

	distSup := math.Abs(price-support) / support * 100
	distRes := math.Abs(resistance-price) / resistance * 100
	nearSup := distSup <= d.config.ProximityPct
	nearRes := distRes <= d.config.ProximityPct

	switch {
	case nearSup && nearRes:
		if distSup <= distRes {
			return StatusNearSupport
		}
		return StatusNearResistance
	case nearSup:
		return StatusNearSupport
	case nearRes:
		return StatusNearResistance
	}
	return StatusInside
}

type point struct {
	x, y float64
}

type line struct {
	slope, intercept float64
}

func (l line) at(x float64) float64 {
	return l.intercept + l.slope*x
}

// swingPoints returns bars whose low (or high) is the extreme of the
// surrounding ±span bars. The extreme must be strict against the bars to the
// left, so a flat-bottomed (flat-topped) run yields a single swing at its
// first bar. Bars closer than span to either edge are skipped.
func swingPoints(candles []model.Candle, span int, lows bool) []point {
	var pts []point
	for i := span; i < len(candles)-span; i++ {
		v := candles[i].High
		if lows {
			v = candles[i].Low
		}

		extreme := true
		for j := i - span; j <= i+span && extreme; j++ {
			switch {
			case j == i:
			case lows && j < i:
				extreme = candles[j].Low > v
			case lows:
				extreme = candles[j].Low >= v
			case j < i:
				extreme = candles[j].High < v
			default:
				extreme = candles[j].High <= v
			}
		}
		if extreme {
			pts = append(pts, point{x: float64(i), y: v})
		}
	}
	return pts
}

// boundBelow shifts l down until no low of candles sits beneath it
func boundBelow(l line, candles []model.Candle) line {
	var shift float64
	for i, c := range candles {
		shift = math.Max(shift, l.at(float64(i))-c.Low)
	}
	l.intercept -= shift
	return l
}

// boundAbove shifts l up until no high of candles sits above it
func boundAbove(l line, candles []model.Candle) line {
	var shift float64
	for i, c := range candles {
		shift = math.Max(shift, c.High-l.at(float64(i)))
	}
	l.intercept += shift
	return l
}

// fitLine is an ordinary least squares fit; pts must hold two distinct x values
func fitLine(pts []point) line {
	n := float64(len(pts))
	var sx, sy, sxx, sxy float64
	for _, p := range pts {
		sx += p.x
		sy += p.y
		sxx += p.x * p.x
		sxy += p.x * p.y
	}

	den := n*sxx - sx*sx
	if den == 0 {
		return line{intercept: sy / n}
	}
	slope := (n*sxy - sx*sy) / den
	return line{slope: slope, intercept: (sy - slope*sx) / n}
}

func countTouches(pts []point, l line, tolerancePct float64) int {
	touches := 0
	for _, p := range pts {
		ref := l.at(p.x)
		if ref <= 0 {
			continue
		}
		if math.Abs(p.y-ref)/ref*100 <= tolerancePct {
			touches++
		}
	}
	return touches
}
