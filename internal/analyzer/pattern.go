package analyzer

import (
	"channelscout/pkg/model"
)

// PatternType names a candlestick pattern
type PatternType string

const (
	PatternNone             PatternType = "none"
	PatternBullishEngulfing PatternType = "bullish_engulfing"
	PatternBearishEngulfing PatternType = "bearish_engulfing"
	PatternHammer           PatternType = "hammer"
	PatternShootingStar     PatternType = "shooting_star"
	PatternDoji             PatternType = "doji"
	PatternPiercingLine     PatternType = "piercing_line"
	PatternDarkCloudCover   PatternType = "dark_cloud_cover"
)

// Bias is a directional lean
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// PatternPrecedence is the evaluation order of the detector. When several
// patterns match the same bars the earliest entry is reported.
var PatternPrecedence = []PatternType{
	PatternBullishEngulfing,
	PatternBearishEngulfing,
	PatternHammer,
	PatternShootingStar,
	PatternPiercingLine,
	PatternDarkCloudCover,
	PatternDoji,
}

// Direction returns the bias a pattern implies
func (p PatternType) Direction() Bias {
	switch p {
	case PatternBullishEngulfing, PatternHammer, PatternPiercingLine:
		return BiasBullish
	case PatternBearishEngulfing, PatternShootingStar, PatternDarkCloudCover:
		return BiasBearish
	}
	return BiasNeutral
}

// Actionable reports whether the pattern is directional enough to trade on its own
func (p PatternType) Actionable() bool {
	return p.Direction() != BiasNeutral
}

// PatternResult is the dominant pattern on the latest bars
type PatternResult struct {
	MainPattern PatternType `json:"main_pattern"`
	Direction   Bias        `json:"direction"`
	BarIndex    int         `json:"bar_index"` // index of the completing bar, -1 if none
}

// PatternConfig holds candlestick geometry thresholds
type PatternConfig struct {
	DojiBodyPct         float64 `yaml:"doji_body_pct"`         // body/range at or below this is a doji
	WickBodyRatio       float64 `yaml:"wick_body_ratio"`       // hammer/star wick vs body
	ShadowRangeFraction float64 `yaml:"shadow_range_fraction"` // hammer/star wick share of range
}

// DefaultPatternConfig returns the default pattern thresholds
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		DojiBodyPct:         0.10,
		WickBodyRatio:       2.0,
		ShadowRangeFraction: 2.0 / 3.0,
	}
}

// PatternDetector detects candlestick patterns on the most recent bars
type PatternDetector struct {
	config PatternConfig
}

// NewPatternDetector creates a pattern detector
func NewPatternDetector(cfg PatternConfig) *PatternDetector {
	return &PatternDetector{config: cfg}
}

// DetectPatterns runs the default detector
func DetectPatterns(candles []model.Candle) PatternResult {
	return NewPatternDetector(DefaultPatternConfig()).Detect(candles)
}

// Detect evaluates the last two bars in PatternPrecedence order and returns
// the first match
func (d *PatternDetector) Detect(candles []model.Candle) PatternResult {
	none := PatternResult{MainPattern: PatternNone, Direction: BiasNeutral, BarIndex: -1}

	candles = Sanitize(candles)
	if len(candles) == 0 {
		return none
	}

	idx := len(candles) - 1
	cur := candles[idx]
	var prev *model.Candle
	if idx > 0 {
		prev = &candles[idx-1]
	}

	for _, p := range PatternPrecedence {
		if d.matches(p, prev, cur) {
			return PatternResult{MainPattern: p, Direction: p.Direction(), BarIndex: idx}
		}
	}
	return none
}

func (d *PatternDetector) matches(p PatternType, prev *model.Candle, cur model.Candle) bool {
	switch p {
	case PatternBullishEngulfing:
		return prev != nil && d.isBullishEngulfing(*prev, cur)
	case PatternBearishEngulfing:
		return prev != nil && d.isBearishEngulfing(*prev, cur)
	case PatternHammer:
		return d.isHammer(cur)
	case PatternShootingStar:
		return d.isShootingStar(cur)
	case PatternPiercingLine:
		return prev != nil && d.isPiercingLine(*prev, cur)
	case PatternDarkCloudCover:
		return prev != nil && d.isDarkCloudCover(*prev, cur)
	case PatternDoji:
		return d.isDoji(cur)
	}
	return false
}

func (d *PatternDetector) isDoji(c model.Candle) bool {
	s := shapeOf(c)
	if s.rng <= 0 {
		return false
	}
	return s.body <= s.rng*d.config.DojiBodyPct
}

// isHammer: small real body in the upper part of the range, long lower wick
func (d *PatternDetector) isHammer(c model.Candle) bool {
	s := shapeOf(c)
	if s.rng <= 0 || s.body <= s.rng*d.config.DojiBodyPct {
		return false
	}
	return s.lower >= s.body*d.config.WickBodyRatio &&
		s.upper <= s.body &&
		s.lower >= s.rng*d.config.ShadowRangeFraction
}

// isShootingStar: small real body in the lower part of the range, long upper wick
func (d *PatternDetector) isShootingStar(c model.Candle) bool {
	s := shapeOf(c)
	if s.rng <= 0 || s.body <= s.rng*d.config.DojiBodyPct {
		return false
	}
	return s.upper >= s.body*d.config.WickBodyRatio &&
		s.lower <= s.body &&
		s.upper >= s.rng*d.config.ShadowRangeFraction
}

func (d *PatternDetector) isBullishEngulfing(prev, cur model.Candle) bool {
	p, c := shapeOf(prev), shapeOf(cur)
	if !p.red || !c.green {
		return false
	}
	return c.body > p.body && cur.Open <= prev.Close && cur.Close >= prev.Open
}

func (d *PatternDetector) isBearishEngulfing(prev, cur model.Candle) bool {
	p, c := shapeOf(prev), shapeOf(cur)
	if !p.green || !c.red {
		return false
	}
	return c.body > p.body && cur.Open >= prev.Close && cur.Close <= prev.Open
}

func (d *PatternDetector) isPiercingLine(prev, cur model.Candle) bool {
	p, c := shapeOf(prev), shapeOf(cur)
	if !p.red || !c.green {
		return false
	}
	mid := (prev.Open + prev.Close) / 2
	return cur.Open < prev.Close && cur.Close > mid && cur.Close < prev.Open
}

func (d *PatternDetector) isDarkCloudCover(prev, cur model.Candle) bool {
	p, c := shapeOf(prev), shapeOf(cur)
	if !p.green || !c.red {
		return false
	}
	mid := (prev.Open + prev.Close) / 2
	return cur.Open > prev.Close && cur.Close < mid && cur.Close > prev.Open
}
