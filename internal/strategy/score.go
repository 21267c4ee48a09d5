package strategy

import (
	"math"

	"channelscout/internal/analyzer"
	"channelscout/pkg/model"
)

// Confidence is the qualitative band of a total score
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceBands maps a total score to a confidence level.
// score >= High is high, score >= Medium is medium, anything else is low.
type ConfidenceBands struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

var (
	DailyBands    = ConfidenceBands{High: 75, Medium: 60}
	IntradayBands = ConfidenceBands{High: 75, Medium: 60}
)

// Level returns the band for a score
func (b ConfidenceBands) Level(score float64) Confidence {
	switch {
	case score >= b.High:
		return ConfidenceHigh
	case score >= b.Medium:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// ScoreComponents holds the points each factor contributed
type ScoreComponents struct {
	Trend      float64 `json:"trend"`
	Pattern    float64 `json:"pattern"`
	Volume     float64 `json:"volume"`
	RiskReward float64 `json:"risk_reward"`
	Momentum   float64 `json:"momentum"`
}

// Score is a 0-100 opportunity rating with its breakdown
type Score struct {
	TotalScore float64         `json:"total_score"`
	Confidence Confidence      `json:"confidence"`
	Components ScoreComponents `json:"components"`
}

// ScoreWeights are the maximum points per component; they sum to 100
type ScoreWeights struct {
	Trend      float64
	Pattern    float64
	Volume     float64
	RiskReward float64
	Momentum   float64
}

var (
	dailyWeights    = ScoreWeights{Trend: 30, Pattern: 25, Volume: 20, RiskReward: 25}
	intradayWeights = ScoreWeights{Trend: 25, Pattern: 20, Volume: 20, RiskReward: 25, Momentum: 10}
)

// patternReliability is the pattern's share of the pattern weight when it
// agrees with the trade direction
var patternReliability = map[analyzer.PatternType]float64{
	analyzer.PatternBullishEngulfing: 1.0,
	analyzer.PatternBearishEngulfing: 1.0,
	analyzer.PatternHammer:           0.8,
	analyzer.PatternShootingStar:     0.8,
	analyzer.PatternPiercingLine:     0.72,
	analyzer.PatternDarkCloudCover:   0.72,
	analyzer.PatternDoji:             0.32,
}

// Scorer rates a candidate trade
type Scorer struct {
	weights ScoreWeights
	bands   ConfidenceBands

	// volume is compared as mean(last volumeRecent) / mean(prior volumeBaseline)
	volumeRecent   int
	volumeBaseline int
}

// NewDailyScorer scores swing setups: trend, pattern, volume and reward/risk
func NewDailyScorer(bands ConfidenceBands) *Scorer {
	return &Scorer{weights: dailyWeights, bands: bands, volumeRecent: 1, volumeBaseline: 20}
}

// NewIntradayScorer adds RSI momentum and measures volume over a short window
func NewIntradayScorer(bands ConfidenceBands) *Scorer {
	return &Scorer{weights: intradayWeights, bands: bands, volumeRecent: 3, volumeBaseline: 30}
}

// CalculateOpportunityScore scores a daily trade plan. A nil plan scores 0.
func CalculateOpportunityScore(candles []model.Candle, channel analyzer.Channel, plan *TradePlan) Score {
	if plan == nil {
		return Score{Confidence: ConfidenceLow}
	}
	return NewDailyScorer(DailyBands).Score(candles, channel, plan.Setup.Pattern, plan.Entry, plan.Target, plan.StopLoss)
}

// CalculateIntradayOpportunityScore scores an intraday candidate from raw levels
func CalculateIntradayOpportunityScore(candles []model.Candle, channel analyzer.Channel, pattern analyzer.PatternType, entry, target, stop float64) Score {
	return NewIntradayScorer(IntradayBands).Score(candles, channel, pattern, entry, target, stop)
}

// Score rates the levels. Direction is taken from the target: above entry is
// long, below is short. The result is always within 0..100.
func (s *Scorer) Score(candles []model.Candle, channel analyzer.Channel, pattern analyzer.PatternType, entry, target, stop float64) Score {
	candles = analyzer.Sanitize(candles)
	dir := tradeBias(entry, target)

	c := ScoreComponents{
		Trend:      s.weights.Trend * trendFraction(channel, dir),
		Pattern:    s.weights.Pattern * patternFraction(pattern, dir),
		Volume:     s.weights.Volume * volumeFraction(analyzer.RecentVolumeRatio(candles, s.volumeRecent, s.volumeBaseline)),
		RiskReward: s.weights.RiskReward * rrFraction(RiskReward(entry, target, stop)),
	}
	if s.weights.Momentum > 0 {
		c.Momentum = s.weights.Momentum * momentumFraction(analyzer.CalculateRSI(candles, 14), dir)
	}

	total := c.Trend + c.Pattern + c.Volume + c.RiskReward + c.Momentum
	total = math.Round(clamp(total, 0, 100)*100) / 100

	return Score{
		TotalScore: total,
		Confidence: s.bands.Level(total),
		Components: c,
	}
}

// RiskReward returns reward divided by risk, or 0 when the levels are not
// ordered for either direction
func RiskReward(entry, target, stop float64) float64 {
	var risk, reward float64
	switch {
	case stop < entry && entry < target:
		risk, reward = entry-stop, target-entry
	case target < entry && entry < stop:
		risk, reward = stop-entry, entry-target
	default:
		return 0
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

func tradeBias(entry, target float64) analyzer.Bias {
	switch {
	case target > entry:
		return analyzer.BiasBullish
	case target < entry:
		return analyzer.BiasBearish
	}
	return analyzer.BiasNeutral
}

// trendFraction: a third for having a channel, a third for touch count
// (capped at 6), a third for slope agreeing with the trade
func trendFraction(ch analyzer.Channel, dir analyzer.Bias) float64 {
	if !ch.HasChannel {
		return 0
	}

	touches := math.Min(float64(ch.SupportTouches+ch.ResistanceTouches), 6)
	f := 1.0/3 + touches/6/3

	switch {
	case ch.Direction == analyzer.DirectionFlat:
		f += 1.0 / 6
	case ch.Direction == analyzer.DirectionRising && dir == analyzer.BiasBullish,
		ch.Direction == analyzer.DirectionFalling && dir == analyzer.BiasBearish:
		f += 1.0 / 3
	}
	return math.Min(f, 1)
}

func patternFraction(p analyzer.PatternType, dir analyzer.Bias) float64 {
	pd := p.Direction()
	if pd != analyzer.BiasNeutral && pd != dir {
		return 0
	}
	return patternReliability[p]
}

// volumeFraction maps a ratio of 0.5x or less to 0 and 2x or more to 1
func volumeFraction(ratio float64) float64 {
	return clamp((ratio-0.5)/1.5, 0, 1)
}

// rrFraction is linear to 0.8 at 3R, then approaches 1 asymptotically
func rrFraction(rr float64) float64 {
	if rr <= 0 {
		return 0
	}
	if rr <= 3 {
		return 0.8 * rr / 3
	}
	return 0.8 + 0.2*(1-3/rr)
}

// momentumFraction favors RSI with room to run in the trade's direction
func momentumFraction(rsi float64, dir analyzer.Bias) float64 {
	switch dir {
	case analyzer.BiasBearish:
		rsi = 100 - rsi
	case analyzer.BiasNeutral:
		return 0.5
	}

	switch {
	case rsi > 70:
		return 0.2
	case rsi > 60:
		return 0.6
	case rsi >= 40:
		return 1.0
	case rsi >= 30:
		return 0.8
	}
	return 0.6
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
