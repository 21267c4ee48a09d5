package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"channelscout/internal/analyzer"
	"channelscout/pkg/model"
)

// PlanConfig holds trade plan construction parameters
type PlanConfig struct {
	StopATRMultiple        float64 `yaml:"stop_atr_multiple"`         // channel stop buffer in ATRs
	StopWidthFraction      float64 `yaml:"stop_width_fraction"`       // or a fraction of channel height, whichever is larger
	PatternStopATRMultiple float64 `yaml:"pattern_stop_atr_multiple"` // buffer beyond the pattern's extreme
	PatternTargetRMultiple float64 `yaml:"pattern_target_r_multiple"` // fallback target for pattern-only setups
	MinRiskReward          float64 `yaml:"min_risk_reward"`
	TickPlaces             int     `yaml:"tick_places"` // decimal places for levels, negative = by price
	TargetLookback         int     `yaml:"target_lookback"`
}

// DefaultPlanConfig returns the default plan parameters
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		StopATRMultiple:        0.5,
		StopWidthFraction:      0.1,
		PatternStopATRMultiple: 0.25,
		PatternTargetRMultiple: 2.0,
		MinRiskReward:          1.0,
		TickPlaces:             -1,
		TargetLookback:         40,
	}
}

// PlanInput is everything the generator looks at. Volume and Absorption are
// set by intraday callers; their presence switches scoring to the intraday
// scorer and enables volume gating.
type PlanInput struct {
	Symbol       string
	Candles      []model.Candle
	Channel      analyzer.Channel
	Pattern      analyzer.PatternResult
	Volume       *analyzer.VolumeResult
	Absorption   *analyzer.AbsorptionResult
	CurrentPrice float64 // 0 uses the last close
}

// Planner builds trade plans
type Planner struct {
	config   PlanConfig
	daily    *Scorer
	intraday *Scorer
}

// NewPlanner creates a planner. Nil scorers use the default bands.
func NewPlanner(cfg PlanConfig, daily, intraday *Scorer) *Planner {
	if daily == nil {
		daily = NewDailyScorer(DailyBands)
	}
	if intraday == nil {
		intraday = NewIntradayScorer(IntradayBands)
	}
	return &Planner{config: cfg, daily: daily, intraday: intraday}
}

// GenerateTradeRecommendation runs the default planner
func GenerateTradeRecommendation(in PlanInput) *TradePlan {
	return NewPlanner(DefaultPlanConfig(), nil, nil).Generate(in)
}

// Generate returns a plan, or nil when the inputs do not form a tradable
// setup. A returned plan always has correctly ordered levels.
func (p *Planner) Generate(in PlanInput) *TradePlan {
	candles := analyzer.Sanitize(in.Candles)
	if len(candles) < analyzer.MinBars {
		return nil
	}

	entry := in.CurrentPrice
	if entry <= 0 || math.IsNaN(entry) || math.IsInf(entry, 0) {
		entry = candles[len(candles)-1].Close
	}
	atr := analyzer.CalculateATR(candles, 14)

	var (
		setup        PlanSetup
		stop, target float64
		ok           bool
	)
	if in.Channel.HasChannel {
		setup, stop, target, ok = p.channelSetup(in.Channel, in.Pattern.MainPattern, atr)
	} else {
		setup, stop, target, ok = p.patternSetup(candles, in.Pattern.MainPattern, entry, atr)
	}
	if !ok {
		return nil
	}

	var notes []string
	if in.Volume != nil {
		if in.Volume.Class == analyzer.VolumeLow {
			return nil
		}
		if ab := in.Absorption; ab != nil && ab.Detected {
			want := analyzer.BiasBullish
			if setup.Type == SetupShort {
				want = analyzer.BiasBearish
			}
			switch ab.Bias {
			case want:
				notes = append(notes, fmt.Sprintf("absorption %.1fx volume confirms", ab.VolumeRatio))
			case analyzer.BiasNeutral:
			default:
				return nil
			}
		}
	}

	places := p.tickPlaces(entry)
	plan := &TradePlan{
		Symbol:   in.Symbol,
		Setup:    setup,
		Entry:    roundTo(entry, places),
		Target:   roundTo(target, places),
		StopLoss: roundTo(stop, places),
	}
	if !plan.Valid() {
		return nil
	}

	plan.RiskReward = RiskReward(plan.Entry, plan.Target, plan.StopLoss)
	if plan.RiskReward <= 0 || plan.RiskReward < p.config.MinRiskReward {
		return nil
	}

	if in.Volume != nil {
		plan.Score = p.intraday.Score(candles, in.Channel, setup.Pattern, plan.Entry, plan.Target, plan.StopLoss)
	} else {
		plan.Score = p.daily.Score(candles, in.Channel, setup.Pattern, plan.Entry, plan.Target, plan.StopLoss)
	}
	plan.Rationale = rationale(plan, in.Channel, notes)
	return plan
}

func (p *Planner) channelSetup(ch analyzer.Channel, pattern analyzer.PatternType, atr float64) (PlanSetup, float64, float64, bool) {
	height := ch.Height()
	buffer := math.Max(p.config.StopATRMultiple*atr, p.config.StopWidthFraction*height)
	dir := pattern.Direction()

	switch {
	case ch.Status == analyzer.StatusNearSupport && dir == analyzer.BiasBullish:
		return PlanSetup{Type: SetupLong, Name: "Support Bounce", Pattern: pattern},
			ch.Support - buffer, ch.Resistance, true
	case ch.Status == analyzer.StatusNearResistance && dir == analyzer.BiasBearish:
		return PlanSetup{Type: SetupShort, Name: "Resistance Rejection", Pattern: pattern},
			ch.Resistance + buffer, ch.Support, true
	case ch.Status == analyzer.StatusBrokenOut && dir != analyzer.BiasBearish:
		return PlanSetup{Type: SetupLong, Name: "Channel Breakout", Pattern: pattern},
			ch.Resistance - buffer, ch.Resistance + height, true
	case ch.Status == analyzer.StatusBrokenDown && dir != analyzer.BiasBullish:
		return PlanSetup{Type: SetupShort, Name: "Channel Breakdown", Pattern: pattern},
			ch.Support + buffer, ch.Support - height, true
	}
	return PlanSetup{}, 0, 0, false
}

// patternSetup trades a directional pattern with no channel: stop beyond the
// pattern bars, target at the recent extreme or a fixed R multiple
func (p *Planner) patternSetup(candles []model.Candle, pattern analyzer.PatternType, entry, atr float64) (PlanSetup, float64, float64, bool) {
	if !pattern.Actionable() {
		return PlanSetup{}, 0, 0, false
	}

	n := len(candles)
	last2 := candles[n-2:]
	lookback := p.config.TargetLookback
	if lookback <= 0 || lookback > n {
		lookback = n
	}
	window := candles[n-lookback:]
	buffer := p.config.PatternStopATRMultiple * atr

	if pattern.Direction() == analyzer.BiasBullish {
		stop := math.Min(last2[0].Low, last2[1].Low) - buffer
		target := window[0].High
		for _, c := range window {
			target = math.Max(target, c.High)
		}
		if target <= entry {
			target = entry + p.config.PatternTargetRMultiple*(entry-stop)
		}
		return PlanSetup{Type: SetupLong, Name: "Pattern Reversal", Pattern: pattern}, stop, target, true
	}

	stop := math.Max(last2[0].High, last2[1].High) + buffer
	target := window[0].Low
	for _, c := range window {
		target = math.Min(target, c.Low)
	}
	if target >= entry {
		target = entry - p.config.PatternTargetRMultiple*(stop-entry)
	}
	return PlanSetup{Type: SetupShort, Name: "Pattern Reversal", Pattern: pattern}, stop, target, true
}

func (p *Planner) tickPlaces(price float64) int32 {
	if p.config.TickPlaces >= 0 {
		return int32(p.config.TickPlaces)
	}
	switch {
	case price >= 1:
		return 2
	case price >= 0.01:
		return 4
	}
	return 8
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func rationale(plan *TradePlan, ch analyzer.Channel, notes []string) string {
	parts := []string{
		fmt.Sprintf("%s %s: entry %s, stop %s, target %s, R:R %.2f",
			plan.Setup.Name, plan.Setup.Type,
			fmtPrice(plan.Entry), fmtPrice(plan.StopLoss), fmtPrice(plan.Target), plan.RiskReward),
	}
	if ch.HasChannel {
		parts = append(parts, fmt.Sprintf("%s channel %s-%s, %s",
			ch.Direction, fmtPrice(ch.Support), fmtPrice(ch.Resistance), ch.Status))
	}
	if plan.Setup.Pattern != analyzer.PatternNone && plan.Setup.Pattern != "" {
		parts = append(parts, fmt.Sprintf("pattern %s", plan.Setup.Pattern))
	}
	parts = append(parts, notes...)

	c := plan.Score.Components
	breakdown := fmt.Sprintf("score %.0f (%s): trend %.1f, pattern %.1f, volume %.1f, r:r %.1f",
		plan.Score.TotalScore, plan.Score.Confidence, c.Trend, c.Pattern, c.Volume, c.RiskReward)
	if c.Momentum > 0 {
		breakdown += fmt.Sprintf(", momentum %.1f", c.Momentum)
	}
	parts = append(parts, breakdown)

	return strings.Join(parts, "; ")
}

func fmtPrice(v float64) string {
	if v >= 1 {
		return decimal.NewFromFloat(v).StringFixed(2)
	}
	return decimal.NewFromFloat(v).String()
}
