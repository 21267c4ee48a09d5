package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"channelscout/internal/analyzer"
	"channelscout/internal/provider"
	"channelscout/pkg/model"
)

// Config groups every tunable used by the analysis pipeline
type Config struct {
	Channel       analyzer.ChannelConfig
	Pattern       analyzer.PatternConfig
	Volume        analyzer.VolumeConfig
	Plan          PlanConfig
	DailyBands    ConfidenceBands
	IntradayBands ConfidenceBands
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Channel:       analyzer.DefaultChannelConfig(),
		Pattern:       analyzer.DefaultPatternConfig(),
		Volume:        analyzer.DefaultVolumeConfig(),
		Plan:          DefaultPlanConfig(),
		DailyBands:    DailyBands,
		IntradayBands: IntradayBands,
	}
}

// Pipeline runs channel, pattern, signal and plan generation over a candle
// series. It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	channel  *analyzer.ChannelDetector
	pattern  *analyzer.PatternDetector
	volume   *analyzer.VolumeAnalyzer
	planner  *Planner
	intraday bool
	lookback int
}

// NewPipeline builds a pipeline. intraday enables volume gating, absorption
// and the intraday scorer.
func NewPipeline(cfg Config, intraday bool) *Pipeline {
	return &Pipeline{
		channel:  analyzer.NewChannelDetector(cfg.Channel),
		pattern:  analyzer.NewPatternDetector(cfg.Pattern),
		volume:   analyzer.NewVolumeAnalyzer(cfg.Volume),
		planner:  NewPlanner(cfg.Plan, NewDailyScorer(cfg.DailyBands), NewIntradayScorer(cfg.IntradayBands)),
		intraday: intraday,
		lookback: cfg.Channel.Lookback,
	}
}

// Run analyzes candles already in hand
func (p *Pipeline) Run(inst model.Instrument, tf model.Timeframe, candles []model.Candle) *Opportunity {
	candles = analyzer.Sanitize(candles)

	opp := &Opportunity{
		ID:         uuid.NewString(),
		Instrument: inst,
		Timeframe:  tf,
		AnalyzedAt: time.Now().UTC(),
	}

	if len(candles) < analyzer.MinBars {
		opp.Channel = analyzer.Channel{Direction: analyzer.DirectionFlat, Status: analyzer.StatusNoChannel}
		opp.Pattern = analyzer.PatternResult{MainPattern: analyzer.PatternNone, Direction: analyzer.BiasNeutral, BarIndex: -1}
		opp.Signal = analyzer.Signal{Bias: analyzer.BiasNeutral, Notes: []string{}, Cautions: []string{}}
		opp.Setup = NoSetup{Reason: fmt.Sprintf("insufficient data: %d bars, need %d", len(candles), analyzer.MinBars)}
		return opp
	}

	opp.Channel = p.channel.Detect(candles, p.lookback)
	opp.Pattern = p.pattern.Detect(candles)
	vol := p.volume.Analyze(candles)
	opp.Signal = analyzer.CombineSignals(opp.Channel, opp.Pattern, vol)
	opp.Indicators = analyzer.CalculateIndicators(candles)

	in := PlanInput{
		Symbol:  inst.Symbol,
		Candles: candles,
		Channel: opp.Channel,
		Pattern: opp.Pattern,
	}
	if p.intraday {
		ab := p.volume.DetectAbsorption(candles, vol)
		in.Volume = &vol
		in.Absorption = &ab
	}

	plan := p.planner.Generate(in)
	opp.Setup = SetupFromPlan(plan, noSetupReason(opp.Channel, opp.Pattern, in.Volume))
	return opp
}

func noSetupReason(ch analyzer.Channel, pat analyzer.PatternResult, vol *analyzer.VolumeResult) string {
	switch {
	case vol != nil && vol.Class == analyzer.VolumeLow:
		return "volume too thin"
	case !ch.HasChannel && !pat.MainPattern.Actionable():
		return "no channel and no directional pattern"
	case ch.HasChannel && ch.Status == analyzer.StatusInside:
		return "price mid-channel"
	case ch.HasChannel && !pat.MainPattern.Actionable():
		return fmt.Sprintf("%s without a confirming pattern", ch.Status)
	}
	return "levels did not form a valid plan"
}

// ChannelStrategy fetches candles from a provider and runs the pipeline
type ChannelStrategy struct {
	name        string
	description string
	timeframe   model.Timeframe
	bars        int
	provider    provider.Provider
	pipeline    *Pipeline
}

// NewSwingStrategy analyzes daily bars
func NewSwingStrategy(cfg Config, p provider.Provider) *ChannelStrategy {
	return &ChannelStrategy{
		name:        "swing",
		description: "Swing - daily channel bounces, rejections and breakouts confirmed by candlestick patterns",
		timeframe:   model.Timeframe1d,
		bars:        120,
		provider:    p,
		pipeline:    NewPipeline(cfg, false),
	}
}

// NewIntradayStrategy analyzes 15-minute bars with volume confirmation
func NewIntradayStrategy(cfg Config, p provider.Provider) *ChannelStrategy {
	return &ChannelStrategy{
		name:        "intraday",
		description: "Intraday - 15m channel setups gated on volume and absorption",
		timeframe:   model.Timeframe15m,
		bars:        100,
		provider:    p,
		pipeline:    NewPipeline(cfg, true),
	}
}

// Name returns the strategy name
func (s *ChannelStrategy) Name() string {
	return s.name
}

// Description returns the strategy description
func (s *ChannelStrategy) Description() string {
	return s.description
}

// Timeframe returns the bar interval
func (s *ChannelStrategy) Timeframe() model.Timeframe {
	return s.timeframe
}

// Analyze fetches bars and returns an opportunity descriptor
func (s *ChannelStrategy) Analyze(ctx context.Context, inst model.Instrument) (*Opportunity, error) {
	candles, err := s.provider.GetCandles(ctx, inst.Symbol, s.timeframe, s.bars)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles for %s: %w", s.timeframe, inst.Symbol, err)
	}
	return s.pipeline.Run(inst, s.timeframe, candles), nil
}
