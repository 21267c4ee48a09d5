package strategy

import (
	"math"
	"testing"

	"channelscout/internal/analyzer"
)

func TestRiskReward(t *testing.T) {
	tests := []struct {
		name                string
		entry, target, stop float64
		expected            float64
	}{
		{"long 2R", 100, 110, 95, 2},
		{"short 3R", 100, 85, 105, 3},
		{"stop above long entry", 100, 110, 101, 0},
		{"target equals entry", 100, 100, 95, 0},
		{"stop equals entry", 100, 110, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskReward(tt.entry, tt.target, tt.stop); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %.2f, got %.4f", tt.expected, got)
			}
		})
	}
}

func TestConfidenceBands_Level(t *testing.T) {
	tests := []struct {
		score    float64
		expected Confidence
	}{
		{100, ConfidenceHigh},
		{75, ConfidenceHigh},
		{74.99, ConfidenceMedium},
		{60, ConfidenceMedium},
		{59.99, ConfidenceLow},
		{0, ConfidenceLow},
	}

	for _, tt := range tests {
		if got := DailyBands.Level(tt.score); got != tt.expected {
			t.Errorf("Level(%.2f): expected %s, got %s", tt.score, tt.expected, got)
		}
	}
}

func TestCalculateOpportunityScore_NilPlan(t *testing.T) {
	s := CalculateOpportunityScore(bounceBars(), analyzer.Channel{}, nil)
	if s.TotalScore != 0 || s.Confidence != ConfidenceLow {
		t.Errorf("Expected 0/low for a nil plan, got %.1f/%s", s.TotalScore, s.Confidence)
	}
}

func TestCalculateOpportunityScore_Components(t *testing.T) {
	in := detected("TEST", bounceBars())
	plan := GenerateTradeRecommendation(in)
	if plan == nil {
		t.Fatal("Expected a plan")
	}

	s := CalculateOpportunityScore(in.Candles, in.Channel, plan)
	c := s.Components
	if math.Abs(c.Trend-30) > 1e-9 {
		t.Errorf("Expected full trend points for a rising channel with 7 touches, got %.2f", c.Trend)
	}
	if math.Abs(c.Pattern-20) > 1e-9 {
		t.Errorf("Expected 20 pattern points for a hammer, got %.2f", c.Pattern)
	}
	if math.Abs(c.Volume-40.0/3) > 1e-6 {
		t.Errorf("Expected 13.33 volume points at 1.5x, got %.2f", c.Volume)
	}
	if s.TotalScore != plan.Score.TotalScore {
		t.Errorf("Expected same score as the plan, got %.2f vs %.2f", s.TotalScore, plan.Score.TotalScore)
	}
}

func TestScorer_RiskRewardMonotonic(t *testing.T) {
	candles := bounceBars()
	ch := analyzer.DetectChannel(candles, 40)
	scorers := map[string]*Scorer{
		"daily":    NewDailyScorer(DailyBands),
		"intraday": NewIntradayScorer(IntradayBands),
	}

	for name, s := range scorers {
		t.Run(name, func(t *testing.T) {
			prev := -1.0
			for _, target := range []float64{109, 110, 111, 113, 116, 120, 140} {
				got := s.Score(candles, ch, analyzer.PatternHammer, 108.3, target, 107).TotalScore
				if got < prev {
					t.Errorf("Expected score to grow with target, %.2f dropped to %.2f at %.0f", prev, got, target)
				}
				prev = got
			}

			prev = -1.0
			for _, stop := range []float64{104, 105, 106, 107, 108} {
				got := s.Score(candles, ch, analyzer.PatternHammer, 108.3, 113, stop).TotalScore
				if got < prev {
					t.Errorf("Expected score to grow as stop tightens, %.2f dropped to %.2f at %.0f", prev, got, stop)
				}
				prev = got
			}
		})
	}
}

func TestScorer_Bounds(t *testing.T) {
	candles := bounceBars()
	ch := analyzer.DetectChannel(candles, 40)
	s := NewIntradayScorer(IntradayBands)

	tests := []struct {
		name                string
		entry, target, stop float64
	}{
		{"huge reward", 108.3, 10000, 108.29},
		{"misordered", 108.3, 107, 107},
		{"zero levels", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(candles, ch, analyzer.PatternHammer, tt.entry, tt.target, tt.stop)
			if got.TotalScore < 0 || got.TotalScore > 100 {
				t.Errorf("Expected score within 0..100, got %.2f", got.TotalScore)
			}
		})
	}
}

func TestScorer_OpposingPatternEarnsNothing(t *testing.T) {
	candles := bounceBars()
	ch := analyzer.DetectChannel(candles, 40)
	got := NewDailyScorer(DailyBands).Score(candles, ch, analyzer.PatternShootingStar, 108.3, 113, 107)
	if got.Components.Pattern != 0 {
		t.Errorf("Expected 0 pattern points for a bearish pattern on a long, got %.2f", got.Components.Pattern)
	}
}

func TestCalculateIntradayOpportunityScore(t *testing.T) {
	candles := bounceBars()
	ch := analyzer.DetectChannel(candles, 40)
	got := CalculateIntradayOpportunityScore(candles, ch, analyzer.PatternHammer, 108.3, 113, 107)

	if got.Components.Momentum <= 0 || got.Components.Momentum > 10 {
		t.Errorf("Expected momentum within (0, 10], got %.2f", got.Components.Momentum)
	}
	if got.Components.Trend > 25 || got.Components.Pattern > 20 {
		t.Errorf("Expected intraday weights, got %+v", got.Components)
	}
}

func TestFractions(t *testing.T) {
	if got := rrFraction(3); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Expected 0.8 at 3R, got %.4f", got)
	}
	if got := rrFraction(1e9); got > 1 {
		t.Errorf("Expected rrFraction <= 1, got %.4f", got)
	}
	if got := volumeFraction(0.2); got != 0 {
		t.Errorf("Expected 0 below 0.5x, got %.4f", got)
	}
	if got := volumeFraction(5); got != 1 {
		t.Errorf("Expected 1 above 2x, got %.4f", got)
	}
	if got := momentumFraction(80, analyzer.BiasBearish); got != 0.6 {
		t.Errorf("Expected short with RSI 80 to read as 20, got %.2f", got)
	}
	if got := clamp(math.NaN(), 0, 1); got != 0 {
		t.Errorf("Expected NaN to clamp to the floor, got %v", got)
	}
}
