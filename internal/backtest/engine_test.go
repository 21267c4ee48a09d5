package backtest

import (
	"math"
	"testing"
	"time"

	"channelscout/internal/analyzer"
	"channelscout/internal/strategy"
	"channelscout/pkg/model"
)

var testStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) model.Candle {
	return model.Candle{Time: testStart.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func plan(side strategy.SetupType, entry, stop, target float64) strategy.TradePlan {
	return strategy.TradePlan{
		Symbol:   "TEST",
		Setup:    strategy.PlanSetup{Type: side, Name: "Support Bounce"},
		Entry:    entry,
		StopLoss: stop,
		Target:   target,
		Score:    strategy.Score{TotalScore: 80, Confidence: strategy.ConfidenceHigh},
	}
}

func TestSimulate(t *testing.T) {
	b := NewBacktester(Config{MaxHoldBars: 3}, nil)
	signal := bar(0, 100, 101, 99, 100)

	tests := []struct {
		name    string
		plan    strategy.TradePlan
		bars    []model.Candle
		ok      bool
		reason  string
		r       float64
		exitIdx int
	}{
		{
			name:    "target",
			plan:    plan(strategy.SetupLong, 100, 95, 110),
			bars:    []model.Candle{bar(1, 100, 105, 99, 104), bar(2, 104, 111, 103, 110)},
			ok:      true,
			reason:  "target",
			r:       2,
			exitIdx: 2,
		},
		{
			name:    "stop",
			plan:    plan(strategy.SetupLong, 100, 95, 110),
			bars:    []model.Candle{bar(1, 100, 101, 94, 96), bar(2, 96, 120, 95, 119)},
			ok:      true,
			reason:  "stop",
			r:       -1,
			exitIdx: 1,
		},
		{
			name:    "stop and target on one bar",
			plan:    plan(strategy.SetupLong, 100, 95, 110),
			bars:    []model.Candle{bar(1, 100, 111, 94, 100)},
			ok:      true,
			reason:  "stop",
			r:       -1,
			exitIdx: 1,
		},
		{
			name: "timeout",
			plan: plan(strategy.SetupLong, 100, 95, 110),
			bars: []model.Candle{
				bar(1, 100, 101, 99, 100), bar(2, 100, 102, 99, 101),
				bar(3, 101, 103, 100, 102), bar(4, 102, 120, 101, 115),
			},
			ok:      true,
			reason:  "timeout",
			r:       0.4,
			exitIdx: 3,
		},
		{
			name:    "short target",
			plan:    plan(strategy.SetupShort, 100, 105, 90),
			bars:    []model.Candle{bar(1, 100, 101, 89, 90)},
			ok:      true,
			reason:  "target",
			r:       2,
			exitIdx: 1,
		},
		{
			name:    "gap through stop after entry",
			plan:    plan(strategy.SetupLong, 100, 95, 110),
			bars:    []model.Candle{bar(1, 100, 101, 99, 100.5), bar(2, 92, 93, 91, 92)},
			ok:      true,
			reason:  "stop",
			r:       -1.6,
			exitIdx: 2,
		},
		{
			name:    "short gap through stop after entry",
			plan:    plan(strategy.SetupShort, 100, 105, 90),
			bars:    []model.Candle{bar(1, 100, 101, 99, 99.5), bar(2, 108, 109, 107, 108)},
			ok:      true,
			reason:  "stop",
			r:       -1.6,
			exitIdx: 2,
		},
		{
			name: "gap through stop",
			plan: plan(strategy.SetupLong, 100, 95, 110),
			bars: []model.Candle{bar(1, 94, 96, 93, 95)},
			ok:   false,
		},
		{
			name: "gap past target",
			plan: plan(strategy.SetupLong, 100, 95, 110),
			bars: []model.Candle{bar(1, 111, 112, 110, 111)},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := append([]model.Candle{signal}, tt.bars...)
			trade, exitIdx, ok := b.simulate(tt.plan, candles, 1)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if trade.ExitReason != tt.reason {
				t.Errorf("Expected exit %s, got %s", tt.reason, trade.ExitReason)
			}
			if math.Abs(trade.RMultiple-tt.r) > 1e-9 {
				t.Errorf("Expected %.2fR, got %.4fR", tt.r, trade.RMultiple)
			}
			if exitIdx != tt.exitIdx {
				t.Errorf("Expected exit at bar %d, got %d", tt.exitIdx, exitIdx)
			}
			if !trade.ExitTime.Equal(candles[exitIdx].Time) {
				t.Errorf("Expected exit time of bar %d", exitIdx)
			}
			if trade.IsWin != (tt.r > 0) {
				t.Errorf("Expected IsWin=%v", tt.r > 0)
			}
		})
	}
}

func TestSimulate_Slippage(t *testing.T) {
	b := NewBacktester(Config{MaxHoldBars: 5, Slippage: 0.01}, nil)
	candles := []model.Candle{bar(0, 100, 101, 99, 100), bar(1, 100, 111, 99, 110)}

	trade, _, ok := b.simulate(plan(strategy.SetupLong, 100, 95, 110), candles, 1)
	if !ok {
		t.Fatal("Expected a trade")
	}
	if math.Abs(trade.EntryPrice-101) > 1e-9 || math.Abs(trade.ExitPrice-108.9) > 1e-9 {
		t.Errorf("Expected fills 101 -> 108.9, got %.4f -> %.4f", trade.EntryPrice, trade.ExitPrice)
	}
	if math.Abs(trade.RMultiple-7.9/6) > 1e-9 {
		t.Errorf("Expected %.4fR, got %.4fR", 7.9/6, trade.RMultiple)
	}
}

func TestCalculateStats(t *testing.T) {
	result := &Result{ByConfidence: make(map[strategy.Confidence]BucketStats)}
	for _, tr := range []struct {
		r    float64
		conf strategy.Confidence
	}{
		{2, strategy.ConfidenceHigh},
		{-1, strategy.ConfidenceLow},
		{-1, strategy.ConfidenceLow},
		{3, strategy.ConfidenceHigh},
	} {
		result.Trades = append(result.Trades, Trade{RMultiple: tr.r, IsWin: tr.r > 0, Confidence: tr.conf})
	}

	calculateStats(result)

	if result.TotalTrades != 4 || result.WinningTrades != 2 || result.LosingTrades != 2 {
		t.Errorf("Unexpected counts %d/%d/%d", result.TotalTrades, result.WinningTrades, result.LosingTrades)
	}
	if result.WinRate != 50 {
		t.Errorf("Expected 50%% win rate, got %.2f", result.WinRate)
	}
	if result.TotalR != 3 || result.ExpectancyR != 0.75 {
		t.Errorf("Expected 3R total, 0.75R expectancy, got %.2f / %.2f", result.TotalR, result.ExpectancyR)
	}
	if result.ProfitFactor != 2.5 {
		t.Errorf("Expected profit factor 2.5, got %.2f", result.ProfitFactor)
	}
	if result.MaxDrawdownR != 2 {
		t.Errorf("Expected 2R drawdown, got %.2f", result.MaxDrawdownR)
	}
	if result.MaxWinStreak != 1 || result.MaxLoseStreak != 2 {
		t.Errorf("Expected streaks 1/2, got %d/%d", result.MaxWinStreak, result.MaxLoseStreak)
	}

	high := result.ByConfidence[strategy.ConfidenceHigh]
	if high.Trades != 2 || high.Wins != 2 || high.AvgR != 2.5 {
		t.Errorf("Unexpected high bucket %+v", high)
	}
	confs := result.Confidences()
	if len(confs) != 2 || confs[0] != strategy.ConfidenceHigh || confs[1] != strategy.ConfidenceLow {
		t.Errorf("Expected [high low], got %v", confs)
	}
}

// bounceSeries oscillates inside a channel rising 0.2 per bar, then bounces
// off support with a hammer
func bounceSeries() []model.Candle {
	candles := make([]model.Candle, 0, 43)
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
		candles = append(candles, bar(i, o, math.Max(o, c)+0.2, math.Min(o, c)-0.2, c))
	}
	hammer := bar(39, 108.1, 108.35, 107.4, 108.3)
	hammer.Volume = 1500
	return append(candles, hammer)
}

func TestBacktester_Run(t *testing.T) {
	candles := append(bounceSeries(),
		bar(40, 108.4, 109.5, 108.2, 109.4),
		bar(41, 109.4, 111.0, 109.2, 110.9),
		bar(42, 110.9, 113.5, 110.7, 113.2),
	)

	cfg := DefaultConfig()
	cfg.Warmup = 40
	bt := NewBacktester(cfg, strategy.NewPipeline(strategy.DefaultConfig(), false))
	result := bt.Run(model.NewInstrument("TEST"), model.Timeframe1d, candles)

	if result.TotalTrades != 1 {
		t.Fatalf("Expected 1 trade, got %d", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.Setup != "Support Bounce" || trade.ExitReason != "target" || !trade.IsWin {
		t.Errorf("Expected a winning Support Bounce at target, got %+v", trade)
	}
	if trade.RMultiple < 2 {
		t.Errorf("Expected at least 2R, got %.2f", trade.RMultiple)
	}
	if result.Period != "2025-03-03 ~ 2025-04-14" {
		t.Errorf("Unexpected period %q", result.Period)
	}
}

func TestBacktester_RunNoSignals(t *testing.T) {
	candles := make([]model.Candle, 80)
	for i := range candles {
		candles[i] = bar(i, 99.95, 100.2, 99.8, 100.05)
	}

	bt := NewBacktester(DefaultConfig(), strategy.NewPipeline(strategy.DefaultConfig(), false))
	result := bt.Run(model.NewInstrument("TEST"), model.Timeframe1d, candles)

	if result.TotalTrades != 0 || len(result.Trades) != 0 {
		t.Errorf("Expected no trades on a flat series, got %d", result.TotalTrades)
	}
	if result.Bars != 80 {
		t.Errorf("Expected 80 bars, got %d", result.Bars)
	}

	empty := bt.Run(model.NewInstrument("TEST"), model.Timeframe1d, nil)
	if empty.TotalTrades != 0 || empty.Period != "" {
		t.Errorf("Expected empty result, got %+v", empty)
	}
}

func TestBacktester_MinBarsRespected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = 1
	bt := NewBacktester(cfg, strategy.NewPipeline(strategy.DefaultConfig(), false))

	candles := bounceSeries()[:analyzer.MinBars-1]
	if result := bt.Run(model.NewInstrument("TEST"), model.Timeframe1d, candles); result.TotalTrades != 0 {
		t.Errorf("Expected no trades before %d bars, got %d", analyzer.MinBars, result.TotalTrades)
	}
}
