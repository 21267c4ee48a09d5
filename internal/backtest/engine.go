package backtest

import (
	"math"
	"sort"
	"time"

	"channelscout/internal/strategy"
	"channelscout/pkg/model"
)

// Trade represents a single simulated plan
type Trade struct {
	Symbol     string              `json:"symbol"`
	Setup      string              `json:"setup"`
	Side       strategy.SetupType  `json:"side"`
	Score      float64             `json:"score"`
	Confidence strategy.Confidence `json:"confidence"`
	EntryTime  time.Time           `json:"entry_time"`
	ExitTime   time.Time           `json:"exit_time"`
	EntryPrice float64             `json:"entry_price"`
	ExitPrice  float64             `json:"exit_price"`
	StopLoss   float64             `json:"stop_loss"`
	Target     float64             `json:"target"`
	RMultiple  float64             `json:"r_multiple"` // Return in R (risk units)
	IsWin      bool                `json:"is_win"`
	ExitReason string              `json:"exit_reason"` // "target", "stop", "timeout"
}

// BucketStats summarizes trades sharing a confidence level
type BucketStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	AvgR    float64 `json:"avg_r"`
}

// Result contains the complete replay results. Money is not modeled; every
// figure is in R.
type Result struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
	Bars   int    `json:"bars"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalR       float64 `json:"total_r"`
	ExpectancyR  float64 `json:"expectancy_r"`  // Expected R per trade
	ProfitFactor float64 `json:"profit_factor"` // Gross win R / gross loss R
	MaxDrawdownR float64 `json:"max_drawdown_r"`

	MaxWinStreak  int `json:"max_win_streak"`
	MaxLoseStreak int `json:"max_lose_streak"`

	ByConfidence map[strategy.Confidence]BucketStats `json:"by_confidence"`

	Trades      []Trade   `json:"trades"`
	EquityCurve []float64 `json:"equity_curve"` // cumulative R after each trade
}

// Config holds replay parameters
type Config struct {
	Warmup      int     // bars required before the first signal
	MaxHoldBars int     // exit at close after this many bars
	Slippage    float64 // adverse fill fraction on entry and exit (0.001 = 0.1%)
}

// DefaultConfig returns default replay parameters
func DefaultConfig() Config {
	return Config{
		Warmup:      60,
		MaxHoldBars: 10,
		Slippage:    0.0005,
	}
}

// Backtester replays the analysis pipeline over historical candles
type Backtester struct {
	config   Config
	pipeline *strategy.Pipeline
}

// NewBacktester creates a new backtester
func NewBacktester(cfg Config, p *strategy.Pipeline) *Backtester {
	if cfg.MaxHoldBars < 1 {
		cfg.MaxHoldBars = 1
	}
	return &Backtester{config: cfg, pipeline: p}
}

// Run walks forward bar by bar. Each plan is entered at the next bar's open
// and held until stop, target or timeout; no new plan is taken while one is
// open. A bar that spans both stop and target counts as a stop.
func (b *Backtester) Run(inst model.Instrument, tf model.Timeframe, candles []model.Candle) *Result {
	result := &Result{
		Symbol:       inst.Symbol,
		Bars:         len(candles),
		ByConfidence: make(map[strategy.Confidence]BucketStats),
		Trades:       []Trade{},
	}
	if len(candles) == 0 {
		return result
	}
	result.Period = candles[0].Time.Format("2006-01-02") + " ~ " + candles[len(candles)-1].Time.Format("2006-01-02")

	warmup := b.config.Warmup
	if warmup < 1 {
		warmup = 1
	}

	for i := warmup - 1; i < len(candles)-1; i++ {
		opp := b.pipeline.Run(inst, tf, candles[:i+1])
		plan, ok := opp.Plan()
		if !ok {
			continue
		}

		trade, exitIdx, ok := b.simulate(plan, candles, i+1)
		if !ok {
			continue
		}
		trade.Symbol = inst.Symbol
		result.Trades = append(result.Trades, trade)

		// Skip ahead past this trade
		i = exitIdx
	}

	calculateStats(result)
	return result
}

func (b *Backtester) simulate(plan strategy.TradePlan, candles []model.Candle, entryIdx int) (Trade, int, bool) {
	long := plan.Setup.Type == strategy.SetupLong
	slip := b.config.Slippage

	entry := candles[entryIdx].Open
	if long {
		entry *= 1 + slip
	} else {
		entry *= 1 - slip
	}

	// Gapped through the stop or target: plan no longer valid
	if long && (entry <= plan.StopLoss || entry >= plan.Target) {
		return Trade{}, 0, false
	}
	if !long && (entry >= plan.StopLoss || entry <= plan.Target) {
		return Trade{}, 0, false
	}
	risk := math.Abs(entry - plan.StopLoss)

	trade := Trade{
		Setup:      plan.Setup.Name,
		Side:       plan.Setup.Type,
		Score:      plan.Score.TotalScore,
		Confidence: plan.Score.Confidence,
		EntryTime:  candles[entryIdx].Time,
		EntryPrice: entry,
		StopLoss:   plan.StopLoss,
		Target:     plan.Target,
	}

	last := entryIdx + b.config.MaxHoldBars - 1
	if last > len(candles)-1 {
		last = len(candles) - 1
	}

	exitIdx := last
bars:
	for j := entryIdx; j <= last; j++ {
		c := candles[j]
		hitStop := (long && c.Low <= plan.StopLoss) || (!long && c.High >= plan.StopLoss)
		hitTarget := (long && c.High >= plan.Target) || (!long && c.Low <= plan.Target)

		switch {
		case hitStop:
			// a bar that opens beyond the stop fills at the open
			fill := math.Min(c.Open, plan.StopLoss)
			if !long {
				fill = math.Max(c.Open, plan.StopLoss)
			}
			trade.ExitPrice, trade.ExitReason = fill, "stop"
		case hitTarget:
			trade.ExitPrice, trade.ExitReason = plan.Target, "target"
		case j == last:
			trade.ExitPrice, trade.ExitReason = c.Close, "timeout"
		default:
			continue
		}
		trade.ExitTime = c.Time
		exitIdx = j
		break bars
	}

	if long {
		trade.ExitPrice *= 1 - slip
		trade.RMultiple = (trade.ExitPrice - entry) / risk
	} else {
		trade.ExitPrice *= 1 + slip
		trade.RMultiple = (entry - trade.ExitPrice) / risk
	}
	trade.IsWin = trade.RMultiple > 0
	return trade, exitIdx, true
}

// calculateStats computes all statistics from trades
func calculateStats(result *Result) {
	if len(result.Trades) == 0 {
		return
	}

	result.TotalTrades = len(result.Trades)
	result.EquityCurve = make([]float64, 0, len(result.Trades))

	var grossWin, grossLoss, equity, peak float64
	var winStreak, loseStreak int
	buckets := make(map[strategy.Confidence][]float64)

	for _, t := range result.Trades {
		equity += t.RMultiple
		result.EquityCurve = append(result.EquityCurve, equity)
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > result.MaxDrawdownR {
			result.MaxDrawdownR = dd
		}

		buckets[t.Confidence] = append(buckets[t.Confidence], t.RMultiple)

		if t.IsWin {
			result.WinningTrades++
			grossWin += t.RMultiple
			winStreak++
			loseStreak = 0
			if winStreak > result.MaxWinStreak {
				result.MaxWinStreak = winStreak
			}
		} else {
			result.LosingTrades++
			grossLoss += math.Abs(t.RMultiple)
			loseStreak++
			winStreak = 0
			if loseStreak > result.MaxLoseStreak {
				result.MaxLoseStreak = loseStreak
			}
		}
	}

	n := float64(result.TotalTrades)
	result.WinRate = float64(result.WinningTrades) / n * 100
	result.TotalR = equity
	result.ExpectancyR = equity / n
	if grossLoss > 0 {
		result.ProfitFactor = grossWin / grossLoss
	}

	for conf, rs := range buckets {
		s := BucketStats{Trades: len(rs)}
		var sum float64
		for _, r := range rs {
			sum += r
			if r > 0 {
				s.Wins++
			}
		}
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
		s.AvgR = sum / float64(s.Trades)
		result.ByConfidence[conf] = s
	}
}

// Confidences returns the confidence levels present in the result, best first
func (r *Result) Confidences() []strategy.Confidence {
	rank := map[strategy.Confidence]int{strategy.ConfidenceHigh: 0, strategy.ConfidenceMedium: 1, strategy.ConfidenceLow: 2}
	out := make([]strategy.Confidence, 0, len(r.ByConfidence))
	for c := range r.ByConfidence {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}
