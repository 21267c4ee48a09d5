package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"channelscout/internal/backtest"
	"channelscout/internal/position"
	"channelscout/internal/scanner"
	"channelscout/internal/strategy"
	"channelscout/internal/symbols"
)

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputScanTable(result *scanner.ScanResult) error {
	if len(result.Opportunities) == 0 {
		fmt.Println("No opportunities found.")
		printScanFooter(result)
		return nil
	}

	fmt.Printf("Found %d opportunities:\n\n", len(result.Opportunities))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Setup", "Side", "Entry", "Stop", "Target", "R:R", "Score", "Conf"}),
	)

	for i := range result.Opportunities {
		opp := &result.Opportunities[i]
		plan, ok := opp.Plan()
		if !ok {
			reason := ""
			if ns, isNone := opp.Setup.(strategy.NoSetup); isNone {
				reason = ns.Reason
			}
			table.Append([]string{opp.Instrument.Symbol, reason, "-", "-", "-", "-", "-", "-", "-"})
			continue
		}

		table.Append([]string{
			opp.Instrument.Symbol,
			plan.Setup.Name,
			string(plan.Setup.Type),
			formatPrice(plan.Entry),
			formatPrice(plan.StopLoss),
			formatPrice(plan.Target),
			fmt.Sprintf("%.2f", plan.RiskReward),
			fmt.Sprintf("%.0f", plan.Score.TotalScore),
			string(plan.Score.Confidence),
		})
	}

	table.Render()

	if verbose {
		fmt.Println("\n--- Setup Details ---")
		count := 0
		for i := range result.Opportunities {
			if count >= 5 {
				break
			}
			if _, ok := result.Opportunities[i].Plan(); !ok {
				continue
			}
			printOpportunityDetails(&result.Opportunities[i])
			count++
		}
	}

	printScanFooter(result)
	return nil
}

func printScanFooter(result *scanner.ScanResult) {
	fmt.Printf("\nScanned %d symbols in %s (%d without setup, %d errors)\n",
		result.TotalScanned, result.ScanTime.Round(time.Millisecond), result.NoSetupCount, result.ErrorCount)
	if verbose {
		for sym, msg := range result.Errors {
			fmt.Printf("  %s: %s\n", sym, msg)
		}
	}
}

func outputOpportunity(opp *strategy.Opportunity, sizing *position.Sizing) error {
	fmt.Printf("[%s] %s bars, analyzed %s\n", opp.Instrument.Symbol, opp.Timeframe, opp.AnalyzedAt.Format(time.RFC3339))

	ch := opp.Channel
	if ch.HasChannel {
		fmt.Printf("  Channel: %s %s-%s (%.1f%% wide, slope %+.3f%%/bar, %d/%d touches) -> %s\n",
			ch.Direction, formatPrice(ch.Support), formatPrice(ch.Resistance), ch.WidthPct,
			ch.SlopePct, ch.SupportTouches, ch.ResistanceTouches, ch.Status)
	} else {
		fmt.Println("  Channel: none")
	}
	fmt.Printf("  Pattern: %s (%s)\n", opp.Pattern.MainPattern, opp.Pattern.Direction)
	fmt.Printf("  RSI(14): %.1f (%s) | ATR(14): %s | Volume: %.1fx avg\n",
		opp.Indicators.RSI, opp.Indicators.RSISignal, formatPrice(opp.Indicators.ATR), opp.Indicators.VolumeRatio)
	fmt.Printf("  Signal: %s\n", strings.ToUpper(string(opp.Signal.Bias)))
	for _, n := range opp.Signal.Notes {
		fmt.Printf("    + %s\n", n)
	}
	for _, c := range opp.Signal.Cautions {
		fmt.Printf("    ! %s\n", c)
	}

	switch s := opp.Setup.(type) {
	case strategy.NoSetup:
		fmt.Printf("  No setup: %s\n", s.Reason)
	case strategy.LongSetup, strategy.ShortSetup:
		printOpportunityDetails(opp)
	}

	if sizing != nil {
		capNote := ""
		if sizing.Capped {
			capNote = " (capped by balance)"
		}
		fmt.Printf("  Size: %s units, notional %.2f%s | risk %.2f (%.2f%% of account) | reward %.2f | breakeven win rate %.0f%%\n",
			formatQuantity(sizing.Quantity), sizing.Notional, capNote,
			sizing.RiskAmount, sizing.MaxLossPct, sizing.RewardAmount, sizing.BreakevenPct)
	}
	return nil
}

func outputBacktest(r *backtest.Result) error {
	fmt.Printf("[%s] %d bars, %s\n\n", r.Symbol, r.Bars, r.Period)
	if r.TotalTrades == 0 {
		fmt.Println("No plans were triggered over this history.")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Confidence", "Trades", "Win Rate", "Avg R"}),
	)
	for _, c := range r.Confidences() {
		b := r.ByConfidence[c]
		table.Append([]string{string(c), fmt.Sprintf("%d", b.Trades), fmt.Sprintf("%.0f%%", b.WinRate), fmt.Sprintf("%+.2f", b.AvgR)})
	}
	table.Render()

	fmt.Printf("\nTrades: %d (%d wins, %d losses) | Win rate: %.1f%%\n", r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRate)
	fmt.Printf("Total: %+.2fR | Expectancy: %+.2fR | Profit factor: %.2f | Max drawdown: %.2fR\n",
		r.TotalR, r.ExpectancyR, r.ProfitFactor, r.MaxDrawdownR)
	fmt.Printf("Streaks: %d wins, %d losses\n", r.MaxWinStreak, r.MaxLoseStreak)

	if verbose {
		fmt.Println("\n--- Trades ---")
		for _, t := range r.Trades {
			fmt.Printf("  %s %-20s %-5s %s -> %s  %+.2fR (%s)\n",
				t.EntryTime.Format("2006-01-02 15:04"), t.Setup, t.Side,
				formatPrice(t.EntryPrice), formatPrice(t.ExitPrice), t.RMultiple, t.ExitReason)
		}
	}
	return nil
}

func printOpportunityDetails(opp *strategy.Opportunity) {
	plan, ok := opp.Plan()
	if !ok {
		return
	}
	c := plan.Score.Components

	fmt.Printf("\n[%s] %s (%s)\n", opp.Instrument.Symbol, plan.Setup.Name, plan.Setup.Type)
	fmt.Printf("  Entry: %s | Stop: %s | Target: %s | R:R %.2f\n",
		formatPrice(plan.Entry), formatPrice(plan.StopLoss), formatPrice(plan.Target), plan.RiskReward)
	fmt.Printf("  Score: %.0f [%s] trend %.1f, pattern %.1f, volume %.1f, r:r %.1f",
		plan.Score.TotalScore, strings.ToUpper(string(plan.Score.Confidence)),
		c.Trend, c.Pattern, c.Volume, c.RiskReward)
	if c.Momentum > 0 {
		fmt.Printf(", momentum %.1f", c.Momentum)
	}
	fmt.Println()
	fmt.Printf("  %s\n", plan.Rationale)
}

func outputUniverses() error {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Universe", "Symbols", "Sample"}),
	)
	for _, u := range symbols.Universes() {
		syms := symbols.GetUniverse(u)
		sample := syms
		if len(sample) > 5 {
			sample = sample[:5]
		}
		table.Append([]string{string(u), fmt.Sprintf("%d", len(syms)), strings.Join(sample, ", ")})
	}
	table.Render()
	return nil
}

func outputStrategies(infos []strategy.StrategyInfo) error {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Strategy", "Timeframe", "Description"}),
	)
	for _, info := range infos {
		table.Append([]string{info.Name, info.Timeframe, info.Description})
	}
	table.Render()
	return nil
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.6f", q)
}

func formatPrice(v float64) string {
	switch {
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	case v >= 0.01:
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.8f", v)
}
