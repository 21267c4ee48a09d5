package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"channelscout/pkg/model"
)

type fakeProvider struct {
	candles []model.Candle
	err     error
	gotTF   model.Timeframe
	gotN    int
}

func (f *fakeProvider) Name() string               { return "fake" }
func (f *fakeProvider) IsAvailable() bool          { return true }
func (f *fakeProvider) Supports(symbol string) bool { return true }

func (f *fakeProvider) GetCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Candle, error) {
	f.gotTF, f.gotN = tf, count
	return f.candles, f.err
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(DefaultConfig(), false)
	inst := model.NewInstrument("TEST")

	t.Run("long setup", func(t *testing.T) {
		opp := p.Run(inst, model.Timeframe1d, bounceBars())
		if opp.ID == "" {
			t.Error("Expected an opportunity ID")
		}
		if opp.Setup.Kind() != SetupLong {
			t.Fatalf("Expected long setup, got %s", opp.Setup.Kind())
		}
		plan, ok := opp.Plan()
		if !ok || plan.Symbol != "TEST" {
			t.Errorf("Expected plan for TEST, got %+v", plan)
		}
		if opp.TotalScore() != plan.Score.TotalScore {
			t.Errorf("Expected TotalScore to mirror the plan")
		}
		if opp.Indicators.ATR <= 0 {
			t.Errorf("Expected indicators to be populated")
		}
	})

	t.Run("short setup", func(t *testing.T) {
		opp := p.Run(inst, model.Timeframe1d, mirrorBars(bounceBars()))
		if _, ok := opp.Setup.(ShortSetup); !ok {
			t.Errorf("Expected ShortSetup, got %T", opp.Setup)
		}
	})

	t.Run("insufficient data", func(t *testing.T) {
		opp := p.Run(inst, model.Timeframe1d, flatBars(5))
		ns, ok := opp.Setup.(NoSetup)
		if !ok {
			t.Fatalf("Expected NoSetup, got %T", opp.Setup)
		}
		if !strings.Contains(ns.Reason, "insufficient data") {
			t.Errorf("Expected insufficient data reason, got %q", ns.Reason)
		}
		if opp.TotalScore() != 0 {
			t.Errorf("Expected 0 score without a setup")
		}
	})

	t.Run("flat", func(t *testing.T) {
		opp := p.Run(inst, model.Timeframe1d, flatBars(40))
		ns, ok := opp.Setup.(NoSetup)
		if !ok {
			t.Fatalf("Expected NoSetup, got %T", opp.Setup)
		}
		if ns.Reason != "no channel and no directional pattern" {
			t.Errorf("Unexpected reason %q", ns.Reason)
		}
	})
}

func TestPipeline_Intraday(t *testing.T) {
	bars := bounceBars()
	for i := range bars {
		bars[i].Volume = 200
	}
	bars[len(bars)-1].Volume = 100

	opp := NewPipeline(DefaultConfig(), true).Run(model.NewInstrument("TEST"), model.Timeframe15m, bars)
	ns, ok := opp.Setup.(NoSetup)
	if !ok {
		t.Fatalf("Expected thin volume to block the setup, got %T", opp.Setup)
	}
	if ns.Reason != "volume too thin" {
		t.Errorf("Expected volume reason, got %q", ns.Reason)
	}
}

func TestPipeline_SignalUsesConfiguredVolume(t *testing.T) {
	volumeNote := func(opp *Opportunity) string {
		for _, n := range opp.Signal.Notes {
			if strings.HasPrefix(n, "volume ") {
				return n
			}
		}
		return ""
	}
	inst := model.NewInstrument("TEST")

	opp := NewPipeline(DefaultConfig(), false).Run(inst, model.Timeframe1d, bounceBars())
	if got := volumeNote(opp); got != "volume 1.5x the 20-bar average" {
		t.Errorf("Expected default volume note, got %q", got)
	}

	cfg := DefaultConfig()
	cfg.Volume.HighRatio = 2.0
	cfg.Volume.Period = 10
	opp = NewPipeline(cfg, true).Run(inst, model.Timeframe15m, bounceBars())
	if got := volumeNote(opp); got != "" {
		t.Errorf("Expected no volume note under a 2.0x threshold, got %q", got)
	}

	cfg.Volume.HighRatio = 1.4
	opp = NewPipeline(cfg, true).Run(inst, model.Timeframe15m, bounceBars())
	if got := volumeNote(opp); got != "volume 1.5x the 10-bar average" {
		t.Errorf("Expected note from the configured period, got %q", got)
	}
}

func TestOpportunity_MarshalJSON(t *testing.T) {
	opp := NewPipeline(DefaultConfig(), false).Run(model.NewInstrument("TEST"), model.Timeframe1d, bounceBars())

	data, err := json.Marshal(opp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["kind"] != "long" {
		t.Errorf("Expected kind long, got %v", out["kind"])
	}
	plan, ok := out["plan"].(map[string]any)
	if !ok {
		t.Fatalf("Expected plan object, got %v", out["plan"])
	}
	if plan["entry"] != 108.3 {
		t.Errorf("Expected entry 108.3, got %v", plan["entry"])
	}
	if _, ok := out["reason"]; ok {
		t.Errorf("Expected no reason on a long setup")
	}

	none := NewPipeline(DefaultConfig(), false).Run(model.NewInstrument("TEST"), model.Timeframe1d, nil)
	data, _ = json.Marshal(none)
	if !strings.Contains(string(data), `"kind":"none"`) || !strings.Contains(string(data), `"reason":"insufficient data`) {
		t.Errorf("Expected none kind with reason, got %s", data)
	}
}

func TestChannelStrategy_Analyze(t *testing.T) {
	fp := &fakeProvider{candles: bounceBars()}
	s := NewSwingStrategy(DefaultConfig(), fp)

	opp, err := s.Analyze(context.Background(), model.NewInstrument("TEST"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if fp.gotTF != model.Timeframe1d || fp.gotN != 120 {
		t.Errorf("Expected 120 daily bars requested, got %d %s", fp.gotN, fp.gotTF)
	}
	if opp.Setup.Kind() != SetupLong {
		t.Errorf("Expected long setup, got %s", opp.Setup.Kind())
	}

	boom := errors.New("boom")
	fp = &fakeProvider{err: boom}
	_, err = NewIntradayStrategy(DefaultConfig(), fp).Analyze(context.Background(), model.NewInstrument("TEST"))
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
	if fp.gotTF != model.Timeframe15m {
		t.Errorf("Expected 15m bars for intraday, got %s", fp.gotTF)
	}
}

func TestSetupFromPlan(t *testing.T) {
	if s := SetupFromPlan(nil, "nothing"); s.Kind() != SetupNone {
		t.Errorf("Expected NoSetup for nil plan")
	}
	short := &TradePlan{Setup: PlanSetup{Type: SetupShort}, Entry: 100, Target: 90, StopLoss: 105}
	if s := SetupFromPlan(short, ""); s.Kind() != SetupShort {
		t.Errorf("Expected ShortSetup")
	}
	if short.Risk() != 5 {
		t.Errorf("Expected short risk 5, got %.2f", short.Risk())
	}
}
