package strategy

import (
	"context"
	"encoding/json"
	"time"

	"channelscout/internal/analyzer"
	"channelscout/pkg/model"
)

// SetupType is the direction of a trade plan
type SetupType string

const (
	SetupLong  SetupType = "long"
	SetupShort SetupType = "short"
	SetupNone  SetupType = "none"
)

// PlanSetup names what triggered a trade plan
type PlanSetup struct {
	Type    SetupType           `json:"type"`
	Name    string              `json:"setup_name"`
	Pattern analyzer.PatternType `json:"pattern"`
}

// TradePlan is a concrete entry/target/stop derived from channel and pattern.
// Long plans satisfy StopLoss < Entry < Target, short plans
// Target < Entry < StopLoss.
type TradePlan struct {
	Symbol     string    `json:"symbol"`
	Setup      PlanSetup `json:"setup"`
	Entry      float64   `json:"entry"`
	Target     float64   `json:"target"`
	StopLoss   float64   `json:"stop_loss"`
	RiskReward float64   `json:"risk_reward"`
	Score      Score     `json:"score"`
	Rationale  string    `json:"rationale"`
}

// Risk returns the distance from entry to stop
func (p TradePlan) Risk() float64 {
	if p.Setup.Type == SetupShort {
		return p.StopLoss - p.Entry
	}
	return p.Entry - p.StopLoss
}

// Valid reports whether the price levels are ordered for the plan's direction
func (p TradePlan) Valid() bool {
	switch p.Setup.Type {
	case SetupLong:
		return p.StopLoss > 0 && p.StopLoss < p.Entry && p.Entry < p.Target
	case SetupShort:
		return p.Target > 0 && p.Target < p.Entry && p.Entry < p.StopLoss
	}
	return false
}

// Setup is the outcome of analyzing one instrument: NoSetup, LongSetup or
// ShortSetup. Callers type-switch on it.
type Setup interface {
	Kind() SetupType
	isSetup()
}

// NoSetup means there is nothing to trade
type NoSetup struct {
	Reason string `json:"reason"`
}

// LongSetup carries a validated long plan
type LongSetup struct {
	Plan TradePlan `json:"plan"`
}

// ShortSetup carries a validated short plan
type ShortSetup struct {
	Plan TradePlan `json:"plan"`
}

func (NoSetup) Kind() SetupType    { return SetupNone }
func (LongSetup) Kind() SetupType  { return SetupLong }
func (ShortSetup) Kind() SetupType { return SetupShort }

func (NoSetup) isSetup()    {}
func (LongSetup) isSetup()  {}
func (ShortSetup) isSetup() {}

// SetupFromPlan wraps a plan in its variant; a nil plan becomes NoSetup
func SetupFromPlan(plan *TradePlan, reason string) Setup {
	if plan == nil {
		return NoSetup{Reason: reason}
	}
	if plan.Setup.Type == SetupShort {
		return ShortSetup{Plan: *plan}
	}
	return LongSetup{Plan: *plan}
}

// Opportunity is the descriptor produced for one instrument per scan
type Opportunity struct {
	ID         string                 `json:"id"`
	Instrument model.Instrument       `json:"instrument"`
	Timeframe  model.Timeframe        `json:"timeframe"`
	Channel    analyzer.Channel       `json:"channel"`
	Pattern    analyzer.PatternResult `json:"pattern"`
	Signal     analyzer.Signal        `json:"signal"`
	Indicators analyzer.Indicators    `json:"indicators"`
	Setup      Setup                  `json:"-"`
	AnalyzedAt time.Time              `json:"analyzed_at"`
}

// Plan returns the trade plan, or false for NoSetup
func (o *Opportunity) Plan() (TradePlan, bool) {
	switch s := o.Setup.(type) {
	case LongSetup:
		return s.Plan, true
	case ShortSetup:
		return s.Plan, true
	}
	return TradePlan{}, false
}

// TotalScore returns the plan's score, or 0 when there is no setup
func (o *Opportunity) TotalScore() float64 {
	if plan, ok := o.Plan(); ok {
		return plan.Score.TotalScore
	}
	return 0
}

// MarshalJSON flattens the setup variant into kind/plan/reason fields
func (o Opportunity) MarshalJSON() ([]byte, error) {
	type alias Opportunity
	out := struct {
		alias
		Kind   SetupType  `json:"kind"`
		Plan   *TradePlan `json:"plan,omitempty"`
		Reason string     `json:"reason,omitempty"`
	}{alias: alias(o), Kind: SetupNone}

	switch s := o.Setup.(type) {
	case LongSetup:
		out.Kind = SetupLong
		out.Plan = &s.Plan
	case ShortSetup:
		out.Kind = SetupShort
		out.Plan = &s.Plan
	case NoSetup:
		out.Reason = s.Reason
	}
	return json.Marshal(out)
}

// Strategy defines the interface for scan strategies
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a brief description
	Description() string

	// Timeframe returns the bar interval the strategy analyzes
	Timeframe() model.Timeframe

	// Analyze fetches candles for an instrument and runs the pipeline.
	// A NoSetup opportunity is a normal result, not an error.
	Analyze(ctx context.Context, inst model.Instrument) (*Opportunity, error)
}
