package position

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"channelscout/internal/strategy"
	"channelscout/pkg/model"
)

// SizingConfig holds account-level risk settings
type SizingConfig struct {
	AccountBalance float64 // Total account value
	RiskPerTrade   float64 // Max risk per trade (e.g., 0.01 = 1%)
	Commission     float64 // Commission rate per side (e.g., 0.001 = 0.1%)
}

// DefaultSizingConfig returns conservative defaults
func DefaultSizingConfig(balance float64) SizingConfig {
	return SizingConfig{
		AccountBalance: balance,
		RiskPerTrade:   0.01,
		Commission:     0.001,
	}
}

// Sizing is the position a plan supports under a risk budget
type Sizing struct {
	Quantity     float64 `json:"quantity"`
	Notional     float64 `json:"notional"`
	RiskAmount   float64 `json:"risk_amount"` // loss at the stop, costs included
	RewardAmount float64 `json:"reward_amount"`
	MaxLossPct   float64 `json:"max_loss_pct"`  // % of the account at risk
	BreakevenPct float64 `json:"breakeven_pct"` // win rate needed at this R:R
	Capped       bool    `json:"capped"`        // notional limited by balance
}

// cryptoQuantityPlaces is the precision fractional quantities are floored to
const cryptoQuantityPlaces = 6

// Size computes the quantity for a plan so that a stop-out loses at most
// RiskPerTrade of the account. Stocks trade whole shares, crypto fractional.
func Size(plan strategy.TradePlan, class model.AssetClass, cfg SizingConfig) (*Sizing, error) {
	if cfg.AccountBalance <= 0 || cfg.RiskPerTrade <= 0 {
		return nil, fmt.Errorf("account balance and risk per trade must be positive")
	}
	if !plan.Valid() {
		return nil, fmt.Errorf("invalid plan levels for %s", plan.Symbol)
	}

	riskPerUnit := plan.Risk() + plan.Entry*cfg.Commission*2
	budget := cfg.AccountBalance * cfg.RiskPerTrade

	qty := budget / riskPerUnit
	capped := false
	if maxQty := cfg.AccountBalance / plan.Entry; qty > maxQty {
		qty = maxQty
		capped = true
	}
	qty = floorQuantity(qty, class)
	if qty <= 0 {
		return nil, fmt.Errorf("risk budget %.2f too small for one unit of %s", budget, plan.Symbol)
	}

	s := &Sizing{
		Quantity:     qty,
		Notional:     qty * plan.Entry,
		RiskAmount:   qty * riskPerUnit,
		RewardAmount: qty * math.Abs(plan.Target-plan.Entry),
		Capped:       capped,
	}
	s.MaxLossPct = s.RiskAmount / cfg.AccountBalance * 100
	if plan.RiskReward > 0 {
		s.BreakevenPct = 1 / (1 + plan.RiskReward) * 100
	}
	return s, nil
}

func floorQuantity(qty float64, class model.AssetClass) float64 {
	if class == model.AssetCrypto {
		return decimal.NewFromFloat(qty).RoundDown(cryptoQuantityPlaces).InexactFloat64()
	}
	return math.Floor(qty)
}

// CalculateKelly calculates the Kelly fraction for given parameters
func CalculateKelly(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 0
	}

	// Kelly = (W * B - L) / B
	b := avgWin / avgLoss
	kelly := (winRate*b - (1 - winRate)) / b

	return math.Max(0, math.Min(kelly, 1))
}
