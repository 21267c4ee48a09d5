package analyzer

import (
	"fmt"

	"channelscout/pkg/model"
)

// Signal is the combined directional read of channel and pattern.
// Notes and Cautions are descriptive, in evaluation order.
type Signal struct {
	Bias     Bias     `json:"bias"`
	Notes    []string `json:"notes"`
	Cautions []string `json:"cautions"`
}

// ComputeCombinedSignal merges channel location, candlestick pattern and
// volume context into a single bias, reading volume with the default analyzer
func ComputeCombinedSignal(channel Channel, pattern PatternResult, candles []model.Candle) Signal {
	return CombineSignals(channel, pattern, AnalyzeVolume(candles))
}

// CombineSignals is ComputeCombinedSignal with volume already classified, so
// callers with a configured VolumeAnalyzer get notes that match its thresholds
func CombineSignals(channel Channel, pattern PatternResult, volume VolumeResult) Signal {
	sig := Signal{Bias: BiasNeutral, Notes: []string{}, Cautions: []string{}}
	dir := pattern.MainPattern.Direction()

	if pattern.MainPattern != PatternNone && pattern.MainPattern != "" {
		sig.Notes = append(sig.Notes, fmt.Sprintf("%s pattern on the latest bar", pattern.MainPattern))
	}

	if !channel.HasChannel {
		sig.Bias = dir
		sig.Cautions = append(sig.Cautions, "no confirmed channel; bias rests on the candlestick pattern alone")
		if dir == BiasNeutral {
			sig.Cautions = append(sig.Cautions, "no directional pattern either")
		}
		addVolumeContext(&sig, volume)
		return sig
	}

	sig.Notes = append(sig.Notes, fmt.Sprintf("%s channel %.2f-%.2f (%.1f%% wide, %d/%d touches)",
		channel.Direction, channel.Support, channel.Resistance, channel.WidthPct,
		channel.SupportTouches, channel.ResistanceTouches))

	switch channel.Status {
	case StatusNearSupport:
		switch dir {
		case BiasBullish:
			sig.Bias = BiasBullish
			sig.Notes = append(sig.Notes, "bullish reversal at channel support")
		case BiasBearish:
			sig.Cautions = append(sig.Cautions, "bearish pattern at support conflicts with the bounce context")
		default:
			sig.Notes = append(sig.Notes, "price at support, waiting for a reversal pattern")
		}
	case StatusNearResistance:
		switch dir {
		case BiasBearish:
			sig.Bias = BiasBearish
			sig.Notes = append(sig.Notes, "bearish reversal at channel resistance")
		case BiasBullish:
			sig.Cautions = append(sig.Cautions, "bullish pattern at resistance conflicts with the rejection context")
		default:
			sig.Notes = append(sig.Notes, "price at resistance, waiting for a reversal pattern")
		}
	case StatusBrokenOut:
		if dir == BiasBearish {
			sig.Cautions = append(sig.Cautions, "bearish pattern after an upside breakout; possible failed breakout")
		} else {
			sig.Bias = BiasBullish
			sig.Notes = append(sig.Notes, "close above resistance, breakout continuation")
		}
	case StatusBrokenDown:
		if dir == BiasBullish {
			sig.Cautions = append(sig.Cautions, "bullish pattern after a downside break; possible failed breakdown")
		} else {
			sig.Bias = BiasBearish
			sig.Notes = append(sig.Notes, "close below support, breakdown continuation")
		}
	default:
		sig.Bias = dir
		if dir != BiasNeutral {
			sig.Cautions = append(sig.Cautions, "price is mid-channel, away from support and resistance")
		}
	}

	if channel.Direction == DirectionFalling && sig.Bias == BiasBullish {
		sig.Cautions = append(sig.Cautions, "long bias inside a falling channel")
	}
	if channel.Direction == DirectionRising && sig.Bias == BiasBearish {
		sig.Cautions = append(sig.Cautions, "short bias inside a rising channel")
	}

	addVolumeContext(&sig, volume)
	return sig
}

func addVolumeContext(sig *Signal, vol VolumeResult) {
	if vol.Average <= 0 {
		return
	}
	switch vol.Class {
	case VolumeHigh:
		sig.Notes = append(sig.Notes, fmt.Sprintf("volume %.1fx the %d-bar average", vol.Ratio, vol.Period))
	case VolumeLow:
		sig.Cautions = append(sig.Cautions, fmt.Sprintf("thin volume (%.1fx average)", vol.Ratio))
	}
}
