package analyzer

import (
	"channelscout/pkg/model"
)

// VolumeClass buckets the latest volume against its baseline
type VolumeClass string

const (
	VolumeHigh    VolumeClass = "high"
	VolumeAverage VolumeClass = "average"
	VolumeLow     VolumeClass = "low"
)

// VolumeResult compares recent volume with a trailing average
type VolumeResult struct {
	Current float64     `json:"current"`
	Average float64     `json:"average"`
	Ratio   float64     `json:"ratio"`
	Class   VolumeClass `json:"class"`
	Period  int         `json:"period"` // bars in the average
}

// AbsorptionResult flags heavy volume that failed to move price
type AbsorptionResult struct {
	Detected    bool    `json:"detected"`
	BarIndex    int     `json:"bar_index"`
	VolumeRatio float64 `json:"volume_ratio"`
	BodyPct     float64 `json:"body_pct"` // body as a fraction of range
	Bias        Bias    `json:"bias"`
}

// VolumeConfig holds volume thresholds
type VolumeConfig struct {
	Period            int     `yaml:"period"`
	HighRatio         float64 `yaml:"high_ratio"`
	LowRatio          float64 `yaml:"low_ratio"`
	AbsorptionRatio   float64 `yaml:"absorption_ratio"`
	AbsorptionBodyPct float64 `yaml:"absorption_body_pct"`
	AbsorptionBars    int     `yaml:"absorption_bars"` // how many recent bars to inspect
}

// DefaultVolumeConfig returns the default volume thresholds
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		Period:            20,
		HighRatio:         1.5,
		LowRatio:          0.7,
		AbsorptionRatio:   1.5,
		AbsorptionBodyPct: 0.3,
		AbsorptionBars:    3,
	}
}

// VolumeAnalyzer classifies volume and detects absorption
type VolumeAnalyzer struct {
	config VolumeConfig
}

// NewVolumeAnalyzer creates a volume analyzer
func NewVolumeAnalyzer(cfg VolumeConfig) *VolumeAnalyzer {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	return &VolumeAnalyzer{config: cfg}
}

// AnalyzeVolume runs the default analyzer
func AnalyzeVolume(candles []model.Candle) VolumeResult {
	return NewVolumeAnalyzer(DefaultVolumeConfig()).Analyze(candles)
}

// DetectAbsorption runs the default analyzer
func DetectAbsorption(candles []model.Candle, volume VolumeResult) AbsorptionResult {
	return NewVolumeAnalyzer(DefaultVolumeConfig()).DetectAbsorption(candles, volume)
}

// Analyze compares the latest bar's volume with the mean of the preceding
// Period bars
func (a *VolumeAnalyzer) Analyze(candles []model.Candle) VolumeResult {
	candles = Sanitize(candles)
	if len(candles) < 2 {
		return VolumeResult{Ratio: 1.0, Class: VolumeAverage}
	}

	n := len(candles)
	start := n - 1 - a.config.Period
	if start < 0 {
		start = 0
	}

	var sum float64
	for i := start; i < n-1; i++ {
		sum += candles[i].Volume
	}
	avg := sum / float64(n-1-start)

	res := VolumeResult{Current: candles[n-1].Volume, Average: avg, Ratio: 1.0, Period: n - 1 - start}
	if avg > 0 {
		res.Ratio = res.Current / avg
	}

	switch {
	case res.Ratio >= a.config.HighRatio:
		res.Class = VolumeHigh
	case res.Ratio < a.config.LowRatio:
		res.Class = VolumeLow
	default:
		res.Class = VolumeAverage
	}
	return res
}

// DetectAbsorption scans the most recent bars, newest first, for a bar with
// elevated volume and a small body. A close in the upper half of the range
// means supply was absorbed (bullish), the lower half means demand was.
func (a *VolumeAnalyzer) DetectAbsorption(candles []model.Candle, volume VolumeResult) AbsorptionResult {
	none := AbsorptionResult{BarIndex: -1, Bias: BiasNeutral}

	candles = Sanitize(candles)
	if len(candles) < 2 || volume.Average <= 0 {
		return none
	}

	bars := a.config.AbsorptionBars
	if bars <= 0 {
		bars = 1
	}

	for i := len(candles) - 1; i >= 0 && i >= len(candles)-bars; i-- {
		c := candles[i]
		s := shapeOf(c)
		if s.rng <= 0 {
			continue
		}

		ratio := c.Volume / volume.Average
		bodyPct := s.body / s.rng
		if ratio < a.config.AbsorptionRatio || bodyPct > a.config.AbsorptionBodyPct {
			continue
		}

		bias := BiasNeutral
		mid := c.Low + s.rng/2
		if c.Close > mid {
			bias = BiasBullish
		} else if c.Close < mid {
			bias = BiasBearish
		}

		return AbsorptionResult{
			Detected:    true,
			BarIndex:    i,
			VolumeRatio: ratio,
			BodyPct:     bodyPct,
			Bias:        bias,
		}
	}
	return none
}
