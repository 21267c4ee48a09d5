package analyzer

import (
	"testing"

	"channelscout/pkg/model"
)

func volumeSeries(last model.Candle) []model.Candle {
	candles := make([]model.Candle, 0, 21)
	for i := 0; i < 20; i++ {
		candles = append(candles, bar(i, 100, 100.3, 99.9, 100.1, 1000))
	}
	last.Time = testStart.AddDate(0, 0, 20)
	return append(candles, last)
}

func TestAnalyzeVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		ratio  float64
		class  VolumeClass
	}{
		{"high", 2000, 2.0, VolumeHigh},
		{"threshold is high", 1500, 1.5, VolumeHigh},
		{"average", 1000, 1.0, VolumeAverage},
		{"low", 500, 0.5, VolumeLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeVolume(volumeSeries(model.Candle{Open: 100, High: 100.3, Low: 99.9, Close: 100.1, Volume: tt.volume}))
			if !near(got.Ratio, tt.ratio, 1e-9) {
				t.Errorf("Expected ratio %.2f, got %.4f", tt.ratio, got.Ratio)
			}
			if got.Class != tt.class {
				t.Errorf("Expected %s, got %s", tt.class, got.Class)
			}
			if got.Average != 1000 || got.Period != 20 {
				t.Errorf("Expected a 20-bar average of 1000, got %.1f over %d", got.Average, got.Period)
			}
		})
	}
}

func TestAnalyzeVolume_ShortSeries(t *testing.T) {
	got := AnalyzeVolume([]model.Candle{bar(0, 100, 101, 99, 100, 500)})
	if got.Ratio != 1.0 || got.Class != VolumeAverage {
		t.Errorf("Expected neutral result for one bar, got %+v", got)
	}
}

func TestDetectAbsorption(t *testing.T) {
	tests := []struct {
		name     string
		last     model.Candle
		detected bool
		bias     Bias
	}{
		{
			name:     "bullish absorption",
			last:     model.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100.05, Volume: 2000},
			detected: true,
			bias:     BiasBullish,
		},
		{
			name:     "bearish absorption",
			last:     model.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 99.9, Volume: 2000},
			detected: true,
			bias:     BiasBearish,
		},
		{
			name:     "large body is a move, not absorption",
			last:     model.Candle{Open: 99.5, High: 100.5, Low: 99.4, Close: 100.4, Volume: 2000},
			detected: false,
		},
		{
			name:     "ordinary volume",
			last:     model.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100.05, Volume: 1000},
			detected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := volumeSeries(tt.last)
			got := DetectAbsorption(candles, AnalyzeVolume(candles))
			if got.Detected != tt.detected {
				t.Fatalf("Expected detected=%v, got %+v", tt.detected, got)
			}
			if !tt.detected {
				if got.BarIndex != -1 {
					t.Errorf("Expected bar index -1, got %d", got.BarIndex)
				}
				return
			}
			if got.Bias != tt.bias {
				t.Errorf("Expected %s, got %s", tt.bias, got.Bias)
			}
			if got.BarIndex != len(candles)-1 {
				t.Errorf("Expected latest bar, got %d", got.BarIndex)
			}
			if got.VolumeRatio < 1.5 {
				t.Errorf("Expected volume ratio >= 1.5, got %.2f", got.VolumeRatio)
			}
		})
	}
}

func TestRecentVolumeRatio(t *testing.T) {
	candles := make([]model.Candle, 0, 33)
	for i := 0; i < 30; i++ {
		candles = append(candles, bar(i, 100, 101, 99, 100, 100))
	}
	for i := 30; i < 33; i++ {
		candles = append(candles, bar(i, 100, 101, 99, 100, 300))
	}

	if got := RecentVolumeRatio(candles, 3, 30); !near(got, 3.0, 1e-9) {
		t.Errorf("Expected 3.0, got %.4f", got)
	}
	if got := RecentVolumeRatio(candles[:1], 3, 30); got != 1.0 {
		t.Errorf("Expected 1.0 when undefined, got %.4f", got)
	}
}
