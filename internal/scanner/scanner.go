package scanner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"channelscout/internal/strategy"
	"channelscout/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// ScanResult holds the outcome of one scan over a universe
type ScanResult struct {
	ScanID        string                 `json:"scan_id"`
	Strategy      string                 `json:"strategy"`
	TotalScanned  int                    `json:"total_scanned"`
	Opportunities []strategy.Opportunity `json:"opportunities"`
	NoSetupCount  int                    `json:"no_setup_count"`
	ErrorCount    int                    `json:"error_count"`
	Errors        map[string]string      `json:"errors,omitempty"`
	ScanTime      time.Duration          `json:"scan_time"`
}

// Options controls scan concurrency and filtering
type Options struct {
	Workers        int
	Timeout        time.Duration
	MinScore       float64
	IncludeNoSetup bool // keep NoSetup descriptors in the result
}

// Scanner runs a strategy across many instruments in parallel
type Scanner struct {
	strategy     strategy.Strategy
	opts         Options
	logger       zerolog.Logger
	progressFunc ProgressCallback
}

// NewScanner creates a new scanner
func NewScanner(s strategy.Strategy, opts Options, logger zerolog.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Scanner{
		strategy: s,
		opts:     opts,
		logger:   logger.With().Str("component", "scanner").Str("strategy", s.Name()).Logger(),
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

type outcome struct {
	symbol string
	opp    *strategy.Opportunity
	err    error
}

// Scan analyzes every instrument and returns opportunities sorted by score,
// highest first. Per-symbol failures are counted, not returned.
func (s *Scanner) Scan(ctx context.Context, instruments []model.Instrument) (*ScanResult, error) {
	startTime := time.Now()
	result := &ScanResult{
		ScanID:        uuid.NewString(),
		Strategy:      s.strategy.Name(),
		TotalScanned:  len(instruments),
		Opportunities: []strategy.Opportunity{},
	}

	if len(instruments) == 0 {
		result.ScanTime = time.Since(startTime)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	// Channels
	jobChan := make(chan model.Instrument, len(instruments))
	resultChan := make(chan outcome, len(instruments))

	// Send all jobs
	for _, inst := range instruments {
		jobChan <- inst
	}
	close(jobChan)

	// Progress counter
	var scannedCount int64

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobChan {
				var out outcome
				select {
				case <-ctx.Done():
					out = outcome{symbol: inst.Symbol, err: ctx.Err()}
				default:
					opp, err := s.strategy.Analyze(ctx, inst)
					out = outcome{symbol: inst.Symbol, opp: opp, err: err}
				}
				resultChan <- out

				count := atomic.AddInt64(&scannedCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(instruments))
				}
			}
		}()
	}

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for out := range resultChan {
		switch {
		case out.err != nil:
			result.ErrorCount++
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[out.symbol] = out.err.Error()
			s.logger.Debug().Err(out.err).Str("symbol", out.symbol).Msg("analysis failed")
		case out.opp == nil:
			result.NoSetupCount++
		case out.opp.Setup == nil || out.opp.Setup.Kind() == strategy.SetupNone:
			result.NoSetupCount++
			if s.opts.IncludeNoSetup {
				result.Opportunities = append(result.Opportunities, *out.opp)
			}
		case out.opp.TotalScore() < s.opts.MinScore:
			s.logger.Debug().Str("symbol", out.symbol).Float64("score", out.opp.TotalScore()).Msg("below min score")
		default:
			result.Opportunities = append(result.Opportunities, *out.opp)
		}
	}

	sort.SliceStable(result.Opportunities, func(i, j int) bool {
		a, b := &result.Opportunities[i], &result.Opportunities[j]
		if a.TotalScore() != b.TotalScore() {
			return a.TotalScore() > b.TotalScore()
		}
		return a.Instrument.Symbol < b.Instrument.Symbol
	})

	result.ScanTime = time.Since(startTime)
	s.logger.Info().
		Str("scan_id", result.ScanID).
		Int("scanned", result.TotalScanned).
		Int("opportunities", len(result.Opportunities)).
		Int("errors", result.ErrorCount).
		Dur("elapsed", result.ScanTime).
		Msg("scan complete")

	return result, nil
}

// ScanSymbols scans specific symbols
func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) (*ScanResult, error) {
	instruments := make([]model.Instrument, len(symbols))
	for i, sym := range symbols {
		instruments[i] = model.NewInstrument(sym)
	}
	return s.Scan(ctx, instruments)
}
