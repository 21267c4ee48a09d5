package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"channelscout/internal/backtest"
	"channelscout/internal/cache"
	"channelscout/internal/config"
	"channelscout/internal/logging"
	"channelscout/internal/position"
	"channelscout/internal/provider"
	"channelscout/internal/scanner"
	"channelscout/internal/strategy"
	"channelscout/internal/symbols"
	"channelscout/pkg/model"
)

var (
	cfgFile      string
	envFile      string
	format       string
	verbose      bool
	strategyName string
	universeName string
	symbolList   string
	symbolFile   string
	workers      int
	minScore     float64
	showAll      bool
	capital      float64
	riskPct      float64
	bars         int
	maxHold      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "channelscout",
		Short: "Price channel and candlestick opportunity scanner",
		Long: `ChannelScout scans stocks and crypto pairs for price channel setups
confirmed by candlestick patterns and volume, and scores each trade plan 0-100.

Strategies:
  swing     - daily bars: support bounces, resistance rejections, breakouts
  intraday  - 15m bars gated on volume and absorption

Examples:
  channelscout scan --strategy swing --universe megacap
  channelscout scan --strategy intraday --symbols BTC/USDT,ETH/USDT --format json
  channelscout analyze AAPL`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before config")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging and detailed output")
	rootCmd.PersistentFlags().StringVar(&strategyName, "strategy", "", "strategy: swing, intraday (default from config)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a universe or symbol list for opportunities",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&universeName, "universe", "", "predefined universe (see 'universes')")
	scanCmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols, overrides --universe")
	scanCmd.Flags().StringVar(&symbolFile, "symbols-file", "", "file with one symbol per line")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers")
	scanCmd.Flags().Float64Var(&minScore, "min-score", 0, "hide opportunities scoring below this")
	scanCmd.Flags().BoolVar(&showAll, "all", false, "include symbols without a setup")

	analyzeCmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Show the full analysis for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Float64Var(&capital, "capital", 0, "account size for position sizing (0 = skip)")
	analyzeCmd.Flags().Float64Var(&riskPct, "risk", 1.0, "percent of capital risked per trade")

	backtestCmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Replay the strategy over history and report results in R",
		Args:  cobra.ExactArgs(1),
		RunE:  runBacktest,
	}
	backtestCmd.Flags().IntVar(&bars, "bars", 500, "history length to replay")
	backtestCmd.Flags().IntVar(&maxHold, "max-hold", 10, "bars to hold before a timeout exit")

	universesCmd := &cobra.Command{
		Use:   "universes",
		Short: "List predefined universes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return outputUniverses()
		},
	}

	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "List available strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			return outputStrategies(strategy.AllInfo(cfg.Strategy(), nil))
		},
	}

	rootCmd.AddCommand(scanCmd, analyzeCmd, backtestCmd, universesCmd, strategiesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every data-fetching command needs
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider provider.Provider
	cache    cache.Cache
	strategy strategy.Strategy
}

func setup(cmd *cobra.Command) (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Override config with CLI flags
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if strategyName != "" {
		cfg.Scanner.Strategy = strategyName
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Scanner.Workers = workers
	}
	if f := cmd.Flags().Lookup("min-score"); f != nil && f.Changed {
		cfg.Scanner.MinScore = minScore
	}
	if f := cmd.Flags().Lookup("universe"); f != nil && f.Changed {
		cfg.Scanner.Universe = universeName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	p, c, err := createProvider(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.Get(cfg.Scanner.Strategy, cfg.Strategy(), p)
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, provider: p, cache: c, strategy: strat}, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// createProvider builds the fallback chain (Binance first for crypto, then
// Yahoo) and wraps it with the configured cache
func createProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (provider.Provider, cache.Cache, error) {
	var providers []provider.Provider
	if cfg.Providers.Binance.Enabled {
		providers = append(providers, provider.NewBinanceProvider(cfg.Providers.Binance.BaseURL, true))
	}
	if cfg.Providers.Yahoo.Enabled {
		providers = append(providers, provider.NewYahooProvider(cfg.Providers.Yahoo.BaseURL))
	}

	fallback := provider.NewFallbackProvider(providers...)
	if !fallback.IsAvailable() {
		return nil, nil, fmt.Errorf("no available data providers")
	}

	names := make([]string, 0, len(fallback.Providers()))
	for _, p := range fallback.Providers() {
		names = append(names, p.Name())
	}
	logger.Debug().Strs("providers", names).Str("cache", cfg.Cache.Backend).Msg("data providers ready")

	var c cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
			c = cache.NewMemoryCache()
		} else {
			c = rc
		}
	case "none":
		return fallback, nil, nil
	default:
		c = cache.NewMemoryCache()
	}

	return provider.NewCachingProvider(fallback, c, cfg.Cache.TTL, logger), c, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping scan...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func loadInstruments(cfg *config.Config) ([]model.Instrument, error) {
	if symbolFile != "" {
		return symbols.LoadFile(symbolFile)
	}
	var explicit []string
	if symbolList != "" {
		explicit = strings.Split(symbolList, ",")
	}
	return symbols.Load(cfg.Scanner.Universe, explicit)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	instruments, err := loadInstruments(a.cfg)
	if err != nil {
		return fmt.Errorf("loading symbols: %w", err)
	}
	if len(instruments) == 0 {
		return fmt.Errorf("no symbols to scan")
	}

	s := scanner.NewScanner(a.strategy, scanner.Options{
		Workers:        a.cfg.Scanner.Workers,
		Timeout:        a.cfg.Scanner.Timeout,
		MinScore:       a.cfg.Scanner.MinScore,
		IncludeNoSetup: showAll,
	}, a.logger)

	var bar *progressbar.ProgressBar
	if format != "json" {
		fmt.Printf("Scanning %d symbols with the %s strategy...\n\n", len(instruments), a.strategy.Name())
		bar = newProgressBar(len(instruments))
		s.SetProgressCallback(func(scanned, total int) {
			bar.Set(scanned)
		})
	}

	result, err := s.Scan(ctx, instruments)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	if format == "json" {
		return outputJSON(result)
	}
	return outputScanTable(result)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	inst := model.NewInstrument(args[0])
	opp, err := a.strategy.Analyze(ctx, inst)
	if err != nil {
		return err
	}

	var sizing *position.Sizing
	if plan, ok := opp.Plan(); ok && capital > 0 {
		cfg := position.DefaultSizingConfig(capital)
		cfg.RiskPerTrade = riskPct / 100
		sizing, err = position.Size(plan, inst.Class, cfg)
		if err != nil {
			a.logger.Warn().Err(err).Msg("position sizing skipped")
		}
	}

	if format == "json" {
		return outputJSON(struct {
			Opportunity *strategy.Opportunity `json:"opportunity"`
			Sizing      *position.Sizing      `json:"sizing,omitempty"`
		}{opp, sizing})
	}
	return outputOpportunity(opp, sizing)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	inst := model.NewInstrument(args[0])
	tf := a.strategy.Timeframe()
	candles, err := a.provider.GetCandles(ctx, inst.Symbol, tf, bars)
	if err != nil {
		return fmt.Errorf("fetching history for %s: %w", inst.Symbol, err)
	}

	cfg := backtest.DefaultConfig()
	cfg.MaxHoldBars = maxHold
	bt := backtest.NewBacktester(cfg, strategy.NewPipeline(a.cfg.Strategy(), tf.IsIntraday()))

	a.logger.Debug().Str("symbol", inst.Symbol).Int("bars", len(candles)).Msg("replaying history")
	result := bt.Run(inst, tf, candles)

	if format == "json" {
		return outputJSON(result)
	}
	return outputBacktest(result)
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
