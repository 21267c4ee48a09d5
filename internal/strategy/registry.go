package strategy

import (
	"fmt"
	"sort"
	"sync"

	"channelscout/internal/provider"
)

// StrategyFactory builds a strategy from pipeline config and a data provider
type StrategyFactory func(cfg Config, p provider.Provider) Strategy

var (
	registry     = make(map[string]StrategyFactory)
	registryLock sync.RWMutex
)

// Register adds a strategy factory under name, replacing any existing one
func Register(name string, factory StrategyFactory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// Get builds the named strategy
func Get(name string, cfg Config, p provider.Provider) (Strategy, error) {
	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %v)", name, List())
	}

	return factory(cfg, p), nil
}

// List returns registered strategy names, sorted
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("swing", func(cfg Config, p provider.Provider) Strategy {
		return NewSwingStrategy(cfg, p)
	})
	Register("intraday", func(cfg Config, p provider.Provider) Strategy {
		return NewIntradayStrategy(cfg, p)
	})
}

// StrategyInfo describes a registered strategy
type StrategyInfo struct {
	Name        string
	Description string
	Timeframe   string
}

// AllInfo describes every registered strategy
func AllInfo(cfg Config, p provider.Provider) []StrategyInfo {
	names := List()
	infos := make([]StrategyInfo, 0, len(names))

	for _, name := range names {
		s, err := Get(name, cfg, p)
		if err != nil {
			continue
		}
		infos = append(infos, StrategyInfo{
			Name:        s.Name(),
			Description: s.Description(),
			Timeframe:   string(s.Timeframe()),
		})
	}

	return infos
}
