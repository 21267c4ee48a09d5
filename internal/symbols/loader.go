package symbols

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"channelscout/pkg/model"
)

// Load resolves the instruments to scan. Explicit symbols win over a
// universe name; the result is deduplicated and keeps input order.
func Load(universe string, explicit []string) ([]model.Instrument, error) {
	if len(explicit) > 0 {
		return FromSymbols(explicit), nil
	}

	if universe == "" {
		universe = string(UniverseTest)
	}
	syms := GetUniverse(Universe(universe))
	if syms == nil {
		return nil, fmt.Errorf("unknown universe: %s (available: %v)", universe, Universes())
	}
	return FromSymbols(syms), nil
}

// LoadFile reads one symbol per line. Blank lines and lines starting with #
// are ignored.
func LoadFile(path string) ([]model.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbol file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads symbols from r in the LoadFile format
func Parse(r io.Reader) ([]model.Instrument, error) {
	var syms []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// allow trailing comments and comma separated lists
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		for _, s := range strings.Split(line, ",") {
			if s = strings.TrimSpace(s); s != "" {
				syms = append(syms, s)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading symbols: %w", err)
	}
	return FromSymbols(syms), nil
}

// FromSymbols converts raw tickers into instruments, dropping invalid and
// duplicate entries
func FromSymbols(syms []string) []model.Instrument {
	seen := make(map[string]bool, len(syms))
	out := make([]model.Instrument, 0, len(syms))
	for _, s := range syms {
		inst := model.NewInstrument(s)
		if !isValidSymbol(inst.Symbol) || seen[inst.Symbol] {
			continue
		}
		seen[inst.Symbol] = true
		out = append(out, inst)
	}
	return out
}

// isValidSymbol accepts tickers (BRK-B, BRK.B) and pairs (BTC/USDT)
func isValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 15 {
		return false
	}
	for _, c := range symbol {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '/') {
			return false
		}
	}
	return true
}
