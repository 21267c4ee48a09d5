package symbols

import (
	"sort"
	"strings"
)

// Universe is a named, predefined symbol list
type Universe string

const (
	UniverseTest      Universe = "test" // Small set for testing
	UniverseMegaCap   Universe = "megacap"
	UniverseNasdaq100 Universe = "nasdaq100"
	UniverseCrypto    Universe = "crypto"
)

var universes = map[Universe][]string{
	UniverseTest:      TestSymbols,
	UniverseMegaCap:   MegaCapSymbols,
	UniverseNasdaq100: Nasdaq100Symbols,
	UniverseCrypto:    CryptoSymbols,
}

// GetUniverse returns the symbols of a universe, or nil if unknown
func GetUniverse(u Universe) []string {
	return universes[Universe(strings.ToLower(string(u)))]
}

// Universes lists the known universe names, sorted
func Universes() []Universe {
	out := make([]Universe, 0, len(universes))
	for u := range universes {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TestSymbols mixes a few liquid stocks and crypto pairs
var TestSymbols = []string{
	"AAPL", "MSFT", "NVDA", "SPY", "QQQ",
	"BTC/USDT", "ETH/USDT",
}

// MegaCapSymbols are the largest US listings by market cap
var MegaCapSymbols = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "AVGO", "TSLA", "BRK-B", "LLY",
	"JPM", "V", "UNH", "XOM", "MA", "COST", "HD", "PG", "JNJ", "NFLX",
}

// CryptoSymbols are major USDT-quoted pairs
var CryptoSymbols = []string{
	"BTC/USDT", "ETH/USDT", "SOL/USDT", "BNB/USDT", "XRP/USDT",
	"ADA/USDT", "DOGE/USDT", "AVAX/USDT", "LINK/USDT", "DOT/USDT",
}

// Nasdaq100Symbols is the NASDAQ-100 components (as of 2024)
var Nasdaq100Symbols = []string{
	"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT", "AMD", "AMGN",
	"AMZN", "ANSS", "ARM", "ASML", "AVGO", "AZN", "BIIB", "BKNG", "BKR", "CCEP",
	"CDNS", "CDW", "CEG", "CHTR", "CMCSA", "COST", "CPRT", "CRWD", "CSCO", "CSGP",
	"CSX", "CTAS", "CTSH", "DDOG", "DLTR", "DXCM", "EA", "EXC", "FANG", "FAST",
	"FTNT", "GEHC", "GFS", "GILD", "GOOG", "GOOGL", "HON", "IDXX", "ILMN", "INTC",
	"INTU", "ISRG", "KDP", "KHC", "KLAC", "LIN", "LRCX", "LULU", "MAR", "MCHP",
	"MDB", "MDLZ", "MELI", "META", "MNST", "MRNA", "MRVL", "MSFT", "MU", "NFLX",
	"NVDA", "NXPI", "ODFL", "ON", "ORLY", "PANW", "PAYX", "PCAR", "PDD", "PEP",
	"PYPL", "QCOM", "REGN", "ROP", "ROST", "SBUX", "SMCI", "SNPS", "TEAM", "TMUS",
	"TSLA", "TTD", "TTWO", "TXN", "VRSK", "VRTX", "WBD", "WDAY", "XEL", "ZS",
}
