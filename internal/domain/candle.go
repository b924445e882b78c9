package domain

import "time"

// Candle represents a single closed OHLCV candle for an asset at a given
// interval. CloseTime is the right edge of the candle.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Interval  Timeframe `json:"interval"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// DefaultSymbols is the asset list used when COINS is not configured.
var DefaultSymbols = []string{"BTC", "ETH", "BNB", "SOL", "BGB"}

// QuoteAsset is the quote side of every monitored pair.
const QuoteAsset = "USDT"

// OKXInstID maps internal symbols to OKX instrument identifiers.
var OKXInstID = map[string]string{
	"BTC": "BTC-USDT",
	"ETH": "ETH-USDT",
	"BNB": "BNB-USDT",
	"SOL": "SOL-USDT",
}

// BybitSymbol maps internal symbols to Bybit spot symbols.
var BybitSymbol = map[string]string{
	"BTC": "BTCUSDT",
	"ETH": "ETHUSDT",
	"BNB": "BNBUSDT",
	"SOL": "SOLUSDT",
}

// BitgetOnly lists symbols served exclusively by Bitget (exchange tokens
// the major venues do not quote).
var BitgetOnly = map[string]bool{
	"BGB": true,
}
