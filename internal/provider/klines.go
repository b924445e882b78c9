package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"glowing-telegram/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	okxBaseURL     = "https://www.okx.com"
	bybitBaseURL   = "https://api.bybit.com"
	binanceBaseURL = "https://api.binance.com"
	bitgetBaseURL  = "https://api.bitget.com"

	bitgetMaxLimit = 200
)

// okxBar maps internal timeframes to OKX bar identifiers.
var okxBar = map[domain.Timeframe]string{
	domain.TimeframeH1: "1H",
	domain.TimeframeD1: "1D",
}

// bybitInterval maps internal timeframes to Bybit kline intervals.
var bybitInterval = map[domain.Timeframe]string{
	domain.TimeframeH1: "60",
	domain.TimeframeD1: "D",
}

// binanceInterval maps internal timeframes to Binance kline intervals.
var binanceInterval = map[domain.Timeframe]string{
	domain.TimeframeH1: "1h",
	domain.TimeframeD1: "1d",
}

// bitgetGranularity maps internal timeframes to Bitget spot granularities.
var bitgetGranularity = map[domain.Timeframe]string{
	domain.TimeframeH1: "1h",
	domain.TimeframeD1: "1day",
}

// KlineProvider fetches OHLCV candles from public spot market endpoints,
// rotating OKX, Bybit and Binance until one answers. Exchange tokens listed
// in domain.BitgetOnly are served by Bitget instead.
type KlineProvider struct {
	client  *http.Client
	tracer  trace.Tracer
	limiter *HostLimiter

	okxURL     string
	bybitURL   string
	binanceURL string
	bitgetURL  string
}

// NewKlineProvider creates a provider with per-venue rate limiting
// (10 requests per second per venue, well under every public limit).
func NewKlineProvider(tracer trace.Tracer) *KlineProvider {
	return &KlineProvider{
		client:     &http.Client{Timeout: 30 * time.Second},
		tracer:     tracer,
		limiter:    NewHostLimiter(10, 100*time.Millisecond),
		okxURL:     okxBaseURL,
		bybitURL:   bybitBaseURL,
		binanceURL: binanceBaseURL,
		bitgetURL:  bitgetBaseURL,
	}
}

// FetchKlines returns up to limit closed candles for the symbol and
// timeframe, sorted oldest first. CloseTime is the right edge of each candle.
func (p *KlineProvider) FetchKlines(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "klines.fetch")
	defer span.End()

	if domain.BitgetOnly[symbol] {
		return p.fetchBitget(ctx, symbol, tf, limit)
	}

	var lastErr error
	for _, fetch := range []func(context.Context, string, domain.Timeframe, int) ([]*domain.Candle, error){
		p.fetchOKX,
		p.fetchBybit,
		p.fetchBinance,
	} {
		candles, err := fetch(ctx, symbol, tf, limit)
		if err == nil {
			return candles, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("all venues failed for %s %s: %w", symbol, tf, lastErr)
}

func (p *KlineProvider) fetchOKX(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error) {
	instID, ok := domain.OKXInstID[symbol]
	if !ok {
		return nil, fmt.Errorf("okx: unsupported symbol %s", symbol)
	}
	bar, ok := okxBar[tf]
	if !ok {
		return nil, fmt.Errorf("okx: unsupported timeframe %s", tf)
	}

	url := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		p.okxURL, instID, bar, limit)

	body, err := p.doRequest(ctx, "okx", url)
	if err != nil {
		return nil, fmt.Errorf("okx klines: %w", err)
	}

	// Rows are newest first: [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
	var raw struct {
		Code string     `json:"code"`
		Msg  string     `json:"msg"`
		Data [][]string `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("okx parse: %w", err)
	}
	if raw.Code != "0" {
		return nil, fmt.Errorf("okx error %s: %s", raw.Code, raw.Msg)
	}

	return parseStringRows(symbol, tf, raw.Data)
}

func (p *KlineProvider) fetchBybit(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error) {
	pair, ok := domain.BybitSymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("bybit: unsupported symbol %s", symbol)
	}
	interval, ok := bybitInterval[tf]
	if !ok {
		return nil, fmt.Errorf("bybit: unsupported timeframe %s", tf)
	}

	url := fmt.Sprintf("%s/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=%d",
		p.bybitURL, pair, interval, limit)

	body, err := p.doRequest(ctx, "bybit", url)
	if err != nil {
		return nil, fmt.Errorf("bybit klines: %w", err)
	}

	// Rows are newest first: [ts, o, h, l, c, vol, turnover]
	var raw struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("bybit parse: %w", err)
	}
	if raw.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", raw.RetCode, raw.RetMsg)
	}

	return parseStringRows(symbol, tf, raw.Result.List)
}

func (p *KlineProvider) fetchBinance(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error) {
	pair := symbol + domain.QuoteAsset
	interval, ok := binanceInterval[tf]
	if !ok {
		return nil, fmt.Errorf("binance: unsupported timeframe %s", tf)
	}

	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		p.binanceURL, pair, interval, limit)

	body, err := p.doRequest(ctx, "binance", url)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	// Rows are oldest first with mixed number/string cells:
	// [openTime, "o", "h", "l", "c", "vol", closeTime, ...]
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance parse: %w", err)
	}

	candles := make([]*domain.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			continue
		}
		vals, err := parseQuotedFloats(row[1:6])
		if err != nil {
			continue
		}
		candles = append(candles, &domain.Candle{
			Symbol:    symbol,
			Interval:  tf,
			CloseTime: time.UnixMilli(openMs).UTC().Add(tf.Duration()),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	sortCandles(candles)
	return candles, nil
}

func (p *KlineProvider) fetchBitget(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error) {
	granularity, ok := bitgetGranularity[tf]
	if !ok {
		return nil, fmt.Errorf("bitget: unsupported timeframe %s", tf)
	}
	if limit > bitgetMaxLimit {
		limit = bitgetMaxLimit
	}
	pair := symbol + domain.QuoteAsset

	var lastErr error
	for _, endpoint := range []string{"candles", "history-candles"} {
		url := fmt.Sprintf("%s/api/v2/spot/market/%s?symbol=%s&granularity=%s&limit=%d",
			p.bitgetURL, endpoint, pair, granularity, limit)

		body, err := p.doRequest(ctx, "bitget", url)
		if err != nil {
			lastErr = fmt.Errorf("bitget %s: %w", endpoint, err)
			continue
		}

		// Rows: [ts, o, h, l, c, baseVol, usdtVol, quoteVol]
		var raw struct {
			Code string     `json:"code"`
			Msg  string     `json:"msg"`
			Data [][]string `json:"data"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			lastErr = fmt.Errorf("bitget parse: %w", err)
			continue
		}
		if raw.Code != "00000" {
			lastErr = fmt.Errorf("bitget error %s: %s", raw.Code, raw.Msg)
			continue
		}
		if len(raw.Data) == 0 {
			lastErr = fmt.Errorf("bitget %s: empty response", endpoint)
			continue
		}

		return parseStringRows(symbol, tf, raw.Data)
	}
	return nil, lastErr
}

func (p *KlineProvider) doRequest(ctx context.Context, venue, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx, venue); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s API error %d: %s", venue, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// parseStringRows converts all-string kline rows with a leading open-time
// millisecond timestamp into candles sorted oldest first.
func parseStringRows(symbol string, tf domain.Timeframe, rows [][]string) ([]*domain.Candle, error) {
	candles := make([]*domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		openMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		candles = append(candles, &domain.Candle{
			Symbol:    symbol,
			Interval:  tf,
			CloseTime: time.UnixMilli(openMs).UTC().Add(tf.Duration()),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	sortCandles(candles)
	return candles, nil
}

func parseQuotedFloats(cells []json.RawMessage) ([]float64, error) {
	vals := make([]float64, len(cells))
	for i, cell := range cells {
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func sortCandles(candles []*domain.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].CloseTime.Before(candles[j].CloseTime)
	})
}
