package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"glowing-telegram/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func testKlineProvider(transport roundTripFunc) *KlineProvider {
	p := NewKlineProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.okxURL = "http://okx"
	p.bybitURL = "http://bybit"
	p.binanceURL = "http://binance"
	p.bitgetURL = "http://bitget"
	p.client = &http.Client{Transport: transport}
	p.limiter = NewHostLimiter(100, time.Millisecond)
	return p
}

func TestFetchKlinesOKX(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	// Newest first, as OKX returns them.
	body := fmt.Sprintf(`{"code":"0","data":[
		["%d","101","103","100","102","7"],
		["%d","100","102","99","101","5"]
	]}`, open.Add(time.Hour).UnixMilli(), open.UnixMilli())

	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "okx" {
			t.Fatalf("unexpected host: %s", req.URL.Host)
		}
		q := req.URL.Query()
		if q.Get("instId") != "BTC-USDT" || q.Get("bar") != "1H" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(body), nil
	})

	candles, err := p.FetchKlines(context.Background(), "BTC", domain.TimeframeH1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if !first.CloseTime.Equal(open.Add(time.Hour)) {
		t.Fatalf("expected oldest-first order, got close time %v", first.CloseTime)
	}
	if first.Open != 100 || first.High != 102 || first.Low != 99 || first.Close != 101 || first.Volume != 5 {
		t.Fatalf("unexpected candle: %+v", first)
	}
	if first.Symbol != "BTC" || first.Interval != domain.TimeframeH1 {
		t.Fatalf("unexpected identity: %+v", first)
	}
}

func TestFetchKlinesRotatesToBybit(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bybitBody := fmt.Sprintf(`{"retCode":0,"result":{"list":[
		["%d","50","55","49","54","12"]
	]}}`, open.UnixMilli())

	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Host {
		case "okx":
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader("down")),
				Header:     make(http.Header),
			}, nil
		case "bybit":
			q := req.URL.Query()
			if q.Get("symbol") != "ETHUSDT" || q.Get("interval") != "D" {
				t.Fatalf("unexpected bybit query: %s", req.URL.RawQuery)
			}
			return jsonResponse(bybitBody), nil
		default:
			t.Fatalf("unexpected host: %s", req.URL.Host)
			return nil, nil
		}
	})

	candles, err := p.FetchKlines(context.Background(), "ETH", domain.TimeframeD1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if candles[0].Close != 54 {
		t.Fatalf("unexpected candle: %+v", candles[0])
	}
	if !candles[0].CloseTime.Equal(open.Add(24 * time.Hour)) {
		t.Fatalf("unexpected close time: %v", candles[0].CloseTime)
	}
}

func TestFetchKlinesRotatesToBinance(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	binanceBody := fmt.Sprintf(`[[%d,"10","11","9","10.5","3",%d]]`,
		open.UnixMilli(), open.Add(time.Hour).UnixMilli()-1)

	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Host {
		case "okx", "bybit":
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(strings.NewReader("down")),
				Header:     make(http.Header),
			}, nil
		case "binance":
			q := req.URL.Query()
			if q.Get("symbol") != "SOLUSDT" || q.Get("interval") != "1h" {
				t.Fatalf("unexpected binance query: %s", req.URL.RawQuery)
			}
			return jsonResponse(binanceBody), nil
		default:
			t.Fatalf("unexpected host: %s", req.URL.Host)
			return nil, nil
		}
	})

	candles, err := p.FetchKlines(context.Background(), "SOL", domain.TimeframeH1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 || candles[0].Close != 10.5 {
		t.Fatalf("unexpected candles: %+v", candles)
	}
	if !candles[0].CloseTime.Equal(open.Add(time.Hour)) {
		t.Fatalf("unexpected close time: %v", candles[0].CloseTime)
	}
}

func TestFetchKlinesAllVenuesDown(t *testing.T) {
	t.Parallel()

	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("boom")),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := p.FetchKlines(context.Background(), "BTC", domain.TimeframeH1, 10); err == nil {
		t.Fatal("expected error when every venue fails")
	}
}

func TestFetchKlinesBitgetOnlySymbol(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"code":"00000","data":[
		["%d","4","4.2","3.9","4.1","1000"]
	]}`, open.UnixMilli())

	var hosts []string
	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		hosts = append(hosts, req.URL.Host)
		if req.URL.Host != "bitget" {
			t.Fatalf("BGB must route to bitget, got %s", req.URL.Host)
		}
		q := req.URL.Query()
		if q.Get("symbol") != "BGBUSDT" || q.Get("granularity") != "1day" {
			t.Fatalf("unexpected bitget query: %s", req.URL.RawQuery)
		}
		if q.Get("limit") != "200" {
			t.Fatalf("expected limit clamped to 200, got %s", q.Get("limit"))
		}
		return jsonResponse(body), nil
	})

	candles, err := p.FetchKlines(context.Background(), "BGB", domain.TimeframeD1, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 || candles[0].Close != 4.1 {
		t.Fatalf("unexpected candles: %+v", candles)
	}
	if len(hosts) != 1 {
		t.Fatalf("expected a single bitget call, got %v", hosts)
	}
}

func TestFetchKlinesBitgetFallsBackToHistory(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"code":"00000","data":[
		["%d","4","4.2","3.9","4.1","1000"]
	]}`, open.UnixMilli())

	p := testKlineProvider(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "history-candles") {
			return jsonResponse(body), nil
		}
		// Primary endpoint returns an empty window.
		return jsonResponse(`{"code":"00000","data":[]}`), nil
	})

	candles, err := p.FetchKlines(context.Background(), "BGB", domain.TimeframeD1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected history-candles fallback to yield 1 candle, got %d", len(candles))
	}
}

func TestParseStringRowsSkipsMalformed(t *testing.T) {
	t.Parallel()

	open := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{
		{fmt.Sprint(open.UnixMilli()), "1", "2", "0.5", "1.5", "10"},
		{"not-a-timestamp", "1", "2", "0.5", "1.5", "10"},
		{fmt.Sprint(open.Add(time.Hour).UnixMilli()), "1", "2", "0.5", "oops", "10"},
		{"short"},
	}

	candles, err := parseStringRows("BTC", domain.TimeframeH1, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 valid candle, got %d", len(candles))
	}
}
