package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func testCryptoPanicProvider(transport roundTripFunc) *CryptoPanicProvider {
	p := NewCryptoPanicProvider("test-token", trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://cryptopanic"
	p.client = &http.Client{Transport: transport}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func TestFetchHeadlines(t *testing.T) {
	t.Parallel()

	body := `{"results":[
		{"title":"ETF inflows hit record","url":"http://a","votes":{"important":2,"positive":9,"negative":1}},
		{"title":"Exchange outage","url":"http://b","votes":{"important":0,"positive":1,"negative":6}},
		{"title":"Quiet weekend","url":"http://c","votes":{"important":0,"positive":3,"negative":3}}
	]}`

	p := testCryptoPanicProvider(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("auth_token") != "test-token" {
			t.Fatalf("missing auth token: %s", req.URL.RawQuery)
		}
		if q.Get("currencies") != "BTC" || q.Get("kind") != "news" || q.Get("filter") != "hot" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(body), nil
	})

	headlines, err := p.FetchHeadlines(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headlines) != 3 {
		t.Fatalf("expected 3 headlines, got %d", len(headlines))
	}
	if !headlines[0].Important || headlines[0].Sentiment != "bullish" {
		t.Fatalf("unexpected first headline: %+v", headlines[0])
	}
	if headlines[1].Important || headlines[1].Sentiment != "bearish" {
		t.Fatalf("unexpected second headline: %+v", headlines[1])
	}
	if headlines[2].Sentiment != "" {
		t.Fatalf("tied votes must have no sentiment: %+v", headlines[2])
	}
}

func TestFetchHeadlinesCapsAtFive(t *testing.T) {
	t.Parallel()

	body := `{"results":[
		{"title":"1","url":"u","votes":{}},
		{"title":"2","url":"u","votes":{}},
		{"title":"3","url":"u","votes":{}},
		{"title":"4","url":"u","votes":{}},
		{"title":"5","url":"u","votes":{}},
		{"title":"6","url":"u","votes":{}}
	]}`

	p := testCryptoPanicProvider(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(body), nil
	})

	headlines, err := p.FetchHeadlines(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headlines) != 5 {
		t.Fatalf("expected cap at 5 headlines, got %d", len(headlines))
	}
}

func TestFetchHeadlinesAPIError(t *testing.T) {
	t.Parallel()

	p := testCryptoPanicProvider(func(req *http.Request) (*http.Response, error) {
		resp := jsonResponse(`{"detail":"rate limited"}`)
		resp.StatusCode = http.StatusTooManyRequests
		return resp, nil
	})

	if _, err := p.FetchHeadlines(context.Background(), "BTC"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
