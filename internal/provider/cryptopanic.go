package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"glowing-telegram/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	cryptopanicBaseURL = "https://cryptopanic.com/api/v1"

	maxHeadlines = 5
)

// CryptoPanicProvider fetches hot news headlines for a single currency.
type CryptoPanicProvider struct {
	client    *http.Client
	baseURL   string
	authToken string
	tracer    trace.Tracer
	limiter   *RateLimiter
}

// NewCryptoPanicProvider creates a provider rate limited to 5 requests
// per minute, matching the free tier.
func NewCryptoPanicProvider(authToken string, tracer trace.Tracer) *CryptoPanicProvider {
	return &CryptoPanicProvider{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   cryptopanicBaseURL,
		authToken: authToken,
		tracer:    tracer,
		limiter:   NewRateLimiter(5, 12*time.Second),
	}
}

// FetchHeadlines returns up to five hot news headlines for the symbol.
// Items flagged important by CryptoPanic keep the flag; vote counts set a
// coarse bullish/bearish sentiment.
func (p *CryptoPanicProvider) FetchHeadlines(ctx context.Context, symbol string) ([]domain.Headline, error) {
	ctx, span := p.tracer.Start(ctx, "cryptopanic.fetch-headlines")
	defer span.End()

	url := fmt.Sprintf("%s/posts/?auth_token=%s&currencies=%s&kind=news&filter=hot",
		p.baseURL, p.authToken, symbol)

	if err := p.limiter.Wait(ctx); err != nil {
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
		return nil, fmt.Errorf("cryptopanic API error %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Votes struct {
				Important int `json:"important"`
				Positive  int `json:"positive"`
				Negative  int `json:"negative"`
			} `json:"votes"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse headlines for %s: %w", symbol, err)
	}

	headlines := make([]domain.Headline, 0, maxHeadlines)
	for _, item := range raw.Results {
		if len(headlines) == maxHeadlines {
			break
		}
		sentiment := ""
		switch {
		case item.Votes.Positive > item.Votes.Negative:
			sentiment = "bullish"
		case item.Votes.Negative > item.Votes.Positive:
			sentiment = "bearish"
		}
		headlines = append(headlines, domain.Headline{
			Title:     item.Title,
			URL:       item.URL,
			Important: item.Votes.Important > 0,
			Sentiment: sentiment,
		})
	}

	return headlines, nil
}
