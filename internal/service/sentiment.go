package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"glowing-telegram/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// HeuristicSentiment labels a headline from keyword counts. Used as the
// baseline for every headline and as the only scorer when no LLM is wired.
func HeuristicSentiment(title string) string {
	text := strings.ToLower(strings.TrimSpace(title))
	if text == "" {
		return ""
	}

	bullish := []string{"bull", "breakout", "surge", "rally", "adoption", "etf", "inflow", "buy", "uptrend", "recover", "approval"}
	bearish := []string{"bear", "dump", "sell", "crash", "hack", "lawsuit", "ban", "outage", "decline", "downtrend", "liquidation"}

	bullCount := countMatches(text, bullish)
	bearCount := countMatches(text, bearish)

	switch {
	case bullCount > bearCount:
		return "bullish"
	case bearCount > bullCount:
		return "bearish"
	default:
		return ""
	}
}

func countMatches(text string, tokens []string) int {
	count := 0
	for _, token := range tokens {
		if strings.Contains(text, token) {
			count++
		}
	}
	return count
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "bull", "bullish", "positive":
		return "bullish"
	case "bear", "bearish", "negative":
		return "bearish"
	default:
		return ""
	}
}

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// SentimentScorer annotates headlines with a bullish/bearish label, using
// an LLM when configured and keyword heuristics otherwise. A nil scorer is
// valid and means heuristics only.
type SentimentScorer struct {
	client openAIChatClient
	model  string
}

func NewSentimentScorer(apiKey, model string) *SentimentScorer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &SentimentScorer{
		client: &openAIClient{client: client},
		model:  model,
	}
}

// Annotate fills the Sentiment field of each headline that does not already
// carry one. LLM failures fall back to the heuristic labels silently.
func (s *SentimentScorer) Annotate(ctx context.Context, headlines []domain.Headline) []domain.Headline {
	out := make([]domain.Headline, len(headlines))
	copy(out, headlines)

	for i := range out {
		if out[i].Sentiment == "" {
			out[i].Sentiment = HeuristicSentiment(out[i].Title)
		}
	}

	if s == nil || s.client == nil || len(out) == 0 {
		return out
	}

	labels, err := s.scoreBatch(ctx, out)
	if err != nil {
		return out
	}
	for i, label := range labels {
		if i < len(out) && label != "" {
			out[i].Sentiment = label
		}
	}
	return out
}

func (s *SentimentScorer) scoreBatch(ctx context.Context, headlines []domain.Headline) ([]string, error) {
	var sb strings.Builder
	for i, h := range headlines {
		sb.WriteString(fmt.Sprintf("id=%d title=%s\n", i, strings.TrimSpace(h.Title)))
	}

	systemPrompt := "You label crypto news sentiment. Return ONLY a JSON array. Each object requires: id (int), label (bullish|neutral|bearish). No markdown."
	userPrompt := "Headlines:\n" + sb.String()

	completion, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty sentiment completion")
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)

	var parsed []struct {
		ID    int    `json:"id"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse sentiment json: %w", err)
	}

	labels := make([]string, len(headlines))
	for _, row := range parsed {
		if row.ID < 0 || row.ID >= len(labels) {
			continue
		}
		labels[row.ID] = normalizeLabel(row.Label)
	}
	return labels, nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
