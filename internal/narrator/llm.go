package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/guregu/null/v6"
)

// Generator is the part of an eino chat model the narrator uses.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMConfig selects an OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// LLM writes the overview with a chat model.
type LLM struct {
	gen Generator
}

const systemPrompt = `You are a senior market strategist writing a morning note for brokers.
Separate facts (numbers, events) from interpretation. Be confident but cautious and
ground every point in the data provided.`

// NewLLM connects to an OpenAI-compatible chat endpoint through eino.
func NewLLM(ctx context.Context, cfg LLMConfig) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is empty")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &LLM{gen: cm}, nil
}

func (l *LLM) Overview(ctx context.Context, in Input) (string, error) {
	prompt := Context(in) + fmt.Sprintf(`
Write the market overview with this structure:
1. Summary (2-3 sentences): risk-on or risk-off, main trend.
2. Analysis (4-5 paragraphs): VIX %s versus the 20 threshold; S&P 500 %s and the news behind it;
   DXY %s and its effect on gold, oil and crypto; the two or three highest-impact headlines.
3. Conclusion (2-3 sentences): bias, risks to watch, opportunities.`,
		level(in.VIX), signedPct(in.SPXChange), level(in.DXY))

	msg, err := l.gen.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate overview: %w", err)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", errors.New("generate overview: empty response")
	}
	return text, nil
}

func level(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}
