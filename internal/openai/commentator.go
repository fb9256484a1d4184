package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"investopal/internal/analysis"
	"investopal/internal/config"
)

const systemPrompt = `You are a careful investment educator. You receive risk statistics that were already computed for one stock and the risk profile the user picked.

Your response must follow this exact structure:

**What the numbers say:**
[Explain volatility, Sharpe ratio, max drawdown and total return in plain words]

**Fit with the profile:**
[Say whether the stock suits the selected profile and why]

**Things to watch:**
[Two or three risks or caveats]

Guidelines:
- Use only the numbers given; never invent prices or forecasts
- No buy or sell instructions
- Keep it under 200 words
- Use bullet points where appropriate`

// Commentator asks a chat model to explain computed metrics. It never feeds
// back into the numbers.
type Commentator struct {
	cli   oa.Client
	model string
}

// NewCommentator returns nil when apiKey is empty.
func NewCommentator(apiKey, model string, opts ...option.RequestOption) *Commentator {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4"
	}
	client := oa.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Commentator{cli: client, model: model}
}

func userPrompt(ticker string, profile config.Profile, m analysis.RiskMetrics, category analysis.RiskCategory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\n", ticker)
	fmt.Fprintf(&b, "Period: %s to %s (%d prices)\n", m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"), m.Observations)
	fmt.Fprintf(&b, "Total return: %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(&b, "Annualized return: %.2f%%\n", m.AverageReturn*100)
	fmt.Fprintf(&b, "Annualized volatility: %.2f%% (%s)\n", m.Volatility*100, category)
	fmt.Fprintf(&b, "Sharpe ratio: %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "Selected profile: %s (expects %.1f%% a year, %s)\n", profile.Name, profile.ExpectedReturn*100, profile.StockType)
	return b.String()
}

func (c *Commentator) Explain(ctx context.Context, ticker string, profile config.Profile, m analysis.RiskMetrics, category analysis.RiskCategory) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(userPrompt(ticker, profile, m, category)),
		},
		MaxTokens: oa.Int(600), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
