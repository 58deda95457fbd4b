package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = `You are a financial analyst writing a short plain-text commentary on a correlation and regression study.
You receive a daily-return correlation matrix and an OLS regression report.

Your response must follow this exact structure:

Key Relationships:
[Which series move together and how strongly]

Regression Reading:
[What the coefficients, their significance and R-squared say]

Caveats:
[Sample, stationarity, fat tails, autocorrelation or other limits visible in the report]

Guidelines:
- Quote numbers from the input, do not invent any
- No trading advice
- Plain text, no markdown tables`

type Commentator struct {
	cli   oa.Client
	model oa.ChatModel
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	client := oa.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Commentator{cli: client, model: oa.ChatModelGPT4}
}

// Comment asks the model for a commentary on the correlation table and the
// OLS report.
func (c *Commentator) Comment(ctx context.Context, correlations, olsSummary string) (string, error) {
	userPrompt := fmt.Sprintf("Daily return correlations:\n%s\n\nOLS report:\n%s", sanitize(correlations), sanitize(olsSummary))

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(userPrompt),
		},
		MaxTokens: oa.Int(1500),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// sanitize caps input length to keep the request small.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 8000 {
		s = s[:8000]
	}
	return s
}
