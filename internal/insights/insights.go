// Package insights generates short AI-written financial guidance for a
// business. Like the classifier, it degrades to a fixed fallback message
// rather than surfacing model failures.
package insights

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const fallback = "I'm having trouble generating insights right now. Please try again later."

const systemPrompt = `You are an AI finance assistant providing insights for a business. Generate helpful financial insights and recommendations based on typical business patterns.

Provide insights on:
- Cash flow trends
- Expense patterns
- Income stability
- Tax optimization opportunities
- Budget recommendations
- Anomaly detection
- Growth opportunities

Keep the response concise, actionable, and tailored to small business owners. Use a friendly, professional tone.`

// Generator produces insight text with the Gemini API.
type Generator struct {
	model string
	log   zerolog.Logger
}

// NewGenerator creates an insights generator for the given model.
func NewGenerator(model string, log zerolog.Logger) *Generator {
	return &Generator{model: model, log: log}
}

// Generate returns insight text for the business, or the fallback message
// when the model is unavailable.
func (g *Generator) Generate(ctx context.Context, businessID string) string {
	text, err := g.generate(ctx)
	if err != nil {
		g.log.Error().Err(err).Str("business_id", businessID).Msg("Insights generation failed")
		return fallback
	}
	return text
}

func (g *Generator) generate(ctx context.Context) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("insights: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: systemPrompt},
				{Text: "Generate insights for my business finances."},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("insights: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("insights: empty response from model")
	}
	return text, nil
}
