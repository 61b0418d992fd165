package classifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Gemini classifies utterances with the Gemini API. It implements the
// fail-soft contract: every failure mode of the underlying call degrades
// to Degraded() output and is logged, never surfaced to the caller.
type Gemini struct {
	model string
	log   zerolog.Logger
}

// NewGemini creates a Gemini-backed classifier. The API key is taken from
// the environment by the genai client (GEMINI_API_KEY).
func NewGemini(model string, log zerolog.Logger) *Gemini {
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{model: model, log: log}
}

// Classify implements the Classifier interface.
func (g *Gemini) Classify(ctx context.Context, req Request) Output {
	out, err := g.classify(ctx, req)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("business_id", req.BusinessID).
			Msg("Classifier call failed, returning degraded output")
		return Degraded()
	}
	return out
}

func (g *Gemini) classify(ctx context.Context, req Request) (Output, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return Output{}, fmt.Errorf("classify: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: systemPrompt(req.BusinessID, req.Today)}},
		},
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == "assistant" || turn.Role == "model" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Utterance}},
	})

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Output{}, fmt.Errorf("classify: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return Output{}, fmt.Errorf("classify: empty response from model")
	}

	out, err := decodeOutput(rawText)
	if err != nil {
		return Output{}, fmt.Errorf("classify: %w\nraw response: %s", err, rawText)
	}

	return out, nil
}

var _ Classifier = (*Gemini)(nil)
