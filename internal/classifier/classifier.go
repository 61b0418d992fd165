package classifier

import (
	"context"

	"cloud.google.com/go/civil"
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything the classifier needs to interpret one utterance.
type Request struct {
	Utterance  string
	BusinessID string
	Today      civil.Date
	History    []Turn
}

// Output is the structured guess the classifier returns for one utterance.
// Transactions are untyped on purpose: the model's JSON is untrusted input
// and the normalizer is the validation gate.
type Output struct {
	Transactions      []map[string]any `json:"transactions"`
	FollowUpQuestions []string         `json:"followUpQuestions"`
	MissingInfo       []string         `json:"missingInfo"`
	Confidence        float64          `json:"confidence"`
}

// RephraseQuestion is the generic clarification returned when the model
// call fails or its output cannot be decoded.
const RephraseQuestion = "I had trouble understanding that. Could you rephrase your transaction?"

// Degraded is the fail-soft output: no candidates, zero confidence, one
// generic clarification question.
func Degraded() Output {
	return Output{
		FollowUpQuestions: []string{RephraseQuestion},
		Confidence:        0,
	}
}

// Classifier interprets a free-text utterance as transaction candidates.
// Implementations never return an error: any failure of the underlying
// model degrades to Degraded() output instead of propagating.
type Classifier interface {
	Classify(ctx context.Context, req Request) Output
}
