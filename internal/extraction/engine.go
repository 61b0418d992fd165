// Package extraction drives one extraction request end to end: classify an
// utterance, normalize each candidate, apply the valid ones to the ledger
// independently, and aggregate the partial results into a single outcome.
package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bizledger/internal/classifier"
	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/ledger"
	"github.com/dvloznov/bizledger/internal/normalizer"
)

// ConfidenceThreshold is the classifier confidence below which the outcome
// carries an advisory note asking the user to verify the saved data.
const ConfidenceThreshold = 0.7

var (
	// ErrEmptyUtterance rejects empty or whitespace-only input before any
	// classifier call is made.
	ErrEmptyUtterance = errors.New("utterance is empty")

	// ErrMissingBusiness rejects requests without a business scope.
	ErrMissingBusiness = errors.New("business id is required")

	// ErrStoreUnavailable is the single system-level persistence failure:
	// every insert in the batch failed at the connection level, so nothing
	// could possibly be saved.
	ErrStoreUnavailable = errors.New("ledger store unreachable")
)

// Item pairs one classifier candidate with its persisted record or its
// failure, preserving classifier emission order.
type Item struct {
	Candidate map[string]any `json:"candidate"`
	Record    domain.Record  `json:"record,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Outcome is the aggregate result of one extraction request. It lives only
// for the duration of the request.
type Outcome struct {
	Items             []Item          `json:"items"`
	PersistedCount    int             `json:"persisted_count"`
	PersistedRecords  []domain.Record `json:"persisted_records"`
	FollowUpQuestions []string        `json:"follow_up_questions"`
	Confidence        float64         `json:"confidence"`
	Summary           string          `json:"summary"`
}

// Request is one extraction request. History carries the preceding chat
// turns so the classifier can resolve references like "same as yesterday".
type Request struct {
	Utterance  string
	BusinessID string
	History    []classifier.Turn
}

// Engine is the extraction orchestrator. Dependencies are injected at
// construction so the classifier and store can be substituted in tests.
type Engine struct {
	classifier classifier.Classifier
	store      ledger.LedgerStore
	log        zerolog.Logger
	now        func() time.Time
}

// NewEngine creates an orchestrator over the given classifier and store.
func NewEngine(c classifier.Classifier, store ledger.LedgerStore, log zerolog.Logger) *Engine {
	return &Engine{
		classifier: c,
		store:      store,
		log:        log,
		now:        time.Now,
	}
}

// Extract interprets one utterance and applies the resulting transactions
// to the business's ledger. A failure to normalize or persist one candidate
// never aborts the batch; natural-language batches often mix a well-formed
// transaction with a malformed one, and the good one must not be lost.
// No retries are performed anywhere in this flow.
func (e *Engine) Extract(ctx context.Context, req Request) (*Outcome, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return nil, ErrEmptyUtterance
	}
	if req.BusinessID == "" {
		return nil, ErrMissingBusiness
	}

	businessID := req.BusinessID
	today := civil.DateOf(e.now().UTC())

	parsed := e.classifier.Classify(ctx, classifier.Request{
		Utterance:  req.Utterance,
		BusinessID: businessID,
		Today:      today,
		History:    req.History,
	})

	outcome := &Outcome{
		FollowUpQuestions: parsed.FollowUpQuestions,
		Confidence:        parsed.Confidence,
	}

	var normalized, unavailable int
	for i, candidate := range parsed.Transactions {
		rec, err := normalizer.Normalize(candidate, businessID, today)
		if err != nil {
			e.log.Warn().
				Err(err).
				Int("candidate", i).
				Str("business_id", businessID).
				Msg("Dropping candidate that failed normalization")
			outcome.Items = append(outcome.Items, Item{Candidate: candidate, Error: err.Error()})
			continue
		}
		normalized++

		saved, err := ledger.Insert(ctx, e.store, rec)
		if err != nil {
			e.log.Error().
				Err(err).
				Int("candidate", i).
				Str("business_id", businessID).
				Str("kind", string(rec.Kind())).
				Msg("Failed to persist transaction")
			if errors.Is(err, ledger.ErrUnavailable) {
				unavailable++
			}
			outcome.Items = append(outcome.Items, Item{Candidate: candidate, Error: err.Error()})
			continue
		}

		outcome.Items = append(outcome.Items, Item{Candidate: candidate, Record: saved})
		outcome.PersistedRecords = append(outcome.PersistedRecords, saved)
		outcome.PersistedCount++
	}

	// Escalate only when the store itself is unreachable: at least one
	// candidate was insertable and every attempt failed at the connection
	// level. Per-row rejections stay partial failures.
	if normalized > 0 && outcome.PersistedCount == 0 && unavailable == normalized {
		return nil, ErrStoreUnavailable
	}

	outcome.Summary = composeSummary(outcome)

	e.log.Info().
		Str("business_id", businessID).
		Int("candidates", len(parsed.Transactions)).
		Int("persisted", outcome.PersistedCount).
		Float64("confidence", outcome.Confidence).
		Msg("Extraction completed")

	return outcome, nil
}
