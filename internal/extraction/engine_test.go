package extraction_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/bizledger/internal/classifier"
	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/extraction"
	"github.com/dvloznov/bizledger/internal/ledger"
	"github.com/dvloznov/bizledger/internal/ledger/memory"
)

// fakeClassifier returns a canned output for any utterance.
type fakeClassifier struct {
	output classifier.Output
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, req classifier.Request) classifier.Output {
	f.calls++
	return f.output
}

// downStore fails every insert at the connection level.
type downStore struct {
	memory.Store
}

func (d *downStore) InsertExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	return nil, ledger.ErrUnavailable
}

func (d *downStore) InsertIncome(ctx context.Context, i *domain.Income) (*domain.Income, error) {
	return nil, ledger.ErrUnavailable
}

func (d *downStore) InsertAsset(ctx context.Context, a *domain.Asset) (*domain.Asset, error) {
	return nil, ledger.ErrUnavailable
}

func expenseCandidate(amount float64, description string) map[string]any {
	return map[string]any{
		"type":        "expense",
		"amount":      amount,
		"category":    "Office Supplies",
		"description": description,
		"vendor":      "Staples",
	}
}

func newEngine(c classifier.Classifier, store ledger.LedgerStore) *extraction.Engine {
	return extraction.NewEngine(c, store, zerolog.Nop())
}

func TestExtract_SingleExpense(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{expenseCandidate(50, "office supplies")},
		Confidence:   0.95,
	}}
	store := memory.NewStore()
	engine := newEngine(fc, store)

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "I spent $50 on office supplies",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.PersistedCount)
	require.Len(t, outcome.PersistedRecords, 1)
	assert.NotEmpty(t, outcome.PersistedRecords[0].RecordID())
	assert.Equal(t, domain.KindExpense, outcome.PersistedRecords[0].Kind())
	assert.Contains(t, outcome.Summary, "I've successfully saved 1 transaction to your business records")
	assert.Contains(t, outcome.Summary, "1. Expense: $50.00 for office supplies")
	assert.NotContains(t, outcome.Summary, "wasn't completely confident")

	expenses, err := store.ListExpenses(context.Background(), "biz-1", 0)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestExtract_BatchPreservesOrder(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{
			{
				"type": "income", "amount": 1200.0,
				"category": "Consulting", "description": "consulting invoice",
				"client": "Acme Corp",
			},
			{
				"type": "asset", "amount": 2500.0,
				"category": "Equipment", "description": "MacBook Pro",
			},
		},
		Confidence: 0.9,
	}}
	engine := newEngine(fc, memory.NewStore())

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "received 1200 from Acme and bought a MacBook for 2500",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.PersistedCount)
	require.Len(t, outcome.PersistedRecords, 2)
	assert.Equal(t, domain.KindIncome, outcome.PersistedRecords[0].Kind())
	assert.Equal(t, domain.KindAsset, outcome.PersistedRecords[1].Kind())

	// Summary lines follow classifier emission order.
	incomeIdx := strings.Index(outcome.Summary, "1. Income")
	assetIdx := strings.Index(outcome.Summary, "2. Asset")
	require.GreaterOrEqual(t, incomeIdx, 0)
	require.GreaterOrEqual(t, assetIdx, 0)
	assert.Less(t, incomeIdx, assetIdx)
}

func TestExtract_ZeroCandidates(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		FollowUpQuestions: []string{"What was the amount?"},
		Confidence:        0.3,
	}}
	store := memory.NewStore()
	engine := newEngine(fc, store)

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "hello there",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.PersistedCount)
	assert.Contains(t, outcome.Summary, "I wasn't able to save any transactions")
	assert.Contains(t, outcome.Summary, "What was the amount?")

	expenses, err := store.ListExpenses(context.Background(), "biz-1", 0)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestExtract_PartialFailure(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{
			expenseCandidate(50, "office supplies"),
			{"type": "expense", "amount": -10.0, "category": "Misc", "description": "bad one"},
			expenseCandidate(30, "printer ink"),
		},
		Confidence: 0.85,
	}}
	engine := newEngine(fc, memory.NewStore())

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "three things happened",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.PersistedCount)
	require.Len(t, outcome.Items, 3)
	assert.Empty(t, outcome.Items[0].Error)
	assert.NotEmpty(t, outcome.Items[1].Error)
	assert.Nil(t, outcome.Items[1].Record)
	assert.Empty(t, outcome.Items[2].Error)
	assert.Contains(t, outcome.Summary, "saved 2 transactions")
}

func TestExtract_LowConfidenceAdvisory(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{expenseCandidate(50, "office supplies")},
		Confidence:   0.5,
	}}
	engine := newEngine(fc, memory.NewStore())

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "spent maybe 50 on stuff",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	// Low confidence adds a note but never blocks persistence.
	assert.Equal(t, 1, outcome.PersistedCount)
	assert.Contains(t, outcome.Summary, "I wasn't completely confident about this categorization")
}

func TestExtract_EmptyUtterance(t *testing.T) {
	fc := &fakeClassifier{}
	engine := newEngine(fc, memory.NewStore())

	for _, utterance := range []string{"", "   ", "\n\t"} {
		_, err := engine.Extract(context.Background(), extraction.Request{
			Utterance:  utterance,
			BusinessID: "biz-1",
		})
		assert.ErrorIs(t, err, extraction.ErrEmptyUtterance)
	}
	assert.Zero(t, fc.calls, "classifier must not be called for empty input")
}

func TestExtract_MissingBusiness(t *testing.T) {
	engine := newEngine(&fakeClassifier{}, memory.NewStore())

	_, err := engine.Extract(context.Background(), extraction.Request{
		Utterance: "spent 50 on supplies",
	})
	assert.ErrorIs(t, err, extraction.ErrMissingBusiness)
}

func TestExtract_RepeatCallsAreNotDeduplicated(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{expenseCandidate(50, "office supplies")},
		Confidence:   0.95,
	}}
	store := memory.NewStore()
	engine := newEngine(fc, store)

	req := extraction.Request{Utterance: "I spent $50 on office supplies", BusinessID: "biz-1"}

	for i := 0; i < 2; i++ {
		_, err := engine.Extract(context.Background(), req)
		require.NoError(t, err)
	}

	expenses, err := store.ListExpenses(context.Background(), "biz-1", 0)
	require.NoError(t, err)
	assert.Len(t, expenses, 2, "identical utterances insert twice")
	assert.NotEqual(t, expenses[0].ID, expenses[1].ID)
}

func TestExtract_StoreUnavailable(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{
			expenseCandidate(50, "office supplies"),
			expenseCandidate(30, "printer ink"),
		},
		Confidence: 0.9,
	}}
	engine := newEngine(fc, &downStore{})

	_, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "two purchases",
		BusinessID: "biz-1",
	})
	assert.ErrorIs(t, err, extraction.ErrStoreUnavailable)
}

func TestExtract_UnavailableWithBadCandidateStillEscalates(t *testing.T) {
	// One candidate fails normalization, the rest fail at the store. The
	// batch still escalates because every insertable candidate hit a
	// connection-level failure.
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{
			{"type": "mystery", "amount": 10.0, "category": "Misc", "description": "x"},
			expenseCandidate(50, "office supplies"),
		},
		Confidence: 0.9,
	}}
	engine := newEngine(fc, &downStore{})

	_, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "two things",
		BusinessID: "biz-1",
	})
	assert.ErrorIs(t, err, extraction.ErrStoreUnavailable)
}

func TestExtract_DegradedClassifierOutput(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Degraded()}
	engine := newEngine(fc, memory.NewStore())

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "gibberish the model could not parse",
		BusinessID: "biz-1",
	})
	require.NoError(t, err, "classifier failure is not a system error")

	assert.Equal(t, 0, outcome.PersistedCount)
	assert.Equal(t, float64(0), outcome.Confidence)
	assert.Contains(t, outcome.FollowUpQuestions, classifier.RephraseQuestion)
	assert.Contains(t, outcome.Summary, "I had trouble understanding that")
}

var errRowRejected = errors.New("row rejected")

// rejectingStore fails inserts with a per-row error, not a connection error.
type rejectingStore struct {
	memory.Store
}

func (r *rejectingStore) InsertExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	return nil, errRowRejected
}

func TestExtract_RowRejectionIsNotSystemError(t *testing.T) {
	fc := &fakeClassifier{output: classifier.Output{
		Transactions: []map[string]any{expenseCandidate(50, "office supplies")},
		Confidence:   0.9,
	}}
	engine := newEngine(fc, &rejectingStore{})

	outcome, err := engine.Extract(context.Background(), extraction.Request{
		Utterance:  "spent 50",
		BusinessID: "biz-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.PersistedCount)
	require.Len(t, outcome.Items, 1)
	assert.Equal(t, errRowRejected.Error(), outcome.Items[0].Error)
	assert.Contains(t, outcome.Summary, "I wasn't able to save any transactions")
}
