// Package handlers implements the HTTP surface of the ledger service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bizledger/internal/api/middleware"
	"github.com/dvloznov/bizledger/internal/classifier"
	"github.com/dvloznov/bizledger/internal/docstore"
	"github.com/dvloznov/bizledger/internal/domain"
	"github.com/dvloznov/bizledger/internal/events"
	"github.com/dvloznov/bizledger/internal/extraction"
	"github.com/dvloznov/bizledger/internal/insights"
	"github.com/dvloznov/bizledger/internal/ledger"
	"github.com/dvloznov/bizledger/internal/summary"
)

// RecordSink mirrors persisted records into the analytics warehouse.
type RecordSink interface {
	MirrorRecords(ctx context.Context, recs []domain.Record) error
}

// TransactionsHandler handles POST and GET /api/transactions.
type TransactionsHandler struct {
	engine     *extraction.Engine
	store      ledger.LedgerStore
	businesses ledger.BusinessStore
	publisher  events.Publisher
	sink       RecordSink
	log        zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler. publisher and sink
// may be nil when eventing or analytics mirroring is not configured.
func NewTransactionsHandler(engine *extraction.Engine, store ledger.LedgerStore, businesses ledger.BusinessStore, publisher events.Publisher, sink RecordSink, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		engine:     engine,
		store:      store,
		businesses: businesses,
		publisher:  publisher,
		sink:       sink,
		log:        log,
	}
}

// Extract handles POST /api/transactions
func (h *TransactionsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Message string `json:"message"`
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	business, err := h.businesses.FindBusinessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Business not found. Please set up your business first.")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to look up business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	extractReq := extraction.Request{
		Utterance:  req.Message,
		BusinessID: business.ID,
	}
	for _, turn := range req.History {
		extractReq.History = append(extractReq.History, classifier.Turn{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	outcome, err := h.engine.Extract(ctx, extractReq)
	if err != nil {
		switch {
		case errors.Is(err, extraction.ErrEmptyUtterance):
			middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		case errors.Is(err, extraction.ErrStoreUnavailable):
			h.log.Error().Err(err).Str("business_id", business.ID).Msg("Ledger store unavailable")
			middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		default:
			h.log.Error().Err(err).Str("business_id", business.ID).Msg("Extraction failed")
			middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.fanOut(ctx, business.ID, outcome.PersistedRecords)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":             outcome.PersistedCount > 0,
		"message":             outcome.Summary,
		"persisted_count":     outcome.PersistedCount,
		"transactions":        outcome.PersistedRecords,
		"follow_up_questions": outcome.FollowUpQuestions,
		"confidence":          outcome.Confidence,
	})
}

// fanOut publishes events and mirrors records for a persisted batch.
// Failures are logged, never surfaced: the ledger write already succeeded.
func (h *TransactionsHandler) fanOut(ctx context.Context, businessID string, recs []domain.Record) {
	if len(recs) == 0 {
		return
	}

	if h.publisher != nil {
		for _, rec := range recs {
			if err := h.publisher.Publish(ctx, events.FromRecord(rec)); err != nil {
				h.log.Error().Err(err).
					Str("business_id", businessID).
					Str("record_id", rec.RecordID()).
					Msg("Failed to publish transaction event")
			}
		}
	}

	if h.sink != nil {
		if err := h.sink.MirrorRecords(ctx, recs); err != nil {
			h.log.Error().Err(err).
				Str("business_id", businessID).
				Int("count", len(recs)).
				Msg("Failed to mirror records to analytics")
		}
	}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	business, err := h.businesses.FindBusinessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Business not found. Please set up your business first.")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to look up business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	query := r.URL.Query()
	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}
	kindFilter := query.Get("type")

	records, err := h.listRecords(ctx, business.ID, kindFilter, limit)
	if err != nil {
		h.log.Error().Err(err).Str("business_id", business.ID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"count":        len(records),
	})
}

func (h *TransactionsHandler) listRecords(ctx context.Context, businessID, kindFilter string, limit int) ([]domain.Record, error) {
	records := make([]domain.Record, 0, limit)

	wantKind := func(k domain.Kind) bool {
		return kindFilter == "" || kindFilter == string(k)
	}

	if wantKind(domain.KindExpense) {
		expenses, err := h.store.ListExpenses(ctx, businessID, limit)
		if err != nil {
			return nil, err
		}
		for _, e := range expenses {
			records = append(records, e)
		}
	}
	if wantKind(domain.KindIncome) {
		incomes, err := h.store.ListIncomes(ctx, businessID, limit)
		if err != nil {
			return nil, err
		}
		for _, i := range incomes {
			records = append(records, i)
		}
	}
	if wantKind(domain.KindAsset) {
		assets, err := h.store.ListAssets(ctx, businessID, limit)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			records = append(records, a)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredOn().After(records[j].OccurredOn())
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// BusinessHandler handles business profile endpoints.
type BusinessHandler struct {
	businesses ledger.BusinessStore
	log        zerolog.Logger
}

// NewBusinessHandler creates a business handler.
func NewBusinessHandler(businesses ledger.BusinessStore, log zerolog.Logger) *BusinessHandler {
	return &BusinessHandler{businesses: businesses, log: log}
}

// Setup handles POST /api/business/setup
func (h *BusinessHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name            string `json:"name"`
		Currency        string `json:"currency"`
		FiscalStartDate string `json:"fiscal_start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Business name is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	fiscalStart := civil.DateOf(time.Now().UTC())
	if req.FiscalStartDate != "" {
		parsed, err := civil.ParseDate(req.FiscalStartDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid fiscal_start_date format, expected YYYY-MM-DD")
			return
		}
		fiscalStart = parsed
	}

	business := &domain.Business{
		UserID:          middleware.UserIDFromContext(ctx),
		Name:            req.Name,
		Currency:        req.Currency,
		FiscalStartDate: fiscalStart,
	}

	created, err := h.businesses.CreateBusiness(ctx, business)
	if err != nil {
		if errors.Is(err, ledger.ErrBusinessExists) {
			middleware.WriteError(w, http.StatusBadRequest, "Business already exists for this user")
			return
		}
		h.log.Error().Err(err).Str("user_id", business.UserID).Msg("Failed to create business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"business": created,
	})
}

// Get handles GET /api/business
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	business, err := h.businesses.FindBusinessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"business": nil,
			})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to look up business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"business": business,
	})
}

// SummaryHandler handles GET /api/summary.
type SummaryHandler struct {
	store      ledger.LedgerStore
	businesses ledger.BusinessStore
	log        zerolog.Logger
}

// NewSummaryHandler creates a summary handler.
func NewSummaryHandler(store ledger.LedgerStore, businesses ledger.BusinessStore, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{store: store, businesses: businesses, log: log}
}

// Get handles GET /api/summary
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	business, err := h.businesses.FindBusinessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Business not found. Please set up your business first.")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to look up business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	report, err := summary.Build(ctx, h.store, business.ID, r.URL.Query().Get("period"))
	if err != nil {
		h.log.Error().Err(err).Str("business_id", business.ID).Msg("Failed to build summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary": report,
		"message": report.Text(),
	})
}

// InsightsHandler handles GET /api/insights.
type InsightsHandler struct {
	generator  *insights.Generator
	businesses ledger.BusinessStore
	log        zerolog.Logger
}

// NewInsightsHandler creates an insights handler.
func NewInsightsHandler(generator *insights.Generator, businesses ledger.BusinessStore, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{generator: generator, businesses: businesses, log: log}
}

// Get handles GET /api/insights
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	business, err := h.businesses.FindBusinessByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Business not found. Please set up your business first.")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to look up business")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	text := h.generator.Generate(ctx, business.ID)

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"insights": text,
	})
}

// ReceiptsHandler handles POST /api/receipts.
type ReceiptsHandler struct {
	uploader *docstore.Uploader
	log      zerolog.Logger
}

// NewReceiptsHandler creates a receipts handler. uploader may be nil when no
// bucket is configured.
func NewReceiptsHandler(uploader *docstore.Uploader, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{uploader: uploader, log: log}
}

// Upload handles POST /api/receipts
func (h *ReceiptsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt storage is not configured")
		return
	}

	ctx := r.Context()

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "filename query parameter is required")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := docstore.ObjectName(filename)
	uri, err := h.uploader.Upload(ctx, objectName, contentType, r.Body)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("Failed to upload receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload receipt")
		return
	}

	h.log.Info().Str("uri", uri).Msg("Receipt uploaded")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"receipt_url": uri,
		"filename":    docstore.FilenameFromURI(uri),
	})
}

// HealthHandler handles GET /health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
