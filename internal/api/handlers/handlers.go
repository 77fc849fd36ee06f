package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"finview/internal/api/middleware"
	"finview/internal/bigquery"
	"finview/internal/domain"
	"finview/internal/prediction"
	"finview/internal/summary"
)

// transactionRequest is the wire shape clients submit for create and update.
type transactionRequest struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

func (req transactionRequest) toDomain(userID string) (domain.Transaction, error) {
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		return domain.Transaction{}, domain.ErrInvalidDate
	}

	tx := domain.Transaction{
		UserID:      userID,
		Amount:      req.Amount,
		Type:        domain.TransactionType(req.Type),
		Category:    strings.TrimSpace(req.Category),
		Date:        date,
		Description: req.Description,
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// TransactionsHandler handles transaction CRUD endpoints.
type TransactionsHandler struct {
	repo bigquery.TransactionRepository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo bigquery.TransactionRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.repo.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	if rows == nil {
		rows = []*bigquery.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := req.toDomain(middleware.UserID(ctx))
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	row := bigquery.RowFromTransaction(tx)
	if err := h.repo.InsertTransaction(ctx, row); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, row)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := req.toDomain(middleware.UserID(ctx))
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = transactionID

	row := bigquery.RowFromTransaction(tx)
	if err := h.repo.UpdateTransaction(ctx, row); err != nil {
		if errors.Is(err, bigquery.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, row)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()

	if err := h.repo.DeleteTransaction(ctx, middleware.UserID(ctx), transactionID); err != nil {
		if errors.Is(err, bigquery.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SummaryHandler handles the aggregate reporting endpoint.
type SummaryHandler struct {
	repo bigquery.TransactionRepository
	log  zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(repo bigquery.TransactionRepository, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		repo: repo,
		log:  log,
	}
}

// GetSummary handles GET /api/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.repo.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	records := make([]summary.Record, 0, len(rows))
	for _, row := range rows {
		tx := row.Transaction()
		records = append(records, summary.Record{
			Type:   string(tx.Type),
			Amount: tx.Amount,
			Date:   row.TransactionDate.String(),
		})
	}

	middleware.WriteJSON(w, http.StatusOK, summary.Aggregate(records))
}

// Predictor produces a spending prediction from transaction history.
type Predictor interface {
	Predict(ctx context.Context, records []summary.Record) (string, error)
}

// PredictionsHandler relays transaction history to the AI advisor.
type PredictionsHandler struct {
	advisor Predictor
	log     zerolog.Logger
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(advisor Predictor, log zerolog.Logger) *PredictionsHandler {
	return &PredictionsHandler{
		advisor: advisor,
		log:     log,
	}
}

// CreatePrediction handles POST /api/predictions
func (h *PredictionsHandler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Transactions []summary.Record `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, err := h.advisor.Predict(ctx, req.Transactions)
	if err != nil {
		middleware.WriteError(w, predictionStatus(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"prediction": text})
}

func predictionStatus(err error) int {
	switch {
	case errors.Is(err, prediction.ErrNoData):
		return http.StatusBadRequest
	case errors.Is(err, prediction.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, prediction.ErrPaymentRequired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler handles the liveness endpoint.
type HealthHandler struct{}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
