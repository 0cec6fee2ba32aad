package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/security/validation"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type TradeHandler struct {
	tradeService services.TradeService
}

func NewTradeHandler(tradeService services.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// CreateTradeResponse mirrors the ingest outcome: "ok" carries the new id,
// "duplicate" carries the id of the record already holding the source_id.
type CreateTradeResponse struct {
	Status  string `json:"status"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

// CheckTradeResponse reports whether a source_id is already recorded.
type CheckTradeResponse struct {
	Exists bool   `json:"exists"`
	ID     *int64 `json:"id"`
}

func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var sub models.TradeSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.tradeService.IngestTrade(r.Context(), sub)
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			ctxLogger.Info("Trade submission rejected", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Error ingesting trade", "error", err)
		utils.SendJSONError(w, "Failed to record trade", http.StatusInternalServerError)
		return
	}

	resp := CreateTradeResponse{Status: string(result.Status), ID: result.ID}
	switch result.Status {
	case services.IngestStatusDuplicate:
		resp.Message = "Trade with this source_id already exists"
		ctxLogger.Info("Duplicate trade submission", "id", result.ID)
	default:
		resp.Message = "Trade created successfully"
		ctxLogger.Info("Trade recorded", "id", result.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TradeHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	symbol := r.URL.Query().Get("symbol")
	side := models.Side(r.URL.Query().Get("side"))

	limit := services.DefaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			ctxLogger.Debug("Invalid limit parameter, using default", "limit", limitStr)
		} else {
			limit = parsed
		}
	}

	trades, err := h.tradeService.ListTrades(r.Context(), symbol, side, limit)
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Error querying trades", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error querying trades: %v", err), http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trades); err != nil {
		ctxLogger.Error("Error generating JSON response for trades", "error", err)
	}
}

func (h *TradeHandler) HandleCheckTrade(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		utils.SendJSONError(w, "source_id required", http.StatusBadRequest)
		return
	}

	exists, id, err := h.tradeService.CheckSourceID(r.Context(), sourceID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error checking source_id", "error", err)
		utils.SendJSONError(w, "Failed to check trade", http.StatusInternalServerError)
		return
	}

	resp := CheckTradeResponse{Exists: exists}
	if exists {
		resp.ID = &id
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TradeHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tradeService.GetSummary(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error computing stats summary", "error", err)
		utils.SendJSONError(w, "Failed to compute summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
