package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/services"
)

const (
	ServiceName    = "Trade Logger API"
	ServiceVersion = "1.0.0"
)

type HealthHandler struct {
	tradeService services.TradeService
}

func NewHealthHandler(tradeService services.TradeService) *HealthHandler {
	return &HealthHandler{tradeService: tradeService}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
}

// HandleHealthCheck reports liveness. The overall status stays OK even when
// the database probe fails; the database field carries the degradation.
func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "Connected"
	if err := h.tradeService.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("Health check database probe failed", "error", err)
		dbStatus = "Error"
	}

	resp := HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Version:   ServiceVersion,
		Service:   ServiceName,
		Database:  dbStatus,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
