package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/security/validation"
	"github.com/username/tradelog/backend/src/services"
)

// fakeTradeService scripts the core's responses so handler translation can be
// tested without a database.
type fakeTradeService struct {
	ingestResult *services.IngestResult
	ingestErr    error
	trades       []models.Trade
	listErr      error
	checkExists  bool
	checkID      int64
	checkErr     error
	summary      *models.SummaryResult
	summaryErr   error
	pingErr      error
}

func (f *fakeTradeService) IngestTrade(ctx context.Context, sub models.TradeSubmission) (*services.IngestResult, error) {
	return f.ingestResult, f.ingestErr
}

func (f *fakeTradeService) ListTrades(ctx context.Context, symbol string, side models.Side, limit int) ([]models.Trade, error) {
	return f.trades, f.listErr
}

func (f *fakeTradeService) CheckSourceID(ctx context.Context, sourceID string) (bool, int64, error) {
	return f.checkExists, f.checkID, f.checkErr
}

func (f *fakeTradeService) GetSummary(ctx context.Context) (*models.SummaryResult, error) {
	return f.summary, f.summaryErr
}

func (f *fakeTradeService) Ping(ctx context.Context) error { return f.pingErr }

func submissionBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(models.TradeSubmission{
		Symbol:     "BTCUSD",
		Side:       models.SideBuy,
		Quantity:   1,
		Price:      64000,
		ExecutedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleCreateTradeOK(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{
		ingestResult: &services.IngestResult{Status: services.IngestStatusOK, ID: 7},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/trades", submissionBody(t))
	rec := httptest.NewRecorder()
	h.HandleCreateTrade(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CreateTradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "Trade created successfully", resp.Message)
}

func TestHandleCreateTradeDuplicate(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{
		ingestResult: &services.IngestResult{Status: services.IngestStatusDuplicate, ID: 3},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/trades", submissionBody(t))
	rec := httptest.NewRecorder()
	h.HandleCreateTrade(rec, req)

	// A replay is a benign outcome, not an error
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CreateTradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp.Status)
	assert.Equal(t, int64(3), resp.ID)
}

func TestHandleCreateTradeValidationError(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{
		ingestErr: fmt.Errorf("%w: quantity must be greater than 0", validation.ErrValidationFailed),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/trades", submissionBody(t))
	rec := httptest.NewRecorder()
	h.HandleCreateTrade(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateTradeStorageError(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{ingestErr: errors.New("disk I/O error")})

	req := httptest.NewRequest(http.MethodPost, "/api/trades", submissionBody(t))
	rec := httptest.NewRecorder()
	h.HandleCreateTrade(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCreateTradeMalformedBody(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/trades", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.HandleCreateTrade(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTradesEmptyIsArray(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	rec := httptest.NewRecorder()
	h.HandleGetTrades(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleGetTradesInvalidSide(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{
		listErr: fmt.Errorf("%w: side must be BUY or SELL", validation.ErrValidationFailed),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/trades?side=SHORT", nil)
	rec := httptest.NewRecorder()
	h.HandleGetTrades(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckTradeRequiresSourceID(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/trades/check", nil)
	rec := httptest.NewRecorder()
	h.HandleCheckTrade(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckTradeFound(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{checkExists: true, checkID: 12})

	req := httptest.NewRequest(http.MethodGet, "/api/trades/check?source_id=fill-12", nil)
	rec := httptest.NewRecorder()
	h.HandleCheckTrade(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CheckTradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Exists)
	require.NotNil(t, resp.ID)
	assert.Equal(t, int64(12), *resp.ID)
}

func TestHandleCheckTradeAbsentHasNullID(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/trades/check?source_id=missing", nil)
	rec := httptest.NewRecorder()
	h.HandleCheckTrade(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists": false, "id": null}`, rec.Body.String())
}

func TestHandleGetSummary(t *testing.T) {
	t.Parallel()

	h := NewTradeHandler(&fakeTradeService{
		summary: &models.SummaryResult{
			TotalTrades:  2,
			TotalVolume:  40,
			SymbolsCount: 1,
			RecentTrades: []models.RecentTrade{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	rec := httptest.NewRecorder()
	h.HandleGetSummary(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.SummaryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.TotalTrades)
	assert.InDelta(t, 40.0, resp.TotalVolume, 1e-9)
	assert.Equal(t, int64(1), resp.SymbolsCount)
	assert.NotNil(t, resp.RecentTrades)
}

func TestHealthCheckReportsDatabaseState(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&fakeTradeService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "Connected", resp.Database)

	h = NewHealthHandler(&fakeTradeService{pingErr: errors.New("database is closed")})
	rec = httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "Error", resp.Database)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := APIKeyMiddleware("secret-key")(next)

	// Missing key
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key
	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct key
	req = httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req.Header.Set(APIKeyHeader, "secret-key")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
