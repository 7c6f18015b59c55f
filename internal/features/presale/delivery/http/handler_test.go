package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt-presale-backend/internal/features/presale/models"
	"dmt-presale-backend/internal/features/presale/service"
)

type fakePresaleService struct {
	receipt    *models.PurchaseReceipt
	sim        *models.SimulationResult
	err        error
	gotID      int64
	gotInput   *models.PurchaseInput
	gotBalance string
}

func (f *fakePresaleService) List(ctx context.Context) ([]models.Presale, error) {
	return nil, nil
}

func (f *fakePresaleService) Get(ctx context.Context, id int64) (*models.Presale, error) {
	return nil, f.err
}

func (f *fakePresaleService) Statistics(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"total_sold":"0"}`), nil
}

func (f *fakePresaleService) Purchase(ctx context.Context, presaleID int64, input *models.PurchaseInput) (*models.PurchaseReceipt, *models.SimulationResult, error) {
	f.gotID = presaleID
	f.gotInput = input
	return f.receipt, f.sim, f.err
}

func (f *fakePresaleService) Create(ctx context.Context, input *models.CreatePresaleInput) (*models.CreatePresaleResult, error) {
	return &models.CreatePresaleResult{PresaleAddress: "0xabc", TxHash: "0xdef"}, f.err
}

func (f *fakePresaleService) Balance(ctx context.Context, presaleID int64, account string) (string, error) {
	f.gotBalance = account
	if f.err != nil {
		return "", f.err
	}
	return "1000000", nil
}

func newPresaleRouter(svc *fakePresaleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPresaleHandler(svc, nil, "secret", zerolog.Nop())
	// Auth middleware is exercised in its own package; routes are wired
	// directly here.
	router.POST("/api/presales/:id/purchase", handler.purchase)
	router.GET("/api/presales/:id/balance/:address", handler.balance)
	router.GET("/api/presales/statistics", handler.statistics)
	return router
}

func TestPurchaseReturnsReceiptOnSuccess(t *testing.T) {
	svc := &fakePresaleService{
		receipt: &models.PurchaseReceipt{TxHash: "0xdeadbeef", BlockNumber: 1234, AmountBaseUnits: "1000000000"},
		sim:     &models.SimulationResult{Success: true},
	}
	router := newPresaleRouter(svc)

	body := `{"amount":"1000","buyer":"0x2222222222222222222222222222222222222222"}`
	req := httptest.NewRequest(http.MethodPost, "/api/presales/42/purchase", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var receipt models.PurchaseReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, "0xdeadbeef", receipt.TxHash)
	assert.Equal(t, int64(42), svc.gotID)
	assert.Equal(t, "1000", svc.gotInput.Amount)
}

func TestPurchaseSimulationFailureReturnsUserMessage(t *testing.T) {
	svc := &fakePresaleService{
		sim: &models.SimulationResult{Success: false, UserMessage: "Purchase amount exceeds remaining presale supply"},
	}
	router := newPresaleRouter(svc)

	body := `{"amount":"999999","buyer":"0x2222222222222222222222222222222222222222"}`
	req := httptest.NewRequest(http.MethodPost, "/api/presales/42/purchase", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var sim models.SimulationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.False(t, sim.Success)
	assert.Equal(t, "Purchase amount exceeds remaining presale supply", sim.UserMessage)
}

func TestPurchaseConflictWhileInProgress(t *testing.T) {
	svc := &fakePresaleService{err: service.ErrPurchaseInProgress}
	router := newPresaleRouter(svc)

	body := `{"amount":"10","buyer":"0x2222222222222222222222222222222222222222"}`
	req := httptest.NewRequest(http.MethodPost, "/api/presales/42/purchase", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPurchaseRejectsMissingBody(t *testing.T) {
	router := newPresaleRouter(&fakePresaleService{})

	req := httptest.NewRequest(http.MethodPost, "/api/presales/42/purchase", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBalanceRejectsInvalidAddress(t *testing.T) {
	svc := &fakePresaleService{err: service.ErrInvalidAddress}
	router := newPresaleRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/presales/42/balance/not-an-address", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not-an-address", svc.gotBalance)
}

func TestStatisticsPassthrough(t *testing.T) {
	router := newPresaleRouter(&fakePresaleService{})

	req := httptest.NewRequest(http.MethodGet, "/api/presales/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_sold":"0"}`, w.Body.String())
}
