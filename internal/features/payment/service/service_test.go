package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt-presale-backend/internal/features/payment/models"
	"dmt-presale-backend/internal/platform/django"
)

type patchCall struct {
	trackID string
	update  models.IntentUpdate
}

type fakeAPI struct {
	intent      *models.PurchaseIntent
	intentErr   error
	result      *models.PurchaseResult
	purchaseErr error
	patchErr    error
	patches     []patchCall
	purchases   []models.PurchaseRequest
	tokens      []string
	panicOnGet  bool
}

func (f *fakeAPI) GetPaymentIntent(ctx context.Context, trackID string) (*models.PurchaseIntent, error) {
	if f.panicOnGet {
		panic("boom")
	}
	return f.intent, f.intentErr
}

func (f *fakeAPI) UpdatePaymentIntent(ctx context.Context, trackID, authToken string, update *models.IntentUpdate) error {
	f.patches = append(f.patches, patchCall{trackID: trackID, update: *update})
	return f.patchErr
}

func (f *fakeAPI) PurchaseToken(ctx context.Context, authToken string, req *models.PurchaseRequest) (*models.PurchaseResult, error) {
	f.purchases = append(f.purchases, *req)
	f.tokens = append(f.tokens, authToken)
	return f.result, f.purchaseErr
}

func (f *fakeAPI) CreatePaymentIntent(ctx context.Context, authToken string, req *models.InitiateRequest) (*models.InitiateResponse, error) {
	return &models.InitiateResponse{TrackID: "t1", PaymentURL: "http://gateway.test/start/t1"}, nil
}

func (f *fakeAPI) ChargeWallet(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAPI) CalculateTax(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAPI) CalculateTokens(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAPI) AssetPrices(ctx context.Context) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAPI) UserBalance(ctx context.Context, authToken string) (json.RawMessage, error) {
	return nil, nil
}

type fakeMirror struct {
	stored  []string
	seen    bool
	seenErr error
}

func (f *fakeMirror) Store(ctx context.Context, intent *models.PurchaseIntent) error {
	f.stored = append(f.stored, intent.TrackID)
	return nil
}

func (f *fakeMirror) Seen(ctx context.Context, trackID string) (bool, error) {
	return f.seen, f.seenErr
}

func testIntent() *models.PurchaseIntent {
	return &models.PurchaseIntent{
		TrackID:     "track-1",
		AssetType:   "presale",
		AssetID:     "42",
		TokenAmount: "1500",
		TokenSymbol: "DMT",
		Slippage:    0.5,
		AuthToken:   "intent-token",
	}
}

func TestFailedPaymentRedirectsToFailedPage(t *testing.T) {
	api := &fakeAPI{}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "0", "track-1", "query-token", "")

	assert.Equal(t, models.PageFailed, redirect.Page)
	assert.Equal(t, "track-1", redirect.Params["track_id"])
	require.Len(t, api.patches, 1)
	assert.False(t, *api.patches[0].update.PaymentCompleted)
}

func TestFailedPaymentRedirectSurvivesPatchError(t *testing.T) {
	api := &fakeAPI{patchErr: errors.New("django down")}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "0", "track-1", "query-token", "")

	assert.Equal(t, models.PageFailed, redirect.Page)
	assert.Equal(t, "track-1", redirect.Params["track_id"])
}

func TestSuccessWithIntentFetchFailureLandsOnSuccessPage(t *testing.T) {
	api := &fakeAPI{intentErr: &django.APIError{StatusCode: http.StatusNotFound, Operation: "get intent"}}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "1", "track-1", "", "")

	assert.Equal(t, models.PageSuccess, redirect.Page)
	assert.Equal(t, models.AutoPurchaseFalse, redirect.Params["auto_purchase"])
	assert.Equal(t, "intent_fetch_failed", redirect.Params["reason"])
	assert.Empty(t, api.purchases, "no purchase without an intent")
}

func TestSuccessWithPurchaseFailureEchoesBackendError(t *testing.T) {
	api := &fakeAPI{
		intent:      testIntent(),
		purchaseErr: &django.APIError{StatusCode: http.StatusBadRequest, Operation: "purchase", Description: "insufficient wallet balance"},
	}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "1", "track-1", "", "")

	assert.Equal(t, models.PageSuccess, redirect.Page)
	assert.Equal(t, models.AutoPurchaseFailed, redirect.Params["auto_purchase"])
	assert.Equal(t, "insufficient wallet balance", redirect.Params["error"])

	require.Len(t, api.patches, 1)
	assert.True(t, *api.patches[0].update.PaymentCompleted)
	assert.False(t, *api.patches[0].update.TokensPurchased)
}

func TestSuccessWithPurchaseSuccessCarriesAmountAndSymbol(t *testing.T) {
	api := &fakeAPI{
		intent: testIntent(),
		result: &models.PurchaseResult{TokenAmount: "1500", TokenSymbol: "DMT"},
	}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "1", "track-1", "", "")

	assert.Equal(t, models.PageSuccess, redirect.Page)
	assert.Equal(t, models.AutoPurchaseTrue, redirect.Params["auto_purchase"])
	assert.Equal(t, "1500", redirect.Params["amount"])
	assert.Equal(t, "DMT", redirect.Params["symbol"])

	require.Len(t, api.purchases, 1)
	assert.Equal(t, "track-1", api.purchases[0].TrackID, "track ID must be forwarded for idempotency")

	require.Len(t, api.patches, 1)
	assert.True(t, *api.patches[0].update.PaymentCompleted)
	assert.True(t, *api.patches[0].update.TokensPurchased)
}

func TestSuccessUsesIntentTokenOverFallbacks(t *testing.T) {
	api := &fakeAPI{
		intent: testIntent(),
		result: &models.PurchaseResult{TokenAmount: "1500", TokenSymbol: "DMT"},
	}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	svc.HandleGatewayCallback(context.Background(), "1", "track-1", "query-token", "cookie-token")

	require.Len(t, api.tokens, 1)
	assert.Equal(t, "intent-token", api.tokens[0], "intent token is canonical; query and cookie are fallbacks")
}

func TestSuccessMirrorsIntentBestEffort(t *testing.T) {
	api := &fakeAPI{
		intent: testIntent(),
		result: &models.PurchaseResult{TokenAmount: "1500", TokenSymbol: "DMT"},
	}
	mirror := &fakeMirror{seen: true} // duplicate callback only warns
	svc := NewPaymentService(api, mirror, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "1", "track-1", "", "")

	assert.Equal(t, models.AutoPurchaseTrue, redirect.Params["auto_purchase"])
	require.Len(t, mirror.stored, 1)
	assert.Equal(t, "track-1", mirror.stored[0])
	assert.Len(t, api.purchases, 1, "duplicate detection must not block the idempotent purchase")
}

func TestMissingSuccessFlagRedirectsHome(t *testing.T) {
	svc := NewPaymentService(&fakeAPI{}, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "", "", "", "")

	assert.Equal(t, models.PageHome, redirect.Page)
}

func TestPanicDuringCallbackStillLandsOnSuccessPage(t *testing.T) {
	api := &fakeAPI{panicOnGet: true}
	svc := NewPaymentService(api, &fakeMirror{}, zerolog.Nop())

	redirect := svc.HandleGatewayCallback(context.Background(), "1", "track-1", "", "")

	assert.Equal(t, models.PageSuccess, redirect.Page)
	assert.Equal(t, models.AutoPurchaseFailed, redirect.Params["auto_purchase"])
}
