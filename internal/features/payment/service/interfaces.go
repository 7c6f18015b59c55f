package service

import (
	"context"
	"encoding/json"

	"dmt-presale-backend/internal/features/payment/models"
)

// PlatformAPI is the slice of the Django client the payment feature uses.
type PlatformAPI interface {
	GetPaymentIntent(ctx context.Context, trackID string) (*models.PurchaseIntent, error)
	UpdatePaymentIntent(ctx context.Context, trackID, authToken string, update *models.IntentUpdate) error
	PurchaseToken(ctx context.Context, authToken string, req *models.PurchaseRequest) (*models.PurchaseResult, error)
	CreatePaymentIntent(ctx context.Context, authToken string, req *models.InitiateRequest) (*models.InitiateResponse, error)
	ChargeWallet(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error)
	CalculateTax(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error)
	CalculateTokens(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error)
	AssetPrices(ctx context.Context) (json.RawMessage, error)
	UserBalance(ctx context.Context, authToken string) (json.RawMessage, error)
}

// PaymentService owns the gateway callback decision and the fiat-rail
// operations around it.
type PaymentService interface {
	// HandleGatewayCallback resolves a gateway redirect into exactly one
	// frontend redirect. It never returns an error: every failure mode maps
	// to a redirect decision.
	HandleGatewayCallback(ctx context.Context, success, trackID, queryToken, cookieToken string) *models.CallbackRedirect
	Initiate(ctx context.Context, authToken string, req *models.InitiateRequest) (*models.InitiateResponse, error)
}
