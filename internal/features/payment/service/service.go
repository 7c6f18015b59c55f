package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/features/payment/models"
	"dmt-presale-backend/internal/features/payment/repository"
	"dmt-presale-backend/internal/platform/django"
)

const (
	reasonIntentFetchFailed = "intent_fetch_failed"
	reasonNoTrackID         = "no_track_id"
)

type paymentService struct {
	api    PlatformAPI
	mirror repository.IntentMirror
	logger zerolog.Logger
}

func NewPaymentService(api PlatformAPI, mirror repository.IntentMirror, logger zerolog.Logger) PaymentService {
	return &paymentService{
		api:    api,
		mirror: mirror,
		logger: logger,
	}
}

func (s *paymentService) Initiate(ctx context.Context, authToken string, req *models.InitiateRequest) (*models.InitiateResponse, error) {
	return s.api.CreatePaymentIntent(ctx, authToken, req)
}

// HandleGatewayCallback implements the gateway redirect decision tree. The
// guiding rule: once the gateway reports the payment captured, no follow-up
// failure may re-brand it as a payment failure — auto-purchase and intent
// bookkeeping degrade independently.
func (s *paymentService) HandleGatewayCallback(ctx context.Context, success, trackID, queryToken, cookieToken string) (redirect *models.CallbackRedirect) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("track_id", trackID).Msg("Panic in gateway callback")
			redirect = &models.CallbackRedirect{
				Page:   models.PageSuccess,
				Params: map[string]string{"auto_purchase": models.AutoPurchaseFailed},
			}
		}
	}()

	switch success {
	case "1":
		return s.handleSuccess(ctx, trackID, queryToken, cookieToken)
	case "":
		// Gateway sent nothing recognizable; nothing to report on.
		return &models.CallbackRedirect{Page: models.PageHome}
	default:
		return s.handleFailure(ctx, trackID, queryToken, cookieToken)
	}
}

func (s *paymentService) handleFailure(ctx context.Context, trackID, queryToken, cookieToken string) *models.CallbackRedirect {
	if trackID != "" {
		token := firstNonEmpty(queryToken, cookieToken)
		if token != "" {
			s.patchIntent(ctx, trackID, token, &models.IntentUpdate{
				PaymentCompleted: boolPtr(false),
				TokensPurchased:  boolPtr(false),
				ErrorMessage:     strPtr("payment failed at gateway"),
			})
		}
	}

	params := map[string]string{}
	if trackID != "" {
		params["track_id"] = trackID
	}
	return &models.CallbackRedirect{Page: models.PageFailed, Params: params}
}

func (s *paymentService) handleSuccess(ctx context.Context, trackID, queryToken, cookieToken string) *models.CallbackRedirect {
	if trackID == "" {
		return &models.CallbackRedirect{
			Page:   models.PageSuccess,
			Params: map[string]string{"auto_purchase": models.AutoPurchaseFalse, "reason": reasonNoTrackID},
		}
	}

	intent, err := s.api.GetPaymentIntent(ctx, trackID)
	if err != nil {
		// Payment captured, nothing more to automate. Not an error page.
		s.logger.Warn().Err(err).Str("track_id", trackID).Msg("Intent lookup failed after successful payment")
		return &models.CallbackRedirect{
			Page: models.PageSuccess,
			Params: map[string]string{
				"track_id":      trackID,
				"auto_purchase": models.AutoPurchaseFalse,
				"reason":        reasonIntentFetchFailed,
			},
		}
	}

	s.mirrorIntent(ctx, intent)

	// The intent record is the canonical token source; query and cookie are
	// deprecated fallbacks.
	token := firstNonEmpty(intent.AuthToken, queryToken, cookieToken)

	result, err := s.api.PurchaseToken(ctx, token, &models.PurchaseRequest{
		TrackID:     trackID,
		AssetType:   intent.AssetType,
		AssetID:     intent.AssetID,
		TokenAmount: intent.TokenAmount,
		Slippage:    intent.Slippage,
	})
	if err != nil {
		description := purchaseErrorDescription(err)
		s.logger.Warn().Err(err).Str("track_id", trackID).Msg("Auto-purchase failed after successful payment")

		s.patchIntent(ctx, trackID, token, &models.IntentUpdate{
			PaymentCompleted: boolPtr(true),
			TokensPurchased:  boolPtr(false),
			ErrorMessage:     strPtr(description),
		})

		return &models.CallbackRedirect{
			Page: models.PageSuccess,
			Params: map[string]string{
				"track_id":      trackID,
				"auto_purchase": models.AutoPurchaseFailed,
				"error":         description,
			},
		}
	}

	s.patchIntent(ctx, trackID, token, &models.IntentUpdate{
		PaymentCompleted: boolPtr(true),
		TokensPurchased:  boolPtr(true),
	})

	return &models.CallbackRedirect{
		Page: models.PageSuccess,
		Params: map[string]string{
			"track_id":      trackID,
			"auto_purchase": models.AutoPurchaseTrue,
			"amount":        result.TokenAmount,
			"symbol":        result.TokenSymbol,
		},
	}
}

// mirrorIntent records the intent locally for observability. A repeated
// track ID means the gateway retried the callback; the purchase endpoint is
// idempotent on track ID, so this only warns.
func (s *paymentService) mirrorIntent(ctx context.Context, intent *models.PurchaseIntent) {
	seen, err := s.mirror.Seen(ctx, intent.TrackID)
	if err != nil {
		s.logger.Warn().Err(err).Str("track_id", intent.TrackID).Msg("Intent mirror lookup failed")
	} else if seen {
		s.logger.Warn().Str("track_id", intent.TrackID).Msg("Duplicate gateway callback for track ID")
	}

	if err := s.mirror.Store(ctx, intent); err != nil {
		s.logger.Warn().Err(err).Str("track_id", intent.TrackID).Msg("Intent mirror store failed")
	}
}

// patchIntent is best-effort: the redirect decision is already made and a
// failed status update must never alter it.
func (s *paymentService) patchIntent(ctx context.Context, trackID, authToken string, update *models.IntentUpdate) {
	if err := s.api.UpdatePaymentIntent(ctx, trackID, authToken, update); err != nil {
		s.logger.Warn().Err(err).Str("track_id", trackID).Msg("Best-effort intent update failed")
	}
}

func purchaseErrorDescription(err error) string {
	var apiErr *django.APIError
	if errors.As(err, &apiErr) && apiErr.Description != "" {
		return apiErr.Description
	}
	return "token purchase failed"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
