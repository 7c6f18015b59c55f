package repository

import (
	"context"

	"dmt-presale-backend/internal/features/payment/models"
)

// IntentMirror keeps a short-lived local copy of purchase intents seen at
// the gateway callback. The Django API stays authoritative; the mirror
// exists for observability and duplicate-callback detection only, so every
// caller treats it as best-effort.
type IntentMirror interface {
	Store(ctx context.Context, intent *models.PurchaseIntent) error
	Seen(ctx context.Context, trackID string) (bool, error)
}
