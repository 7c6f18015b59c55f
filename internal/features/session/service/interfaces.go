package service

import (
	"context"

	"dmt-presale-backend/internal/features/session/models"
)

// TokenRefresher exchanges a still-valid token for a fresh one. Implemented
// by the Django platform client.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, token string) (*models.TokenResponse, error)
}

// SessionService manages SSO sessions and their token lifecycle.
type SessionService interface {
	Create(ctx context.Context, token string) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Refresh(ctx context.Context, id string) (*models.Session, error)
	Logout(ctx context.Context, id string) error
}
