package repository

import (
	"context"
	"errors"

	"dmt-presale-backend/internal/features/session/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists SSO sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Session, error)
}
