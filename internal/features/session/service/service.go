package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/common/middleware"
	"dmt-presale-backend/internal/features/session/models"
	"dmt-presale-backend/internal/features/session/repository"
)

var (
	ErrSessionNotFound = repository.ErrSessionNotFound
	ErrTokenExpired    = errors.New("token already expired")
	ErrRefreshFailed   = errors.New("token refresh failed")
)

type sessionService struct {
	repo      repository.SessionRepository
	refresher TokenRefresher
	jwtSecret string
	logger    zerolog.Logger

	// Guards against overlapping refreshes of the same session. Duplicate
	// triggers are dropped, not queued: refresh is idempotent and
	// infrequent, so the loser simply reads the refreshed session.
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewSessionService(repo repository.SessionRepository, refresher TokenRefresher, jwtSecret string, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:      repo,
		refresher: refresher,
		jwtSecret: jwtSecret,
		logger:    logger,
		inFlight:  make(map[string]bool),
	}
}

// Create parses the token's claims and persists a new session.
func (s *sessionService) Create(ctx context.Context, token string) (*models.Session, error) {
	claims, err := middleware.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("token carries no expiry")
	}
	if !time.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	session := &models.Session{
		ID:    uuid.New().String(),
		Token: token,
		User: models.UserInfo{
			Sub:   claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
		},
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.repo.GetByID(ctx, id)
}

// Refresh replaces the session's token with a fresh one. A session already
// being refreshed is returned as-is; a failed refresh deletes the session
// (single attempt, fail-closed).
func (s *sessionService) Refresh(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	if s.inFlight[id] {
		s.mu.Unlock()
		return s.repo.GetByID(ctx, id)
	}
	s.inFlight[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}()

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.refresher.RefreshToken(ctx, session.Token)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("Token refresh failed, logging session out")
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			s.logger.Error().Err(delErr).Str("session_id", id).Msg("Failed to delete session after refresh failure")
		}
		return nil, ErrRefreshFailed
	}

	session.Token = resp.Token
	session.User = resp.User
	session.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	session.RefreshedAt = time.Now()

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().Str("session_id", id).Time("expires_at", session.ExpiresAt).Msg("Session token refreshed")
	return session, nil
}

func (s *sessionService) Logout(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
