package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/features/session/repository"
)

// TokenMonitor keeps active SSO sessions from silently expiring. Every tick
// it scans stored sessions, deletes the ones already past expiry and
// refreshes the ones inside the refresh buffer. Overlap protection lives in
// SessionService.Refresh, so a slow refresh spanning several ticks is
// triggered only once.
type TokenMonitor struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	repo    repository.SessionRepository
	service SessionService
	buffer  time.Duration
	tick    time.Duration
	logger  zerolog.Logger
}

func NewTokenMonitor(repo repository.SessionRepository, service SessionService, buffer, tick time.Duration, logger zerolog.Logger) *TokenMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &TokenMonitor{
		ctx:     ctx,
		cancel:  cancel,
		repo:    repo,
		service: service,
		buffer:  buffer,
		tick:    tick,
		logger:  logger,
	}
}

func (m *TokenMonitor) Start() {
	m.logger.Info().Dur("tick", m.tick).Dur("buffer", m.buffer).Msg("Starting token monitor")
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := m.sweep(); err != nil {
					m.logger.Error().Err(err).Msg("Session sweep failed")
				}
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

func (m *TokenMonitor) Stop() {
	m.cancel()
	m.wg.Wait()
	m.logger.Info().Msg("Token monitor stopped")
}

func (m *TokenMonitor) sweep() error {
	sessions, err := m.repo.List(m.ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, session := range sessions {
		switch {
		case session.Expired(now):
			if err := m.service.Logout(m.ctx, session.ID); err != nil {
				m.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to delete expired session")
			} else {
				m.logger.Info().Str("session_id", session.ID).Msg("Expired session logged out")
			}
		case session.TimeUntilExpiry(now) < m.buffer:
			id := session.ID
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				if _, err := m.service.Refresh(m.ctx, id); err != nil && err != ErrRefreshFailed {
					m.logger.Error().Err(err).Str("session_id", id).Msg("Background refresh failed")
				}
			}()
		}
	}

	return nil
}
