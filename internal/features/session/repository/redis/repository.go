package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dmt-presale-backend/internal/features/session/models"
	"dmt-presale-backend/internal/features/session/repository"
)

// Keys expire one hour past token expiry so abandoned sessions clean
// themselves up even if the monitor never sees them.
const expiryGrace = time.Hour

type sessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) repository.SessionRepository {
	return &sessionRepository{
		client: client,
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("session:%s", session.ID)
	ttl := time.Until(session.ExpiresAt) + expiryGrace
	return r.client.Set(ctx, key, sessionJSON, ttl).Err()
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	key := fmt.Sprintf("session:%s", id)
	sessionJSON, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrSessionNotFound
		}
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(sessionJSON, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	return r.Create(ctx, session)
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	key := fmt.Sprintf("session:%s", id)
	return r.client.Del(ctx, key).Err()
}

func (r *sessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	iter := r.client.Scan(ctx, 0, "session:*", 0).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		sessionJSON, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var session models.Session
		if err := json.Unmarshal(sessionJSON, &session); err != nil {
			continue
		}

		sessions = append(sessions, &session)
	}

	return sessions, iter.Err()
}
