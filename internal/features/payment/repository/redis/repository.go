package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dmt-presale-backend/internal/features/payment/models"
	"dmt-presale-backend/internal/features/payment/repository"
)

// Long enough to catch gateway retries and manual refreshes of the
// callback URL, short enough that the mirror never grows unbounded.
const mirrorTTL = 24 * time.Hour

type intentMirror struct {
	client *redis.Client
}

func NewIntentMirror(client *redis.Client) repository.IntentMirror {
	return &intentMirror{
		client: client,
	}
}

func (m *intentMirror) Store(ctx context.Context, intent *models.PurchaseIntent) error {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("intent:%s", intent.TrackID)
	return m.client.Set(ctx, key, intentJSON, mirrorTTL).Err()
}

func (m *intentMirror) Seen(ctx context.Context, trackID string) (bool, error) {
	key := fmt.Sprintf("intent:%s", trackID)
	count, err := m.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
