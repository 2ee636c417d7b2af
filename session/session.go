package session

import (
	"context"
	"fmt"

	"github.com/malecare/trialmatch/config"
	"github.com/malecare/trialmatch/models"
	"github.com/malecare/trialmatch/session/inmemory"
	redisstore "github.com/malecare/trialmatch/session/redis"
)

// Store owns the per-session conversation state. Get returns an empty state
// for an unknown id (sessions are created on first reference) and Delete is
// a no-op when the id is absent. Stores guarantee their own safety across
// independent sessions only; callers serialize turns per session id.
type Store interface {
	Get(ctx context.Context, id string) (models.ConversationState, error)
	Put(ctx context.Context, id string, state models.ConversationState) error
	Delete(ctx context.Context, id string) error
}

type StoreType string

const (
	InMemoryStore StoreType = "inmemory"
	RedisStore    StoreType = "redis"
)

// NewStore creates a session store backend from configuration.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch StoreType(cfg.Store) {
	case InMemoryStore:
		return inmemory.NewInMemorySessionStore(), nil
	case RedisStore:
		return redisstore.NewRedisSessionStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Store)
	}
}
