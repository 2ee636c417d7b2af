package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/malecare/trialmatch/models"
	"github.com/redis/go-redis/v9"
)

// Store persists conversation state in Redis so sessions survive process
// restarts. One JSON document per session, refreshed to the configured TTL
// on every write.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: rdb, ttl: ttl}
}

func stateKey(id string) string {
	return fmt.Sprintf("session:%s:state", id)
}

func (store *Store) Get(ctx context.Context, id string) (models.ConversationState, error) {
	val, err := store.client.Get(ctx, stateKey(id)).Result()
	if err == redis.Nil {
		return models.ConversationState{}, nil
	}
	if err != nil {
		return models.ConversationState{}, fmt.Errorf("redis get session: %w", err)
	}
	var state models.ConversationState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return models.ConversationState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

func (store *Store) Put(ctx context.Context, id string, state models.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := store.client.Set(ctx, stateKey(id), data, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (store *Store) Delete(ctx context.Context, id string) error {
	if err := store.client.Del(ctx, stateKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
