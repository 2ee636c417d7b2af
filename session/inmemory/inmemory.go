package inmemory

import (
	"context"
	"sync"

	"github.com/malecare/trialmatch/models"
)

// Store keeps conversation state in a process-local map. States are stored
// and returned by value so no caller retains a reference across turns.
type Store struct {
	sessions map[string]models.ConversationState
	mu       sync.RWMutex
}

func NewInMemorySessionStore() *Store {
	return &Store{sessions: make(map[string]models.ConversationState)}
}

func (store *Store) Get(ctx context.Context, id string) (models.ConversationState, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.sessions[id], nil
}

func (store *Store) Put(ctx context.Context, id string, state models.ConversationState) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[id] = state
	return nil
}

func (store *Store) Delete(ctx context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
	return nil
}
