package repositories

import (
	"context"
	"sync"

	"github.com/reelroom/backend/internal/models"
)

// MemoryChatRepository keeps chat rooms in process memory.
type MemoryChatRepository struct {
	mu    sync.RWMutex
	rooms map[string][]models.ChatMessage
}

// NewMemoryChatRepository returns an empty in-memory chat repository.
func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{rooms: make(map[string][]models.ChatMessage)}
}

func (r *MemoryChatRepository) EnsureRoom(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = []models.ChatMessage{}
	}
	return nil
}

func (r *MemoryChatRepository) RoomExists(_ context.Context, roomID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok, nil
}

func (r *MemoryChatRepository) Append(_ context.Context, message models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages, ok := r.rooms[message.Topic]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range messages {
		if existing.ID == message.ID {
			return ErrConflict
		}
	}
	r.rooms[message.Topic] = append(messages, message)
	return nil
}

func (r *MemoryChatRepository) List(_ context.Context, roomID string) ([]models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	messages, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.ChatMessage{}, messages...), nil
}

var _ ChatRepository = (*MemoryChatRepository)(nil)
