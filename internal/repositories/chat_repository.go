package repositories

import (
	"context"

	"github.com/reelroom/backend/internal/models"
)

// ChatRepository persists per-title discussion logs.
type ChatRepository interface {
	EnsureRoom(ctx context.Context, roomID string) error
	RoomExists(ctx context.Context, roomID string) (bool, error)
	Append(ctx context.Context, message models.ChatMessage) error
	List(ctx context.Context, roomID string) ([]models.ChatMessage, error)
}
