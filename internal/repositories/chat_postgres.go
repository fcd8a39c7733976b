package repositories

import (
	"context"
	"fmt"

	"github.com/reelroom/backend/internal/db"
	"github.com/reelroom/backend/internal/models"
)

// PostgresChatRepository stores chat rooms and their messages.
type PostgresChatRepository struct {
	pool db.Pool
}

// NewPostgresChatRepository constructs a chat repository backed by PostgreSQL.
func NewPostgresChatRepository(pool db.Pool) *PostgresChatRepository {
	return &PostgresChatRepository{pool: pool}
}

// EnsureRoom creates the room if it does not exist yet.
func (r *PostgresChatRepository) EnsureRoom(ctx context.Context, roomID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO chat_rooms (id, created_at)
        VALUES ($1, NOW())
        ON CONFLICT (id) DO NOTHING
    `, roomID); err != nil {
		return fmt.Errorf("insert chat room: %w", err)
	}

	return nil
}

// RoomExists reports whether roomID has been created.
func (r *PostgresChatRepository) RoomExists(ctx context.Context, roomID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return roomExists(ctx, conn, roomID)
}

func roomExists(ctx context.Context, q queryRower, roomID string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chat_rooms WHERE id = $1)`, roomID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check chat room: %w", err)
	}
	return exists, nil
}

// Append adds a message to an existing room. Unknown rooms yield ErrNotFound.
func (r *PostgresChatRepository) Append(ctx context.Context, message models.ChatMessage) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO chat_messages (id, room_id, user_id, username, profile_pic, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, message.ID, message.Topic, message.UserID, message.Username, message.ProfilePic, message.Message, message.CreatedAt)
	if err != nil {
		switch {
		case isPgCode(err, pgForeignKeyViolation):
			return ErrNotFound
		case isPgCode(err, pgUniqueViolation):
			return ErrConflict
		}
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

// List returns a room's messages oldest first. Unknown rooms yield ErrNotFound.
func (r *PostgresChatRepository) List(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	exists, err := roomExists(ctx, conn, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := conn.Query(ctx, `
        SELECT id, room_id, user_id, username, profile_pic, message, created_at
        FROM chat_messages
        WHERE room_id = $1
        ORDER BY created_at ASC, id ASC
    `, roomID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Topic, &msg.UserID, &msg.Username, &msg.ProfilePic, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

var _ ChatRepository = (*PostgresChatRepository)(nil)
