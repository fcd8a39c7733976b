// Package chat implements the per-title discussion log: an append-only list
// of messages per topic with live fan-out to websocket subscribers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/metrics"
	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/repositories"
)

const maxMessageLength = 2000

var (
	// ErrRoomNotFound indicates the topic has no chat room yet.
	ErrRoomNotFound = errors.New("chat room not found")
	// ErrInvalidMessage indicates a required message field is missing.
	ErrInvalidMessage = errors.New("invalid chat message")
)

// Service appends to and reads from chat rooms.
type Service struct {
	repo repositories.ChatRepository
	hub  *Hub

	NowFunc func() time.Time
}

// NewService constructs a chat Service.
func NewService(repo repositories.ChatRepository, hub *Hub) *Service {
	if repo == nil {
		panic("chat: repository must not be nil")
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Service{repo: repo, hub: hub}
}

// EnsureRoom creates the room for topic if needed.
func (s *Service) EnsureRoom(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidMessage)
	}
	return s.repo.EnsureRoom(ctx, topic)
}

// Send validates and appends msg, then pushes it to live subscribers.
func (s *Service) Send(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	ctx, span := logging.StartSpan(ctx, "chat.send")
	defer span.End()

	msg.Topic = strings.TrimSpace(msg.Topic)
	msg.UserID = strings.TrimSpace(msg.UserID)
	msg.Username = strings.TrimSpace(msg.Username)
	msg.ProfilePic = strings.TrimSpace(msg.ProfilePic)
	msg.Message = strings.TrimSpace(msg.Message)

	switch {
	case msg.Topic == "":
		return models.ChatMessage{}, fmt.Errorf("%w: topic is required", ErrInvalidMessage)
	case msg.UserID == "", msg.Username == "", msg.ProfilePic == "", msg.Message == "":
		return models.ChatMessage{}, fmt.Errorf("%w: userId, username, message and profilePic are required", ErrInvalidMessage)
	case len(msg.Message) > maxMessageLength:
		return models.ChatMessage{}, fmt.Errorf("%w: message too long", ErrInvalidMessage)
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now()

	if err := s.repo.Append(ctx, msg); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChatMessage{}, ErrRoomNotFound
		}
		span.Fail(err)
		return models.ChatMessage{}, err
	}

	metrics.ChatMessagesTotal.Inc()
	s.hub.Publish(msg)
	logging.FromContext(ctx).Debug("chat message appended", slog.String("topic", msg.Topic), slog.String("id", msg.ID))
	return msg, nil
}

// History returns every message in the room ordered by timestamp.
func (s *Service) History(ctx context.Context, topic string) ([]models.ChatMessage, error) {
	messages, err := s.repo.List(ctx, strings.TrimSpace(topic))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return messages, err
}

// Subscribe registers a live listener for topic after checking the room exists.
func (s *Service) Subscribe(ctx context.Context, topic string) (<-chan models.ChatMessage, func(), error) {
	topic = strings.TrimSpace(topic)
	exists, err := s.repo.RoomExists(ctx, topic)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, ErrRoomNotFound
	}
	ch, cancel := s.hub.Subscribe(topic)
	return ch, cancel, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
