package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelroom/backend/internal/models"
	"github.com/reelroom/backend/internal/repositories"
)

func newTestService() *Service {
	svc := NewService(repositories.NewMemoryChatRepository(), NewHub())
	base := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	svc.NowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

func validMessage(topic string) models.ChatMessage {
	return models.ChatMessage{
		Topic:      topic,
		UserID:     "u1",
		Username:   "tyler",
		ProfilePic: "img/images/pfpPlaceholder.jpg",
		Message:    "first rule",
	}
}

func TestServiceSendAndHistory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.EnsureRoom(ctx, "550"); err != nil {
		t.Fatalf("ensure room: %v", err)
	}
	if err := svc.EnsureRoom(ctx, "550"); err != nil {
		t.Fatalf("ensure room twice: %v", err)
	}

	first, err := svc.Send(ctx, validMessage("550"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned got %+v", first)
	}
	second := validMessage("550")
	second.Message = "second rule"
	if _, err := svc.Send(ctx, second); err != nil {
		t.Fatalf("send: %v", err)
	}

	history, err := svc.History(ctx, "550")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Message != "first rule" || history[1].Message != "second rule" {
		t.Fatalf("unexpected history %+v", history)
	}
	if !history[0].CreatedAt.Before(history[1].CreatedAt) {
		t.Fatalf("expected history ordered by timestamp")
	}
}

func TestServiceSendValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if err := svc.EnsureRoom(ctx, "550"); err != nil {
		t.Fatalf("ensure room: %v", err)
	}

	cases := map[string]func(*models.ChatMessage){
		"missingUser":     func(m *models.ChatMessage) { m.UserID = "" },
		"missingUsername": func(m *models.ChatMessage) { m.Username = " " },
		"missingMessage":  func(m *models.ChatMessage) { m.Message = "" },
		"missingPicture":  func(m *models.ChatMessage) { m.ProfilePic = "" },
		"missingTopic":    func(m *models.ChatMessage) { m.Topic = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			msg := validMessage("550")
			mutate(&msg)
			if _, err := svc.Send(ctx, msg); !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected invalid message got %v", err)
			}
		})
	}
}

func TestServiceUnknownRoom(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Send(ctx, validMessage("missing")); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found got %v", err)
	}
	if _, err := svc.History(ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found got %v", err)
	}
	if _, _, err := svc.Subscribe(ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found got %v", err)
	}
}

type listCountingRepo struct {
	*repositories.MemoryChatRepository
	lists int
}

func (r *listCountingRepo) List(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	r.lists++
	return r.MemoryChatRepository.List(ctx, roomID)
}

func TestServiceSubscribeDoesNotReadHistory(t *testing.T) {
	repo := &listCountingRepo{MemoryChatRepository: repositories.NewMemoryChatRepository()}
	svc := NewService(repo, NewHub())
	ctx := context.Background()
	if err := svc.EnsureRoom(ctx, "550"); err != nil {
		t.Fatalf("ensure room: %v", err)
	}

	_, cancel, err := svc.Subscribe(ctx, "550")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	if repo.lists != 0 {
		t.Fatalf("expected subscribe to skip the message log, got %d list calls", repo.lists)
	}
}

func TestServicePublishesToSubscribers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if err := svc.EnsureRoom(ctx, "550"); err != nil {
		t.Fatalf("ensure room: %v", err)
	}
	if err := svc.EnsureRoom(ctx, "1399"); err != nil {
		t.Fatalf("ensure room: %v", err)
	}

	messages, cancel, err := svc.Subscribe(ctx, "550")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if _, err := svc.Send(ctx, validMessage("1399")); err != nil {
		t.Fatalf("send other topic: %v", err)
	}
	sent, err := svc.Send(ctx, validMessage("550"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-messages:
		if got.ID != sent.ID {
			t.Fatalf("expected message %s got %s", sent.ID, got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestHubCancel(t *testing.T) {
	hub := NewHub()
	messages, cancel := hub.Subscribe("550")
	if hub.Subscribers("550") != 1 {
		t.Fatalf("expected one subscriber")
	}

	cancel()
	cancel()

	if hub.Subscribers("550") != 0 {
		t.Fatalf("expected subscriber to be removed")
	}
	if _, ok := <-messages; ok {
		t.Fatal("expected channel to be closed")
	}

	hub.Publish(models.ChatMessage{Topic: "550"})
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()
	messages, cancel := hub.Subscribe("550")
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(models.ChatMessage{Topic: "550"})
	}
	if len(messages) != subscriberBuffer {
		t.Fatalf("expected buffer to cap at %d got %d", subscriberBuffer, len(messages))
	}
}
