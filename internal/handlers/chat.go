package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/reelroom/backend/internal/chat"
	"github.com/reelroom/backend/internal/logging"
	"github.com/reelroom/backend/internal/models"
)

// ChatHandler exposes per-title chat rooms.
type ChatHandler struct {
	Chat           ChatService
	Limiter        RateLimiter
	AllowedOrigins []string
}

type createRoomRequest struct {
	ID string `json:"Id" validate:"required"`
}

type sendMessageRequest struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Message    string `json:"message"`
	ProfilePic string `json:"profilePic"`
}

// Create handles POST /api/chat/create.
func (h ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Chat == nil {
		respondError(ctx, w, http.StatusInternalServerError, "chat service unavailable")
		return
	}

	var req createRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Movie ID required")
		return
	}

	if err := h.Chat.EnsureRoom(ctx, req.ID); err != nil {
		if errors.Is(err, chat.ErrInvalidMessage) {
			respondError(ctx, w, http.StatusBadRequest, "Movie ID required")
			return
		}
		logging.FromContext(ctx).Error("create chat room failed", "error", err, "room", req.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create chat room")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Chat room ready", "Id": req.ID})
}

// Send handles POST /api/chat/{movieId}/send.
func (h ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Chat == nil {
		respondError(ctx, w, http.StatusInternalServerError, "chat service unavailable")
		return
	}
	if !checkRateLimit(ctx, w, r, h.Limiter, "chat") {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.Chat.Send(ctx, models.ChatMessage{
		Topic:      r.PathValue("movieId"),
		UserID:     req.UserID,
		Username:   req.Username,
		Message:    req.Message,
		ProfilePic: req.ProfilePic,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrInvalidMessage):
		respondError(ctx, w, http.StatusBadRequest, "User ID, username, message, and profile picture are required")
		return
	case errors.Is(err, chat.ErrRoomNotFound):
		respondError(ctx, w, http.StatusNotFound, "Chat room not found")
		return
	default:
		logging.FromContext(ctx).Error("send chat message failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to send message")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"message": "Message sent successfully!", "data": msg})
}

// Messages handles GET /api/chat/{movieId}/messages.
func (h ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Chat == nil {
		respondError(ctx, w, http.StatusInternalServerError, "chat service unavailable")
		return
	}

	messages, err := h.Chat.History(ctx, r.PathValue("movieId"))
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Chat room not found")
			return
		}
		logging.FromContext(ctx).Error("list chat messages failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	respondJSON(ctx, w, http.StatusOK, messages)
}

// Live handles GET /api/chat/{movieId}/live, upgrading to a websocket that
// streams new messages as they are sent.
func (h ChatHandler) Live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Chat == nil {
		respondError(ctx, w, http.StatusInternalServerError, "chat service unavailable")
		return
	}

	messages, cancel, err := h.Chat.Subscribe(ctx, r.PathValue("movieId"))
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Chat room not found")
			return
		}
		logging.FromContext(ctx).Error("subscribe to chat failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.FromContext(ctx).Warn("websocket upgrade failed", "error", err)
		return
	}

	chat.Stream(ctx, conn, messages)
}

func (h ChatHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
