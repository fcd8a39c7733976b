package models

import "time"

// User represents an account within the ReelRoom platform.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ChatMessage is a single entry in a title's discussion log.
type ChatMessage struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	ProfilePic string    `json:"profilePic"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"timestamp"`
}
