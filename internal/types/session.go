package types

import (
	"errors"
	"time"
)

// ErrSessionExists reports a session id already taken, possibly by another user.
var ErrSessionExists = errors.New("session id already exists")

// Message authors stored in the session log.
const (
	AuthorUser      = "user"
	AuthorCompanion = "companion"
)

// SessionMessage is one entry in a session's message log.
type SessionMessage struct {
	ID             string    `json:"id"`
	Author         string    `json:"author"`
	Content        string    `json:"content"`
	Type           string    `json:"type,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session is a conversation log keyed by session id and user id.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Messages  []SessionMessage `json:"messages"`
	Topics    []string         `json:"topics,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
