package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/mindmate/internal/types"
)

// sessionModel maps to the chat_sessions table. Messages and topics are JSONB.
type sessionModel struct {
	ID        string          `gorm:"primaryKey"`
	UserID    string          `gorm:"index"`
	Messages  json.RawMessage `gorm:"type:jsonb"`
	Topics    json.RawMessage `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionModel) TableName() string {
	return "chat_sessions"
}

// SessionRepo stores conversation logs.
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo returns a SessionRepo.
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *types.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	record, err := sessionToModel(session)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to insert session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.ErrSessionExists
	}
	session.CreatedAt = record.CreatedAt
	session.UpdatedAt = record.UpdatedAt
	return nil
}

// Find returns nil without error when the session does not exist.
func (r *SessionRepo) Find(ctx context.Context, sessionID, userID string) (*types.Session, error) {
	var record sessionModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Limit(1).
		Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if record.ID == "" {
		return nil, nil
	}
	return sessionFromModel(record)
}

func (r *SessionRepo) Save(ctx context.Context, session *types.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	record, err := sessionToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	session.UpdatedAt = record.UpdatedAt
	return nil
}

func sessionToModel(session *types.Session) (sessionModel, error) {
	messages, err := marshalJSON(session.Messages)
	if err != nil {
		return sessionModel{}, fmt.Errorf("failed to encode session messages: %w", err)
	}
	topics, err := marshalJSON(session.Topics)
	if err != nil {
		return sessionModel{}, fmt.Errorf("failed to encode session topics: %w", err)
	}
	return sessionModel{
		ID:        session.ID,
		UserID:    session.UserID,
		Messages:  messages,
		Topics:    topics,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func sessionFromModel(model sessionModel) (*types.Session, error) {
	session := &types.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if err := unmarshalJSON(model.Messages, &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode session messages: %w", err)
	}
	if err := unmarshalJSON(model.Topics, &session.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode session topics: %w", err)
	}
	return session, nil
}
