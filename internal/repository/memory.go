package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/mindmate/internal/types"
)

// userMemoryModel maps to the user_memories table.
type userMemoryModel struct {
	UserID        string `gorm:"primaryKey"`
	PreferredName string
	// TopicFrequency and Patterns are stored as JSONB documents.
	TopicFrequency json.RawMessage `gorm:"type:jsonb"`
	Patterns       json.RawMessage `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userMemoryModel) TableName() string {
	return "user_memories"
}

// observationModel maps to the memory_observations table.
type observationModel struct {
	ID         int
	UserID     string `gorm:"index"`
	Category   string
	Content    string
	Confidence float64
	// Embedding stores vector representation for similarity search.
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (observationModel) TableName() string {
	return "memory_observations"
}

// MemoryRepo accesses long-term user memory.
type MemoryRepo struct {
	db *gorm.DB
}

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) GetOrCreate(ctx context.Context, userID string) (*types.UserMemory, error) {
	var record userMemoryModel
	if err := r.db.WithContext(ctx).
		Where(userMemoryModel{UserID: userID}).
		Attrs(userMemoryModel{TopicFrequency: json.RawMessage("{}"), Patterns: json.RawMessage("{}")}).
		FirstOrCreate(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to get user memory: %w", err)
	}
	return userMemoryFromModel(record), nil
}

func (r *MemoryRepo) SetName(ctx context.Context, userID, name string) error {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Model(&userMemoryModel{}).
		Where("user_id = ?", userID).
		Update("preferred_name", name).Error; err != nil {
		return fmt.Errorf("failed to set preferred name: %w", err)
	}
	return nil
}

// IncrementTopics adds one to each topic's frequency under a row lock.
func (r *MemoryRepo) IncrementTopics(ctx context.Context, userID string, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record userMemoryModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&record).Error; err != nil {
			return fmt.Errorf("failed to lock user memory: %w", err)
		}

		freq := make(map[string]int)
		if err := unmarshalJSON(record.TopicFrequency, &freq); err != nil {
			return fmt.Errorf("failed to decode topic frequency: %w", err)
		}
		for _, topic := range topics {
			freq[topic]++
		}
		raw, err := marshalJSON(freq)
		if err != nil {
			return fmt.Errorf("failed to encode topic frequency: %w", err)
		}
		if err := tx.Model(&userMemoryModel{}).
			Where("user_id = ?", userID).
			Update("topic_frequency", raw).Error; err != nil {
			return fmt.Errorf("failed to update topic frequency: %w", err)
		}
		return nil
	})
}

// MergePatterns applies fn to the stored patterns under a row lock and writes
// them back when fn reports a change.
func (r *MemoryRepo) MergePatterns(ctx context.Context, userID string, fn func(*types.Patterns) bool) error {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record userMemoryModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&record).Error; err != nil {
			return fmt.Errorf("failed to lock user memory: %w", err)
		}

		var patterns types.Patterns
		if err := unmarshalJSON(record.Patterns, &patterns); err != nil {
			return fmt.Errorf("failed to decode patterns: %w", err)
		}
		if !fn(&patterns) {
			return nil
		}
		raw, err := marshalJSON(patterns)
		if err != nil {
			return fmt.Errorf("failed to encode patterns: %w", err)
		}
		if err := tx.Model(&userMemoryModel{}).
			Where("user_id = ?", userID).
			Update("patterns", raw).Error; err != nil {
			return fmt.Errorf("failed to update patterns: %w", err)
		}
		return nil
	})
}

func (r *MemoryRepo) AddObservation(ctx context.Context, obs types.Observation) error {
	var vector *pgvector.Vector
	if len(obs.Embedding) > 0 {
		v := pgvector.NewVector(obs.Embedding)
		vector = &v
	}
	record := observationModel{
		UserID:     obs.UserID,
		Category:   obs.Category,
		Content:    obs.Content,
		Confidence: obs.Confidence,
		Embedding:  vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// RecentObservations returns the latest observations, oldest first.
func (r *MemoryRepo) RecentObservations(ctx context.Context, userID string, limit int) ([]types.Observation, error) {
	var records []observationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}

	results := make([]types.Observation, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		results = append(results, observationFromModel(records[i]))
	}
	return results, nil
}

// SearchSimilar returns observations above the cosine similarity threshold,
// ranked by similarity and confidence.
func (r *MemoryRepo) SearchSimilar(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.Observation, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, category, content, confidence, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM memory_observations
		WHERE embedding IS NOT NULL AND user_id = $2 AND 1 - (embedding <=> $1) > $3
		ORDER BY (0.85 * (1 - (embedding <=> $1)) + 0.15 * confidence) DESC
		LIMIT $4`

	var rows []similarObservation
	if err := r.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), userID, threshold, topK).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar observations: %w", err)
	}

	results := make([]types.Observation, 0, len(rows))
	for _, row := range rows {
		results = append(results, types.Observation{
			ID:         row.ID,
			UserID:     row.UserID,
			Category:   row.Category,
			Content:    row.Content,
			Confidence: row.Confidence,
			Similarity: row.Similarity,
			CreatedAt:  row.CreatedAt,
		})
	}
	return results, nil
}

type similarObservation struct {
	ID         int
	UserID     string
	Category   string
	Content    string
	Confidence float64
	Similarity float64
	CreatedAt  time.Time
}

func userMemoryFromModel(model userMemoryModel) *types.UserMemory {
	mem := &types.UserMemory{
		UserID:         model.UserID,
		PreferredName:  model.PreferredName,
		TopicFrequency: make(map[string]int),
		UpdatedAt:      model.UpdatedAt,
	}
	if err := unmarshalJSON(model.TopicFrequency, &mem.TopicFrequency); err != nil {
		slog.Warn("failed to decode topic frequency", "user_id", model.UserID, "error", err.Error())
		mem.TopicFrequency = make(map[string]int)
	}
	if err := unmarshalJSON(model.Patterns, &mem.Patterns); err != nil {
		slog.Warn("failed to decode patterns", "user_id", model.UserID, "error", err.Error())
		mem.Patterns = types.Patterns{}
	}
	return mem
}

func observationFromModel(model observationModel) types.Observation {
	obs := types.Observation{
		ID:         model.ID,
		UserID:     model.UserID,
		Category:   model.Category,
		Content:    model.Content,
		Confidence: model.Confidence,
		CreatedAt:  model.CreatedAt,
	}
	if model.Embedding != nil {
		obs.Embedding = model.Embedding.Slice()
	}
	return obs
}
