package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/mindmate/internal/types"
)

type moodModel struct {
	ID          int
	UserID      string `gorm:"index"`
	Rating      float64
	StressLevel *float64
	Activities  json.RawMessage `gorm:"type:jsonb"`
	Note        string
	CreatedAt   time.Time
}

func (moodModel) TableName() string {
	return "mood_entries"
}

type sleepModel struct {
	ID            int
	UserID        string `gorm:"index"`
	DurationHours float64
	Quality       string
	CreatedAt     time.Time
}

func (sleepModel) TableName() string {
	return "sleep_entries"
}

type journalModel struct {
	ID        int
	UserID    string `gorm:"index"`
	Title     string
	Content   string
	Themes    json.RawMessage `gorm:"type:jsonb"`
	Sentiment string
	CreatedAt time.Time
}

func (journalModel) TableName() string {
	return "journal_entries"
}

type assessmentModel struct {
	ID        int
	UserID    string `gorm:"index"`
	Kind      string
	Score     int
	Severity  string
	CreatedAt time.Time
}

func (assessmentModel) TableName() string {
	return "assessments"
}

// RecordsRepo reads the user's health-adjacent records. All results are oldest first.
type RecordsRepo struct {
	db *gorm.DB
}

// NewRecordsRepo returns a RecordsRepo.
func NewRecordsRepo(db *gorm.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) RecentMoods(ctx context.Context, userID string, limit int) ([]types.MoodEntry, error) {
	var records []moodModel
	if err := r.recent(ctx, userID, limit, &records); err != nil {
		return nil, fmt.Errorf("failed to query moods: %w", err)
	}
	results := make([]types.MoodEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		m := records[i]
		entry := types.MoodEntry{
			Rating:      m.Rating,
			StressLevel: m.StressLevel,
			Note:        m.Note,
			CreatedAt:   m.CreatedAt,
		}
		_ = unmarshalJSON(m.Activities, &entry.Activities)
		results = append(results, entry)
	}
	return results, nil
}

func (r *RecordsRepo) RecentSleep(ctx context.Context, userID string, limit int) ([]types.SleepEntry, error) {
	var records []sleepModel
	if err := r.recent(ctx, userID, limit, &records); err != nil {
		return nil, fmt.Errorf("failed to query sleep: %w", err)
	}
	results := make([]types.SleepEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		s := records[i]
		results = append(results, types.SleepEntry{
			DurationHours: s.DurationHours,
			Quality:       s.Quality,
			CreatedAt:     s.CreatedAt,
		})
	}
	return results, nil
}

func (r *RecordsRepo) RecentJournals(ctx context.Context, userID string, limit int) ([]types.JournalEntry, error) {
	var records []journalModel
	if err := r.recent(ctx, userID, limit, &records); err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	results := make([]types.JournalEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		j := records[i]
		entry := types.JournalEntry{
			Title:     j.Title,
			Content:   j.Content,
			Sentiment: j.Sentiment,
			CreatedAt: j.CreatedAt,
		}
		_ = unmarshalJSON(j.Themes, &entry.Themes)
		results = append(results, entry)
	}
	return results, nil
}

func (r *RecordsRepo) RecentAssessments(ctx context.Context, userID string, limit int) ([]types.AssessmentResult, error) {
	var records []assessmentModel
	if err := r.recent(ctx, userID, limit, &records); err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	results := make([]types.AssessmentResult, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		a := records[i]
		results = append(results, types.AssessmentResult{
			Kind:      a.Kind,
			Score:     a.Score,
			Severity:  a.Severity,
			CreatedAt: a.CreatedAt,
		})
	}
	return results, nil
}

func (r *RecordsRepo) recent(ctx context.Context, userID string, limit int, dest any) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(dest).Error
}
