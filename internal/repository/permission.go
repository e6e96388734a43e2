package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/mindmate/internal/types"
)

type permissionModel struct {
	UserID               string `gorm:"primaryKey"`
	AnalyzeJournals      bool
	AnalyzeVoiceNotes    bool
	AnalyzeConversations bool
	AnalyzeSleepData     bool
	AnalyzeAssessments   bool
	AnalyzeMood          bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (permissionModel) TableName() string {
	return "analysis_permissions"
}

// PermissionRepo stores per-user analysis permissions.
type PermissionRepo struct {
	db *gorm.DB
}

// NewPermissionRepo returns a PermissionRepo.
func NewPermissionRepo(db *gorm.DB) *PermissionRepo {
	return &PermissionRepo{db: db}
}

// GetOrCreate returns the user's permissions, inserting an all-false row when missing.
func (r *PermissionRepo) GetOrCreate(ctx context.Context, userID string) (types.PermissionSet, error) {
	var record permissionModel
	if err := r.db.WithContext(ctx).
		Where(permissionModel{UserID: userID}).
		FirstOrCreate(&record).Error; err != nil {
		return types.PermissionSet{}, fmt.Errorf("failed to get permissions: %w", err)
	}
	return permissionFromModel(record), nil
}

// Update writes the full permission set.
func (r *PermissionRepo) Update(ctx context.Context, userID string, perms types.PermissionSet) error {
	record := permissionToModel(userID, perms)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"analyze_journals", "analyze_voice_notes", "analyze_conversations",
				"analyze_sleep_data", "analyze_assessments", "analyze_mood", "updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to update permissions: %w", err)
	}
	return nil
}

func permissionToModel(userID string, p types.PermissionSet) permissionModel {
	return permissionModel{
		UserID:               userID,
		AnalyzeJournals:      p.AnalyzeJournals,
		AnalyzeVoiceNotes:    p.AnalyzeVoiceNotes,
		AnalyzeConversations: p.AnalyzeConversations,
		AnalyzeSleepData:     p.AnalyzeSleepData,
		AnalyzeAssessments:   p.AnalyzeAssessments,
		AnalyzeMood:          p.AnalyzeMood,
	}
}

func permissionFromModel(model permissionModel) types.PermissionSet {
	return types.PermissionSet{
		AnalyzeJournals:      model.AnalyzeJournals,
		AnalyzeVoiceNotes:    model.AnalyzeVoiceNotes,
		AnalyzeConversations: model.AnalyzeConversations,
		AnalyzeSleepData:     model.AnalyzeSleepData,
		AnalyzeAssessments:   model.AnalyzeAssessments,
		AnalyzeMood:          model.AnalyzeMood,
	}
}
