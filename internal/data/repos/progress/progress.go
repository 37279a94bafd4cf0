package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type ProgressRepo interface {
	Get(dbc dbctx.Context, userID, skillID uuid.UUID) (*types.UserProgress, error)
	Upsert(dbc dbctx.Context, row *types.UserProgress) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(dbc dbctx.Context, userID, skillID uuid.UUID) (*types.UserProgress, error) {
	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.UserProgress
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert writes every mutable column in one statement.
func (r *progressRepo) Upsert(dbc dbctx.Context, row *types.UserProgress) error {
	if row == nil || row.UserID == uuid.Nil || row.SkillID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"level",
				"xp",
				"streak",
				"assessments_completed",
				"total_score",
				"mastery_level",
				"last_activity",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *progressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error) {
	var rows []*types.UserProgress
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("xp DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
