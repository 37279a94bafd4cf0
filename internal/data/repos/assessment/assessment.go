package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(dbc dbctx.Context, row *types.Assessment) (*types.Assessment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	CreateResult(dbc dbctx.Context, row *types.AssessmentResult) (*types.AssessmentResult, error)
	HasResult(dbc dbctx.Context, assessmentID uuid.UUID) (bool, error)
	// ListResultsByUser returns results newest first; limit <= 0 means all.
	ListResultsByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, row *types.Assessment) (*types.Assessment, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Assessment
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *assessmentRepo) CreateResult(dbc dbctx.Context, row *types.AssessmentResult) (*types.AssessmentResult, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *assessmentRepo) HasResult(dbc dbctx.Context, assessmentID uuid.UUID) (bool, error) {
	if assessmentID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.AssessmentResult{}).
		Where("assessment_id = ?", assessmentID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *assessmentRepo) ListResultsByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error) {
	var rows []*types.AssessmentResult
	if userID == uuid.Nil {
		return rows, nil
	}
	q := dbc.Conn(r.db).Where("user_id = ?", userID).Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
