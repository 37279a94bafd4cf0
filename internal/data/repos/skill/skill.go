package skill

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type SkillRepo interface {
	Create(dbc dbctx.Context, skill *types.Skill) (*types.Skill, error)
	GetByID(dbc dbctx.Context, skillID uuid.UUID) (*types.Skill, error)
	GetByIDs(dbc dbctx.Context, skillIDs []uuid.UUID) ([]*types.Skill, error)
	GetByName(dbc dbctx.Context, name string) (*types.Skill, error)
	List(dbc dbctx.Context, category string) ([]*types.Skill, error)
	ListCategories(dbc dbctx.Context) ([]string, error)
	Update(dbc dbctx.Context, skill *types.Skill) error
	Delete(dbc dbctx.Context, skillID uuid.UUID) error
	IsReferenced(dbc dbctx.Context, skillID uuid.UUID) (bool, error)
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	return &skillRepo{db: db, log: baseLog.With("repo", "SkillRepo")}
}

func (r *skillRepo) Create(dbc dbctx.Context, skill *types.Skill) (*types.Skill, error) {
	if skill == nil {
		return nil, nil
	}
	if skill.ID == uuid.Nil {
		skill.ID = uuid.New()
	}
	if err := dbc.Conn(r.db).Create(skill).Error; err != nil {
		return nil, err
	}
	return skill, nil
}

func (r *skillRepo) GetByID(dbc dbctx.Context, skillID uuid.UUID) (*types.Skill, error) {
	if skillID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Skill
	if err := dbc.Conn(r.db).Where("id = ?", skillID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *skillRepo) GetByIDs(dbc dbctx.Context, skillIDs []uuid.UUID) ([]*types.Skill, error) {
	var rows []*types.Skill
	if len(skillIDs) == 0 {
		return rows, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", skillIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *skillRepo) GetByName(dbc dbctx.Context, name string) (*types.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var rows []*types.Skill
	if err := dbc.Conn(r.db).Where("LOWER(name) = LOWER(?)", name).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *skillRepo) List(dbc dbctx.Context, category string) ([]*types.Skill, error) {
	q := dbc.Conn(r.db).Order("category ASC").Order("name ASC")
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}
	var rows []*types.Skill
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *skillRepo) ListCategories(dbc dbctx.Context) ([]string, error) {
	var out []string
	if err := dbc.Conn(r.db).
		Model(&types.Skill{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRepo) Update(dbc dbctx.Context, skill *types.Skill) error {
	if skill == nil || skill.ID == uuid.Nil {
		return nil
	}
	return dbc.Conn(r.db).
		Model(&types.Skill{}).
		Where("id = ?", skill.ID).
		Updates(map[string]any{
			"name":              skill.Name,
			"category":          skill.Category,
			"description":       skill.Description,
			"difficulty_levels": skill.DifficultyLevels,
		}).Error
}

func (r *skillRepo) Delete(dbc dbctx.Context, skillID uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", skillID).Delete(&types.Skill{}).Error
}

// IsReferenced reports whether assessments or progress rows point at the skill.
func (r *skillRepo) IsReferenced(dbc dbctx.Context, skillID uuid.UUID) (bool, error) {
	conn := dbc.Conn(r.db)
	var count int64
	if err := conn.Model(&types.Assessment{}).Where("skill_id = ?", skillID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := conn.Model(&types.UserProgress{}).Where("skill_id = ?", skillID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
