package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/domain/skill"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/dberr"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

//go:embed default_skills.yaml
var defaultSkillsYAML []byte

var (
	ErrSkillNameTaken   = errors.New("a skill with this name already exists")
	ErrSkillReferenced  = errors.New("skill is referenced by assessments or progress")
	ErrInvalidSkillName = errors.New("skill name and category are required")
	ErrInvalidDiffLevel = fmt.Errorf("difficulty_levels must be between %d and %d", skill.MinDifficultyLevels, skill.MaxDifficultyLevels)
)

type SkillInput struct {
	Name             string `json:"name" yaml:"name"`
	Category         string `json:"category" yaml:"category"`
	Description      string `json:"description" yaml:"description"`
	DifficultyLevels int    `json:"difficulty_levels" yaml:"difficulty_levels"`
}

type SkillService interface {
	List(ctx context.Context, category string) ([]*types.Skill, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Skill, error)
	Create(ctx context.Context, in SkillInput) (*types.Skill, error)
	Update(ctx context.Context, id uuid.UUID, in SkillInput) (*types.Skill, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SeedDefaults(ctx context.Context) (int, error)
}

type skillService struct {
	log       *logger.Logger
	skillRepo repos.SkillRepo
}

func NewSkillService(log *logger.Logger, skillRepo repos.SkillRepo) SkillService {
	return &skillService{log: log.With("service", "SkillService"), skillRepo: skillRepo}
}

func normalizeSkill(in *SkillInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Category == "" {
		return apierr.BadRequest("invalid_skill", ErrInvalidSkillName)
	}
	if in.DifficultyLevels == 0 {
		in.DifficultyLevels = 5
	}
	if in.DifficultyLevels < skill.MinDifficultyLevels || in.DifficultyLevels > skill.MaxDifficultyLevels {
		return apierr.BadRequest("invalid_difficulty_levels", ErrInvalidDiffLevel)
	}
	return nil
}

func (s *skillService) List(ctx context.Context, category string) ([]*types.Skill, error) {
	rows, err := s.skillRepo.List(dbctx.Context{Ctx: ctx}, category)
	if err != nil {
		return nil, apierr.Internal("list_skills_failed", err)
	}
	return rows, nil
}

func (s *skillService) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.skillRepo.ListCategories(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, apierr.Internal("list_categories_failed", err)
	}
	return rows, nil
}

func (s *skillService) Get(ctx context.Context, id uuid.UUID) (*types.Skill, error) {
	row, err := s.skillRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, apierr.Internal("load_skill_failed", err)
	}
	if row == nil {
		return nil, apierr.NotFound("skill_not_found")
	}
	return row, nil
}

func (s *skillService) Create(ctx context.Context, in SkillInput) (*types.Skill, error) {
	if err := normalizeSkill(&in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.skillRepo.GetByName(dbc, in.Name)
	if err != nil {
		return nil, apierr.Internal("create_skill_failed", err)
	}
	if existing != nil {
		return nil, apierr.Conflict("skill_name_taken", ErrSkillNameTaken)
	}
	row, err := s.skillRepo.Create(dbc, &types.Skill{
		ID:               uuid.New(),
		Name:             in.Name,
		Category:         in.Category,
		Description:      in.Description,
		DifficultyLevels: in.DifficultyLevels,
	})
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apierr.Conflict("skill_name_taken", ErrSkillNameTaken)
		}
		return nil, apierr.Internal("create_skill_failed", err)
	}
	s.log.Info("Skill created", "skill_id", row.ID.String(), "name", row.Name)
	return row, nil
}

func (s *skillService) Update(ctx context.Context, id uuid.UUID, in SkillInput) (*types.Skill, error) {
	if err := normalizeSkill(&in); err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if !strings.EqualFold(row.Name, in.Name) {
		other, err := s.skillRepo.GetByName(dbc, in.Name)
		if err != nil {
			return nil, apierr.Internal("update_skill_failed", err)
		}
		if other != nil && other.ID != row.ID {
			return nil, apierr.Conflict("skill_name_taken", ErrSkillNameTaken)
		}
	}
	row.Name = in.Name
	row.Category = in.Category
	row.Description = in.Description
	row.DifficultyLevels = in.DifficultyLevels
	if err := s.skillRepo.Update(dbc, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apierr.Conflict("skill_name_taken", ErrSkillNameTaken)
		}
		return nil, apierr.Internal("update_skill_failed", err)
	}
	return row, nil
}

func (s *skillService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	referenced, err := s.skillRepo.IsReferenced(dbc, id)
	if err != nil {
		return apierr.Internal("delete_skill_failed", err)
	}
	if referenced {
		return apierr.Conflict("skill_in_use", ErrSkillReferenced)
	}
	if err := s.skillRepo.Delete(dbc, id); err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return apierr.Conflict("skill_in_use", ErrSkillReferenced)
		}
		return apierr.Internal("delete_skill_failed", err)
	}
	s.log.Info("Skill deleted", "skill_id", id.String())
	return nil
}

// SeedDefaults inserts the embedded skills when none exist yet.
func (s *skillService) SeedDefaults(ctx context.Context) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.skillRepo.List(dbc, "")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	var doc struct {
		Skills []SkillInput `yaml:"skills"`
	}
	if err := yaml.Unmarshal(defaultSkillsYAML, &doc); err != nil {
		return 0, fmt.Errorf("parse default skills: %w", err)
	}
	n := 0
	for _, in := range doc.Skills {
		if err := normalizeSkill(&in); err != nil {
			return n, err
		}
		if _, err := s.skillRepo.Create(dbc, &types.Skill{
			Name:             in.Name,
			Category:         in.Category,
			Description:      in.Description,
			DifficultyLevels: in.DifficultyLevels,
		}); err != nil {
			return n, err
		}
		n++
	}
	s.log.Info("Default skills seeded", "count", n)
	return n, nil
}
