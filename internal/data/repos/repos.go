package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos/achievement"
	"github.com/yungbote/skillforge-backend/internal/data/repos/assessment"
	"github.com/yungbote/skillforge-backend/internal/data/repos/progress"
	"github.com/yungbote/skillforge-backend/internal/data/repos/skill"
	"github.com/yungbote/skillforge-backend/internal/data/repos/user"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type SkillRepo = skill.SkillRepo
type ProgressRepo = progress.ProgressRepo
type AssessmentRepo = assessment.AssessmentRepo
type AchievementRepo = achievement.AchievementRepo

type Set struct {
	Users        UserRepo
	Skills       SkillRepo
	Progress     ProgressRepo
	Assessments  AssessmentRepo
	Achievements AchievementRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:        user.NewUserRepo(db, log),
		Skills:       skill.NewSkillRepo(db, log),
		Progress:     progress.NewProgressRepo(db, log),
		Assessments:  assessment.NewAssessmentRepo(db, log),
		Achievements: achievement.NewAchievementRepo(db, log),
	}
}
