package domain

import (
	"github.com/yungbote/skillforge-backend/internal/domain/achievement"
	"github.com/yungbote/skillforge-backend/internal/domain/assessment"
	"github.com/yungbote/skillforge-backend/internal/domain/progress"
	"github.com/yungbote/skillforge-backend/internal/domain/skill"
	"github.com/yungbote/skillforge-backend/internal/domain/user"
)

type User = user.User
type Skill = skill.Skill
type UserProgress = progress.UserProgress

type Assessment = assessment.Assessment
type AssessmentResult = assessment.AssessmentResult
type Question = assessment.Question
type PublicQuestion = assessment.PublicQuestion
type Answer = assessment.Answer

type Achievement = achievement.Achievement
type UserAchievement = achievement.UserAchievement
type Condition = achievement.Condition

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&Skill{},
		&UserProgress{},
		&Assessment{},
		&AssessmentResult{},
		&Achievement{},
		&UserAchievement{},
	}
}
