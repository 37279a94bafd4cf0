package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/assessment"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/realtime"
)

const passingScore = 0.7

// ProgressNotifier turns engine outcomes into user events.
type ProgressNotifier interface {
	ProgressChanged(ctx context.Context, res *progress.UpdateResult)
	AchievementsUnlocked(ctx context.Context, userID uuid.UUID, defs []achievement.Definition)
	AssessmentCompleted(ctx context.Context, userID uuid.UUID, sub *assessment.Submission)
}

type progressNotifier struct {
	emit    SSEEmitter
	metrics *observability.Metrics
}

// NewProgressNotifier emits through emit and counts outcomes on metrics,
// which may be nil.
func NewProgressNotifier(emit SSEEmitter, metrics *observability.Metrics) ProgressNotifier {
	return &progressNotifier{emit: emit, metrics: metrics}
}

func (n *progressNotifier) send(ctx context.Context, userID uuid.UUID, event realtime.SSEEvent, data any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.NewUserMessage(userID, event, data))
}

func (n *progressNotifier) ProgressChanged(ctx context.Context, res *progress.UpdateResult) {
	if res == nil {
		return
	}
	n.metrics.AddXP(res.SkillID.String(), res.XPGained)
	n.send(ctx, res.UserID, realtime.SSEEventProgressUpdate, map[string]any{
		"skill_id":         res.SkillID,
		"xp_gained":        res.XPGained,
		"total_xp":         res.TotalXP,
		"level":            res.NewLevel,
		"streak":           res.NewStreak,
		"mastery_level":    res.MasteryLevel,
		"xp_to_next_level": res.XPToNextLevel,
	})
	if res.LeveledUp {
		n.metrics.IncLevelUp()
		n.send(ctx, res.UserID, realtime.SSEEventLevelUp, map[string]any{
			"skill_id":  res.SkillID,
			"old_level": res.OldLevel,
			"new_level": res.NewLevel,
		})
	}
	if res.StreakMilestone {
		n.metrics.IncStreakMilestone()
		n.send(ctx, res.UserID, realtime.SSEEventStreakMilestone, map[string]any{
			"skill_id": res.SkillID,
			"streak":   res.NewStreak,
		})
	}
}

func (n *progressNotifier) AchievementsUnlocked(ctx context.Context, userID uuid.UUID, defs []achievement.Definition) {
	for _, d := range defs {
		n.metrics.IncAchievement(d.ID)
		n.send(ctx, userID, realtime.SSEEventAchievementUnlocked, map[string]any{"achievement": d})
	}
}

func (n *progressNotifier) AssessmentCompleted(ctx context.Context, userID uuid.UUID, sub *assessment.Submission) {
	if sub == nil {
		return
	}
	n.metrics.IncAssessment(assessmentOutcome(sub.Score))
	n.send(ctx, userID, realtime.SSEEventAssessmentCompleted, map[string]any{
		"assessment_id":   sub.AssessmentID,
		"skill_id":        sub.SkillID,
		"score":           sub.Score,
		"points_earned":   sub.PointsEarned,
		"points_possible": sub.PointsPossible,
		"xp_earned":       sub.XPEarned,
		"leveled_up":      sub.LeveledUp,
	})
}

func assessmentOutcome(score float64) string {
	switch {
	case score >= 1:
		return "perfect"
	case score >= passingScore:
		return "passed"
	default:
		return "failed"
	}
}
