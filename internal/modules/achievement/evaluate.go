package achievement

import (
	"math"
	"time"

	domain "github.com/yungbote/skillforge-backend/internal/domain/achievement"
)

// Evaluate reports whether stats satisfy cond. Times are judged in loc.
func Evaluate(cond domain.Condition, s Stats, loc *time.Location) bool {
	switch cond.Type {
	case domain.KindAssessmentCount:
		return float64(s.AssessmentCount) >= cond.Value
	case domain.KindHighScore:
		return s.AssessmentCount > 0 && s.HighestScore >= cond.Value
	case domain.KindPerfectScore:
		return float64(s.PerfectScores) >= math.Max(cond.Value, 1)
	case domain.KindAverageScore:
		return s.AssessmentCount >= cond.MinAssessments && s.AssessmentCount > 0 && s.AverageScore >= cond.Value
	case domain.KindSkillCategories:
		return float64(s.SkillCategories) >= cond.Value
	case domain.KindUniqueSkills:
		return float64(s.UniqueSkills) >= cond.Value
	case domain.KindSkillLevel:
		return float64(s.MaxSkillLevel) >= cond.Value
	case domain.KindStreak:
		return float64(s.MaxStreak) >= cond.Value
	case domain.KindTotalXP:
		return float64(s.TotalXP) >= cond.Value
	case domain.KindMasteryLevel:
		return float64(s.MaxMastery) >= cond.Value
	case domain.KindFastCompletion:
		return s.AssessmentCount > 0 && float64(s.FastestCompletion) < cond.Value
	case domain.KindTimeBased:
		if s.LastCompletedAt == nil {
			return false
		}
		return InWindow(cond.Window, *s.LastCompletedAt, loc)
	default:
		return false
	}
}

// InWindow checks the hour of t in loc: night is [22:00, 06:00), morning is [05:00, 09:00).
func InWindow(window string, t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()
	switch window {
	case domain.WindowNight:
		return h >= 22 || h < 6
	case domain.WindowMorning:
		return h >= 5 && h < 9
	default:
		return false
	}
}

// Progress estimates how far stats are toward cond, in [0, 1].
func Progress(cond domain.Condition, s Stats, loc *time.Location) float64 {
	if Evaluate(cond, s, loc) {
		return 1
	}
	ratio := func(have, want float64) float64 {
		if want <= 0 {
			return 0
		}
		return math.Max(0, math.Min(1, have/want))
	}
	switch cond.Type {
	case domain.KindAssessmentCount:
		return ratio(float64(s.AssessmentCount), cond.Value)
	case domain.KindHighScore:
		return ratio(s.HighestScore, cond.Value)
	case domain.KindPerfectScore:
		return ratio(float64(s.PerfectScores), math.Max(cond.Value, 1))
	case domain.KindAverageScore:
		if cond.MinAssessments > 0 && s.AssessmentCount < cond.MinAssessments {
			return ratio(float64(s.AssessmentCount), float64(cond.MinAssessments))
		}
		return ratio(s.AverageScore, cond.Value)
	case domain.KindSkillCategories:
		return ratio(float64(s.SkillCategories), cond.Value)
	case domain.KindUniqueSkills:
		return ratio(float64(s.UniqueSkills), cond.Value)
	case domain.KindSkillLevel:
		return ratio(float64(s.MaxSkillLevel), cond.Value)
	case domain.KindStreak:
		return ratio(float64(s.MaxStreak), cond.Value)
	case domain.KindTotalXP:
		return ratio(float64(s.TotalXP), cond.Value)
	case domain.KindMasteryLevel:
		return ratio(float64(s.MaxMastery), cond.Value)
	default:
		return 0
	}
}
