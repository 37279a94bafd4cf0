package achievement

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillforge-backend/internal/domain"
)

// Stats is the aggregate snapshot every condition is evaluated against.
type Stats struct {
	AssessmentCount   int        `json:"assessment_count"`
	HighestScore      float64    `json:"highest_score"`
	PerfectScores     int        `json:"perfect_scores"`
	AverageScore      float64    `json:"average_score"`
	SkillCategories   int        `json:"skill_categories"`
	UniqueSkills      int        `json:"unique_skills"`
	MaxSkillLevel     int        `json:"max_skill_level"`
	MaxStreak         int        `json:"max_streak"`
	TotalXP           int        `json:"total_xp"`
	MaxMastery        int        `json:"max_mastery"`
	FastestCompletion int        `json:"fastest_completion"`
	LastCompletedAt   *time.Time `json:"last_completed_at,omitempty"`
}

// BuildStats folds results, progress rows and the skills they reference into a
// snapshot. skills may omit ids; those still count as unique skills.
func BuildStats(results []*types.AssessmentResult, progress []*types.UserProgress, skills []*types.Skill) Stats {
	var s Stats

	skillIDs := map[uuid.UUID]bool{}
	sum := 0.0
	fastest := -1
	for _, r := range results {
		if r == nil {
			continue
		}
		s.AssessmentCount++
		sum += r.Score
		if r.Score > s.HighestScore {
			s.HighestScore = r.Score
		}
		if r.Score >= 1 {
			s.PerfectScores++
		}
		if r.TimeSpent >= 0 && (fastest < 0 || r.TimeSpent < fastest) {
			fastest = r.TimeSpent
		}
		if s.LastCompletedAt == nil || r.CompletedAt.After(*s.LastCompletedAt) {
			at := r.CompletedAt
			s.LastCompletedAt = &at
		}
		skillIDs[r.SkillID] = true
	}
	if s.AssessmentCount > 0 {
		s.AverageScore = sum / float64(s.AssessmentCount)
	}
	if fastest >= 0 {
		s.FastestCompletion = fastest
	}

	for _, p := range progress {
		if p == nil {
			continue
		}
		skillIDs[p.SkillID] = true
		s.TotalXP += p.XP
		s.MaxSkillLevel = max(s.MaxSkillLevel, p.Level)
		s.MaxStreak = max(s.MaxStreak, p.Streak)
		s.MaxMastery = max(s.MaxMastery, p.MasteryLevel)
	}
	s.UniqueSkills = len(skillIDs)

	categories := map[string]bool{}
	for _, sk := range skills {
		if sk != nil && skillIDs[sk.ID] && sk.Category != "" {
			categories[sk.Category] = true
		}
	}
	s.SkillCategories = len(categories)
	return s
}

// SkillIDs lists the distinct skills referenced by results and progress rows.
func SkillIDs(results []*types.AssessmentResult, progress []*types.UserProgress) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	add := func(id uuid.UUID) {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, r := range results {
		if r != nil {
			add(r.SkillID)
		}
	}
	for _, p := range progress {
		if p != nil {
			add(p.SkillID)
		}
	}
	return out
}
