package progress

import "math"

const (
	baseXPPerDifficulty = 100
	maxAccuracyBonus    = 0.5
	maxTimeBonus        = 0.2
	streakBonusPerDay   = 0.1
	maxStreakBonus      = 1.0

	// DefaultMaxTime is the time ceiling, in seconds, used when the caller has
	// no assessment-specific limit.
	DefaultMaxTime = 300.0
)

// XPInput carries the signals of one XP-granting event.
type XPInput struct {
	Difficulty float64 // average question difficulty
	Accuracy   float64 // 0..1
	TimeSpent  float64 // seconds
	MaxTime    float64 // seconds; <= 0 disables the time bonus
	Streak     int     // current day streak for the skill
}

// CalculateXP is floor(base * (1 + accuracy + time + streak bonuses)).
// Out-of-range inputs are clamped so the result is never negative.
func CalculateXP(in XPInput) int {
	difficulty := math.Max(0, finite(in.Difficulty))
	accuracy := clamp01(finite(in.Accuracy))

	base := difficulty * baseXPPerDifficulty
	accuracyBonus := accuracy * maxAccuracyBonus

	timeBonus := 0.0
	if maxTime := finite(in.MaxTime); maxTime > 0 {
		spent := math.Max(0, finite(in.TimeSpent))
		timeBonus = math.Max(0, 1-spent/maxTime) * maxTimeBonus
	}

	streakBonus := 0.0
	if in.Streak > 0 {
		streakBonus = math.Min(float64(in.Streak)*streakBonusPerDay, maxStreakBonus)
	}

	xp := math.Floor(base * (1 + accuracyBonus + timeBonus + streakBonus))
	if xp < 0 || math.IsNaN(xp) {
		return 0
	}
	return int(xp)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
