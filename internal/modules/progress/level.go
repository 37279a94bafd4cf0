package progress

import "math"

const xpPerLevelUnit = 100

// CalculateLevel is floor(sqrt(xp/100)) + 1. Level 1 at zero XP, unbounded.
func CalculateLevel(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}
	n := int(math.Sqrt(float64(totalXP) / xpPerLevelUnit))
	// correct float rounding at perfect squares
	for (n+1)*(n+1)*xpPerLevelUnit <= totalXP {
		n++
	}
	for n > 0 && n*n*xpPerLevelUnit > totalXP {
		n--
	}
	return n + 1
}

// XPForLevel is the XP floor of level: (level-1)^2 * 100.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * xpPerLevelUnit
}

// XPForNextLevel is the XP floor of level+1: level^2 * 100.
func XPForNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * level * xpPerLevelUnit
}

// XPToNextLevel is never negative.
func XPToNextLevel(currentXP int) int {
	remaining := XPForNextLevel(CalculateLevel(currentXP)) - currentXP
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LevelProgress is the 0..100 share of the current level already earned.
func LevelProgress(currentXP int) int {
	level := CalculateLevel(currentXP)
	floor := XPForLevel(level)
	span := XPForNextLevel(level) - floor
	if span <= 0 {
		return 0
	}
	pct := (max(currentXP, 0) - floor) * 100 / span
	return min(max(pct, 0), 100)
}
