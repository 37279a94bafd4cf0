package progress

import "time"

const day = 24 * time.Hour

// DaysBetween counts whole elapsed days; both times are compared in UTC.
func DaysBetween(last, now time.Time) int {
	if last.IsZero() {
		return -1
	}
	d := now.UTC().Sub(last.UTC())
	if d < 0 {
		return 0
	}
	return int(d / day)
}

// CalculateStreak applies the continuity table:
//
//	0 days            -> unchanged
//	1 day, maintained -> +1
//	1 day, broken     -> 1
//	more than 1 day   -> 1
//
// A row that never had activity starts at 1.
func CalculateStreak(current int, lastActivity, now time.Time, maintained bool) int {
	days := DaysBetween(lastActivity, now)
	switch {
	case days < 0:
		return 1
	case days == 0:
		if current < 1 {
			return 1
		}
		return current
	case days == 1 && maintained:
		return current + 1
	default:
		return 1
	}
}

var streakMilestones = []int{3, 7, 14, 30, 60, 100}

// IsStreakMilestone reports streak lengths worth celebrating: the fixed
// milestones, then every 100 days.
func IsStreakMilestone(streak int) bool {
	for _, m := range streakMilestones {
		if streak == m {
			return true
		}
	}
	return streak > 100 && streak%100 == 0
}
