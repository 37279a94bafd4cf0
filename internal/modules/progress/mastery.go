package progress

// MasteryLevel blends level and streak into 0..100, each half capped at 50.
func MasteryLevel(level, streak int) int {
	levelPart := min(max((level-1)*5, 0), 50)
	streakPart := min(max(streak*2, 0), 50)
	return min(max(levelPart+streakPart, 0), 100)
}
