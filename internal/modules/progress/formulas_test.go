package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateXP(t *testing.T) {
	cases := []struct {
		name string
		in   XPInput
		want int
	}{
		{"perfect instant", XPInput{Difficulty: 3, Accuracy: 1, TimeSpent: 0, MaxTime: 300}, 510},
		{"zero accuracy full time", XPInput{Difficulty: 2, Accuracy: 0, TimeSpent: 300, MaxTime: 300}, 200},
		{"half time", XPInput{Difficulty: 1, Accuracy: 0.5, TimeSpent: 150, MaxTime: 300}, 135},
		{"streak capped", XPInput{Difficulty: 1, Accuracy: 0, TimeSpent: 300, MaxTime: 300, Streak: 50}, 200},
		{"accuracy clamped", XPInput{Difficulty: 1, Accuracy: 4, TimeSpent: 300, MaxTime: 300}, 150},
		{"negative difficulty", XPInput{Difficulty: -2, Accuracy: 1, MaxTime: 300}, 0},
		{"no max time", XPInput{Difficulty: 1, Accuracy: 0, TimeSpent: 0, MaxTime: 0}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateXP(tc.in))
		})
	}
}

func TestCalculateXPMonotonicInAccuracy(t *testing.T) {
	prev := -1
	for a := 0.0; a <= 1.0; a += 0.05 {
		xp := CalculateXP(XPInput{Difficulty: 2, Accuracy: a, TimeSpent: 60, MaxTime: 300, Streak: 2})
		require.GreaterOrEqual(t, xp, prev)
		prev = xp
	}
}

func TestCalculateXPNonIncreasingInTimeSpent(t *testing.T) {
	const maxTime = 300.0
	prev := CalculateXP(XPInput{Difficulty: 3, Accuracy: 0.8, TimeSpent: 0, MaxTime: maxTime, Streak: 1})
	for spent := 5.0; spent <= 2*maxTime; spent += 5 {
		xp := CalculateXP(XPInput{Difficulty: 3, Accuracy: 0.8, TimeSpent: spent, MaxTime: maxTime, Streak: 1})
		require.LessOrEqual(t, xp, prev, "spent=%v", spent)
		prev = xp
	}
	atLimit := CalculateXP(XPInput{Difficulty: 3, Accuracy: 0.8, TimeSpent: maxTime, MaxTime: maxTime, Streak: 1})
	assert.Equal(t, atLimit, prev, "time bonus clamps to zero past the limit")
}

func TestCalculateLevel(t *testing.T) {
	cases := map[int]int{
		0:    1,
		99:   1,
		100:  2,
		399:  2,
		400:  3,
		899:  3,
		900:  4,
		2500: 6,
	}
	for xp, want := range cases {
		assert.Equal(t, want, CalculateLevel(xp), "xp=%d", xp)
	}
	assert.Equal(t, 1, CalculateLevel(-50))
}

func TestLevelMonotonicAndBounds(t *testing.T) {
	prev := 1
	for xp := 0; xp <= 20000; xp += 7 {
		l := CalculateLevel(xp)
		require.GreaterOrEqual(t, l, prev)
		require.LessOrEqual(t, XPForLevel(l), xp)
		require.Greater(t, XPForNextLevel(l), xp)
		prev = l
	}
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 100, XPToNextLevel(0))
	assert.Equal(t, 1, XPToNextLevel(99))
	assert.Equal(t, 300, XPToNextLevel(100))
	assert.Equal(t, 0, LevelProgress(0))
	assert.Equal(t, 50, LevelProgress(250))
}

func TestCalculateStreak(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		current    int
		last       time.Time
		maintained bool
		want       int
	}{
		{"no history", 0, time.Time{}, true, 1},
		{"same day", 4, now.Add(-3 * time.Hour), true, 4},
		{"same day from zero", 0, now.Add(-time.Hour), false, 1},
		{"next day maintained", 4, now.Add(-30 * time.Hour), true, 5},
		{"next day not maintained", 4, now.Add(-30 * time.Hour), false, 1},
		{"gap", 9, now.Add(-72 * time.Hour), true, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateStreak(tc.current, tc.last, now, tc.maintained))
		})
	}
}

func TestIsStreakMilestone(t *testing.T) {
	for _, n := range []int{3, 7, 14, 30, 60, 100, 200, 300} {
		assert.True(t, IsStreakMilestone(n), "n=%d", n)
	}
	for _, n := range []int{0, 1, 2, 4, 8, 99, 150} {
		assert.False(t, IsStreakMilestone(n), "n=%d", n)
	}
}

func TestMasteryLevel(t *testing.T) {
	assert.Equal(t, 0, MasteryLevel(1, 0))
	assert.Equal(t, 22, MasteryLevel(3, 6))
	assert.Equal(t, 100, MasteryLevel(40, 90))
	assert.Equal(t, 50, MasteryLevel(11, 0))
}
