package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillforge-backend/internal/data/store"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
)

type recordingNotifier struct {
	mu        sync.Mutex
	progress  []*progress.UpdateResult
	unlocked  []achievement.Definition
	completed []*Submission
}

func (n *recordingNotifier) ProgressChanged(_ context.Context, res *progress.UpdateResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, res)
}

func (n *recordingNotifier) AchievementsUnlocked(_ context.Context, _ uuid.UUID, defs []achievement.Definition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocked = append(n.unlocked, defs...)
}

func (n *recordingNotifier) AssessmentCompleted(_ context.Context, _ uuid.UUID, sub *Submission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, sub)
}

type fixture struct {
	gw       *store.Gateway
	engine   *Engine
	notifier *recordingNotifier
	user     *types.User
	other    *types.User
	skill    *types.Skill
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	gw := store.NewGateway(db, log, repos.NewSet(db, log))
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	clock := &now
	tick := func() time.Time { return *clock }

	cat, err := achievement.DefaultCatalog()
	require.NoError(t, err)
	ach := achievement.NewEngine(gw, cat, time.UTC, log)
	require.NoError(t, ach.Seed(ctx))

	bank, err := DefaultBank()
	require.NoError(t, err)
	prog := progress.NewEngine(gw, log).WithClock(tick)
	n := &recordingNotifier{}

	return &fixture{
		gw:       gw,
		engine:   NewEngine(gw, bank, prog, ach, n, log).WithClock(tick).WithSeed(7),
		notifier: n,
		user:     testutil.SeedUser(t, ctx, db, "taker@example.com"),
		other:    testutil.SeedUser(t, ctx, db, "other@example.com"),
		skill:    testutil.SeedSkill(t, ctx, db, "Go", "Programming"),
		clock:    clock,
	}
}

func (f *fixture) correctAnswers(t *testing.T, id uuid.UUID) []types.Answer {
	t.Helper()
	a, err := f.gw.GetAssessment(context.Background(), id)
	require.NoError(t, err)
	qs, err := a.DecodeQuestions()
	require.NoError(t, err)
	out := make([]types.Answer, 0, len(qs))
	for _, q := range qs {
		out = append(out, types.Answer{QuestionID: q.ID, Answer: "  " + strings.ToUpper(q.CorrectAnswer) + " "})
	}
	return out
}

func TestGenerateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct{ level, count int }{{0, 5}, {6, 5}, {3, 0}, {3, 21}} {
		_, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, tc.level, tc.count)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err), "level=%d count=%d", tc.level, tc.count)
	}

	_, err := f.engine.Generate(ctx, f.user.ID, uuid.New(), 1, 5)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestGenerateStripsAnswers(t *testing.T) {
	f := newFixture(t)
	gen, err := f.engine.Generate(context.Background(), f.user.ID, f.skill.ID, 2, 8)
	require.NoError(t, err)

	assert.Len(t, gen.Questions, 8)
	assert.Equal(t, 960, gen.TimeLimit)
	assert.True(t, gen.ExpiresAt.Equal(gen.CreatedAt.Add(1920*time.Second)))

	raw, err := json.Marshal(gen)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_answer")
	assert.NotContains(t, string(raw), "explanation")
	for _, q := range gen.Questions {
		assert.Equal(t, 2, q.Difficulty)
		assert.Equal(t, 20, q.Points)
	}
}

func TestTimeLimitFor(t *testing.T) {
	assert.Equal(t, 300, TimeLimitFor(1))
	assert.Equal(t, 300, TimeLimitFor(2))
	assert.Equal(t, 360, TimeLimitFor(3))
	assert.Equal(t, 600, TimeLimitFor(5))
	assert.Equal(t, 2400, TimeLimitFor(20))
}

func TestSubmitPerfectRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 3, 5)
	require.NoError(t, err)
	*f.clock = f.clock.Add(2 * time.Minute)

	sub, err := f.engine.Submit(ctx, f.user.ID, gen.ID, f.correctAnswers(t, gen.ID), 120)
	require.NoError(t, err)

	assert.Equal(t, 1.0, sub.Score)
	assert.Equal(t, 150, sub.PointsEarned)
	assert.Equal(t, 150, sub.PointsPossible)
	want := progress.CalculateXP(progress.XPInput{Difficulty: 3, Accuracy: 1, TimeSpent: 120, MaxTime: 600})
	assert.Equal(t, want, sub.XPEarned)
	assert.True(t, sub.LeveledUp)
	assert.Equal(t, progress.CalculateLevel(want), sub.NewLevel)
	for _, r := range sub.Results {
		assert.True(t, r.Correct, r.QuestionID)
		assert.NotEmpty(t, r.Explanation)
	}

	got := make([]string, 0, len(sub.Achievements))
	for _, d := range sub.Achievements {
		got = append(got, d.ID)
	}
	assert.ElementsMatch(t, []string{"first_steps", "high_achiever", "perfectionist"}, got)

	row, err := f.gw.GetProgress(ctx, f.user.ID, f.skill.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, want, row.XP)
	assert.Equal(t, 1, row.AssessmentsCompleted)
	assert.Equal(t, 1, row.Streak)

	u, err := f.gw.GetUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+30+50, u.TotalPoints)

	assert.Len(t, f.notifier.progress, 1)
	assert.Len(t, f.notifier.unlocked, 3)
	assert.Len(t, f.notifier.completed, 1)
}

func TestSubmitExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 1, 5)
	require.NoError(t, err)
	require.Equal(t, 600, gen.TimeLimit)

	*f.clock = f.clock.Add(1201 * time.Second)
	_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, 60)
	require.Error(t, err)
	assert.Equal(t, http.StatusGone, apierr.StatusOf(err))
	assert.ErrorIs(t, err, ErrAssessmentExpired)

	done, err := f.gw.HasAssessmentResult(ctx, gen.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, f.notifier.completed)
}

func TestSubmitAtExactExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 1, 5)
	require.NoError(t, err)

	*f.clock = f.clock.Add(1200 * time.Second)
	_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, 60)
	require.NoError(t, err)
}

func TestSubmitRejectsForeignAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 1, 2)
	require.NoError(t, err)

	_, err = f.engine.Submit(ctx, f.other.ID, gen.ID, nil, 10)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))

	_, err = f.engine.Submit(ctx, f.user.ID, uuid.New(), nil, 10)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))

	_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, -1)
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 1, 2)
	require.NoError(t, err)
	_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, 30)
	require.NoError(t, err)

	_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, 30)
	assert.Equal(t, http.StatusConflict, apierr.StatusOf(err))
}

// failingProgressStore loses every progress write.
type failingProgressStore struct {
	*store.Gateway
}

func (failingProgressStore) UpsertProgress(context.Context, *types.UserProgress) error {
	return errors.New("disk full")
}

func TestSubmitRollsBackResultWhenProgressWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 2, 3)
	require.NoError(t, err)
	*f.clock = f.clock.Add(time.Minute)
	answers := f.correctAnswers(t, gen.ID)

	broken := progress.NewEngine(failingProgressStore{f.gw}, log).WithClock(func() time.Time { return *f.clock })
	failing := NewEngine(f.gw, f.engine.bank, broken, f.engine.achievements, f.notifier, log).WithClock(func() time.Time { return *f.clock })

	_, err = failing.Submit(ctx, f.user.ID, gen.ID, answers, 60)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusOf(err))

	done, err := f.gw.HasAssessmentResult(ctx, gen.ID)
	require.NoError(t, err)
	assert.False(t, done, "result row must not outlive the failed progress write")
	assert.Empty(t, f.notifier.completed)

	sub, err := f.engine.Submit(ctx, f.user.ID, gen.ID, answers, 60)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sub.Score)

	row, err := f.gw.GetProgress(ctx, f.user.ID, f.skill.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, sub.XPEarned, row.XP)
	assert.Equal(t, 1, row.AssessmentsCompleted)

	history, err := f.engine.History(ctx, f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sub.XPEarned, history[0].XPEarned)
}

func TestSubmitWithNoStoredQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.gw.CreateAssessment(ctx, &types.Assessment{
		ID:        uuid.New(),
		UserID:    f.user.ID,
		SkillID:   f.skill.ID,
		Level:     1,
		Questions: datatypes.JSON([]byte("[]")),
		TimeLimit: 300,
		CreatedAt: *f.clock,
	})
	require.NoError(t, err)

	sub, err := f.engine.Submit(ctx, f.user.ID, a.ID, []types.Answer{{QuestionID: "q1", Answer: "yes"}}, 30)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sub.Score)
	assert.Equal(t, 0, sub.PointsEarned)
	assert.Equal(t, 0, sub.PointsPossible)
	assert.Equal(t, 0, sub.XPEarned)
	assert.Empty(t, sub.Results)
}

func TestGradeDropsUnmatchedAnswers(t *testing.T) {
	qs := []types.Question{
		{ID: "q1", CorrectAnswer: "HAVING", Points: 10, Difficulty: 2},
		{ID: "q2", CorrectAnswer: "true", Points: 10, Difficulty: 4},
	}
	results, earned, possible := Grade(qs, []types.Answer{
		{QuestionID: "q1", Answer: " having"},
		{QuestionID: "q1", Answer: "WHERE"},
		{QuestionID: "q9", Answer: "true"},
	})
	assert.Equal(t, 10, earned)
	assert.Equal(t, 20, possible)
	require.Len(t, results, 2)
	assert.True(t, results[0].Correct)
	assert.False(t, results[1].Correct)
	assert.Equal(t, 3.0, AverageDifficulty(qs))
	assert.Equal(t, 0.0, AverageDifficulty(nil))
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		gen, err := f.engine.Generate(ctx, f.user.ID, f.skill.ID, 1, 1)
		require.NoError(t, err)
		*f.clock = f.clock.Add(time.Minute)
		_, err = f.engine.Submit(ctx, f.user.ID, gen.ID, nil, 30)
		require.NoError(t, err)
	}

	items, err := f.engine.History(ctx, f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Go", items[0].SkillName)
	assert.True(t, items[0].CompletedAt.After(items[2].CompletedAt))
}
