package progress

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillforge-backend/internal/data/store"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
)

type fixture struct {
	engine  *Engine
	gw      *store.Gateway
	userID  uuid.UUID
	skillID uuid.UUID
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "learner@example.com")
	s := testutil.SeedSkill(t, ctx, db, "Go", "Programming")

	gw := store.NewGateway(db, log, repos.NewSet(db, log))
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{gw: gw, userID: u.ID, skillID: s.ID, clock: &now}
	f.engine = NewEngine(gw, log).WithClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func TestUpdateProgressCreatesRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 150, StreakMaintained: true})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 0, res.OldStreak)
	assert.Equal(t, 1, res.NewStreak)
	assert.Equal(t, 150, res.TotalXP)
	assert.Equal(t, 7, res.MasteryLevel)

	row, err := f.gw.GetProgress(ctx, f.userID, f.skillID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 150, row.XP)
	assert.Equal(t, CalculateLevel(row.XP), row.Level)
	assert.Equal(t, 1, row.Streak)
	assert.True(t, row.LastActivity.Equal(*f.clock))
}

func TestUpdateProgressStreakAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 10, StreakMaintained: true}

	_, err := f.engine.UpdateProgress(ctx, in)
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	res, err := f.engine.UpdateProgress(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStreak, "same day keeps streak")

	f.advance(25 * time.Hour)
	res, err = f.engine.UpdateProgress(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewStreak)

	f.advance(24 * time.Hour)
	res, err = f.engine.UpdateProgress(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NewStreak)
	assert.True(t, res.StreakMilestone)

	f.advance(72 * time.Hour)
	res, err = f.engine.UpdateProgress(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewStreak)
	assert.Equal(t, 50, res.TotalXP)
}

func TestUpdateProgressRejectsNegativeXP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeXP)
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	row, err := f.gw.GetProgress(ctx, f.userID, f.skillID)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestUpdateProgressPrepareRunsInsideTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 40, StreakMaintained: true})
	require.NoError(t, err)
	f.advance(24 * time.Hour)

	conflict := apierr.Conflict("already_done", errors.New("already done"))
	_, err = f.engine.UpdateProgress(ctx, UpdateInput{
		UserID:           f.userID,
		SkillID:          f.skillID,
		StreakMaintained: true,
		Prepare: func(context.Context, int) (int, error) {
			return 0, conflict
		},
	})
	assert.Equal(t, http.StatusConflict, apierr.StatusOf(err))
	row, err := f.gw.GetProgress(ctx, f.userID, f.skillID)
	require.NoError(t, err)
	assert.Equal(t, 40, row.XP)
	assert.Equal(t, 1, row.Streak)

	seen := -1
	res, err := f.engine.UpdateProgress(ctx, UpdateInput{
		UserID:           f.userID,
		SkillID:          f.skillID,
		XPGained:         999,
		StreakMaintained: true,
		Prepare: func(_ context.Context, streak int) (int, error) {
			seen = streak
			return 25, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
	assert.Equal(t, 25, res.XPGained)
	assert.Equal(t, 65, res.TotalXP)
	assert.Equal(t, 2, res.NewStreak)
}

func TestUpdateProgressRunningAverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	score := func(v float64) *float64 { return &v }

	_, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 10, Score: score(1)})
	require.NoError(t, err)
	res, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 10, Score: score(0.5)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Progress.AssessmentsCompleted)
	assert.InDelta(t, 0.75, res.Progress.TotalScore, 1e-9)
}

func TestUpdateProgressConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.UpdateProgress(ctx, UpdateInput{UserID: f.userID, SkillID: f.skillID, XPGained: 25, StreakMaintained: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	row, err := f.gw.GetProgress(ctx, f.userID, f.skillID)
	require.NoError(t, err)
	assert.Equal(t, workers*25, row.XP)
	assert.Equal(t, CalculateLevel(workers*25), row.Level)
}

func TestSummaryForUntouchedSkill(t *testing.T) {
	f := newFixture(t)
	sum, err := f.engine.Get(context.Background(), f.userID, f.skillID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Level)
	assert.Equal(t, 100, sum.XPToNextLevel)
	assert.Equal(t, 0, sum.LevelProgress)
}
