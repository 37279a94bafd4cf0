package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/dberr"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const (
	MinLevel         = 1
	MaxLevel         = 5
	MinQuestionCount = 1
	MaxQuestionCount = 20

	minTimeLimitSeconds      = 300
	timeLimitPerQuestionSecs = 120
	defaultHistoryLimit      = 50
)

var (
	ErrInvalidLevel         = errors.New("level must be between 1 and 5")
	ErrInvalidQuestionCount = errors.New("question count must be between 1 and 20")
	ErrInvalidTimeSpent     = errors.New("time spent must be non-negative")
	ErrAssessmentExpired    = errors.New("assessment has expired")
	ErrAlreadySubmitted     = errors.New("assessment was already submitted")
)

type Store interface {
	GetSkill(ctx context.Context, skillID uuid.UUID) (*types.Skill, error)
	GetSkills(ctx context.Context, skillIDs []uuid.UUID) ([]*types.Skill, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*types.Assessment, error)
	CreateAssessment(ctx context.Context, row *types.Assessment) (*types.Assessment, error)
	CreateAssessmentResult(ctx context.Context, row *types.AssessmentResult) (*types.AssessmentResult, error)
	HasAssessmentResult(ctx context.Context, assessmentID uuid.UUID) (bool, error)
	ListRecentResults(ctx context.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error)
}

// ProgressUpdater must call UpdateInput.Prepare inside the transaction that
// writes the progress row.
type ProgressUpdater interface {
	UpdateProgress(ctx context.Context, in progress.UpdateInput) (*progress.UpdateResult, error)
}

type AchievementChecker interface {
	Check(ctx context.Context, userID uuid.UUID, trigger achievement.Trigger, data map[string]any) ([]achievement.Definition, error)
}

// Notifier receives the outcome of a submission. Implementations must not block.
type Notifier interface {
	ProgressChanged(ctx context.Context, res *progress.UpdateResult)
	AchievementsUnlocked(ctx context.Context, userID uuid.UUID, defs []achievement.Definition)
	AssessmentCompleted(ctx context.Context, userID uuid.UUID, sub *Submission)
}

type Engine struct {
	store        Store
	bank         *Bank
	progress     ProgressUpdater
	achievements AchievementChecker
	notifier     Notifier
	log          *logger.Logger
	now          func() time.Time
	rng          func() *rand.Rand
}

func NewEngine(store Store, bank *Bank, prog ProgressUpdater, ach AchievementChecker, notifier Notifier, log *logger.Logger) *Engine {
	return &Engine{
		store:        store,
		bank:         bank,
		progress:     prog,
		achievements: ach,
		notifier:     notifier,
		log:          log.With("service", "AssessmentEngine"),
		now:          func() time.Time { return time.Now().UTC() },
		rng: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) WithSeed(seed uint64) *Engine {
	e.rng = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }
	return e
}

// Generated is what the client receives; answer keys are stripped.
type Generated struct {
	ID        uuid.UUID              `json:"id"`
	SkillID   uuid.UUID              `json:"skill_id"`
	SkillName string                 `json:"skill_name"`
	Level     int                    `json:"level"`
	TimeLimit int                    `json:"time_limit"`
	Questions []types.PublicQuestion `json:"questions"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

func TimeLimitFor(questionCount int) int {
	return max(minTimeLimitSeconds, questionCount*timeLimitPerQuestionSecs)
}

func (e *Engine) Generate(ctx context.Context, userID, skillID uuid.UUID, level, questionCount int) (*Generated, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, apierr.BadRequest("invalid_level", ErrInvalidLevel)
	}
	if questionCount < MinQuestionCount || questionCount > MaxQuestionCount {
		return nil, apierr.BadRequest("invalid_question_count", ErrInvalidQuestionCount)
	}
	sk, err := e.store.GetSkill(ctx, skillID)
	if err != nil {
		return nil, apierr.Internal("load_skill_failed", err)
	}
	if sk == nil {
		return nil, apierr.NotFound("skill_not_found")
	}

	questions := e.bank.Build(sk, level, questionCount, e.rng())
	raw, err := json.Marshal(questions)
	if err != nil {
		return nil, apierr.Internal("encode_questions_failed", err)
	}
	row, err := e.store.CreateAssessment(ctx, &types.Assessment{
		ID:        uuid.New(),
		UserID:    userID,
		SkillID:   sk.ID,
		Level:     level,
		Questions: raw,
		TimeLimit: TimeLimitFor(questionCount),
		CreatedAt: e.now(),
	})
	if err != nil {
		e.log.Error("Failed to create assessment", "error", err, "skill_id", sk.ID.String())
		return nil, apierr.Internal("create_assessment_failed", err)
	}

	public := make([]types.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return &Generated{
		ID:        row.ID,
		SkillID:   sk.ID,
		SkillName: sk.Name,
		Level:     level,
		TimeLimit: row.TimeLimit,
		Questions: public,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt(),
	}, nil
}

type QuestionResult struct {
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
	Correct      bool   `json:"correct"`
	PointsEarned int    `json:"points_earned"`
	Points       int    `json:"points"`
	Explanation  string `json:"explanation,omitempty"`
}

type Submission struct {
	ResultID       uuid.UUID                `json:"result_id"`
	AssessmentID   uuid.UUID                `json:"assessment_id"`
	SkillID        uuid.UUID                `json:"skill_id"`
	Score          float64                  `json:"score"`
	PointsEarned   int                      `json:"points_earned"`
	PointsPossible int                      `json:"points_possible"`
	TimeSpent      int                      `json:"time_spent"`
	XPEarned       int                      `json:"xp_earned"`
	LeveledUp      bool                     `json:"leveled_up"`
	NewLevel       int                      `json:"new_level"`
	Results        []QuestionResult         `json:"results"`
	Progress       *progress.UpdateResult   `json:"progress"`
	Achievements   []achievement.Definition `json:"achievements"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// Grade scores answers against the stored questions. Answers for unknown
// question ids are dropped; the first answer per question wins.
func Grade(questions []types.Question, answers []types.Answer) (results []QuestionResult, earned, possible int) {
	given := make(map[string]string, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.QuestionID)
		if _, seen := given[id]; !seen {
			given[id] = a.Answer
		}
	}
	results = make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		possible += q.Points
		ans, ok := given[q.ID]
		r := QuestionResult{QuestionID: q.ID, Answer: ans, Points: q.Points, Explanation: q.Explanation}
		if ok && answersMatch(ans, q.CorrectAnswer) {
			r.Correct = true
			r.PointsEarned = q.Points
			earned += q.Points
		}
		results = append(results, r)
	}
	return results, earned, possible
}

func answersMatch(given, want string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(want))
}

func AverageDifficulty(questions []types.Question) float64 {
	if len(questions) == 0 {
		return 0
	}
	sum := 0
	for _, q := range questions {
		sum += q.Difficulty
	}
	return float64(sum) / float64(len(questions))
}

func (e *Engine) Submit(ctx context.Context, userID, assessmentID uuid.UUID, answers []types.Answer, totalTime int) (*Submission, error) {
	if totalTime < 0 {
		return nil, apierr.BadRequest("invalid_time_spent", ErrInvalidTimeSpent)
	}
	a, err := e.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, apierr.Internal("load_assessment_failed", err)
	}
	if a == nil || a.UserID != userID {
		return nil, apierr.NotFound("assessment_not_found")
	}
	now := e.now()
	if a.Expired(now) {
		return nil, apierr.Gone("assessment_expired", ErrAssessmentExpired)
	}
	done, err := e.store.HasAssessmentResult(ctx, a.ID)
	if err != nil {
		return nil, apierr.Internal("load_assessment_failed", err)
	}
	if done {
		return nil, apierr.Conflict("assessment_already_submitted", ErrAlreadySubmitted)
	}

	questions, err := a.DecodeQuestions()
	if err != nil {
		return nil, apierr.Internal("decode_questions_failed", err)
	}
	results, earned, possible := Grade(questions, answers)
	score := 0.0
	if possible > 0 {
		score = float64(earned) / float64(possible)
	}

	rawAnswers, err := json.Marshal(answers)
	if err != nil {
		return nil, apierr.Internal("encode_answers_failed", err)
	}

	// The result row is written in the same locked transaction as the progress
	// row, so a failed progress write leaves the assessment open for a retry.
	var (
		row *types.AssessmentResult
		xp  int
	)
	upd, err := e.progress.UpdateProgress(ctx, progress.UpdateInput{
		UserID:           userID,
		SkillID:          a.SkillID,
		StreakMaintained: true,
		Score:            &score,
		Prepare: func(ctx context.Context, streak int) (int, error) {
			xp = progress.CalculateXP(progress.XPInput{
				Difficulty: AverageDifficulty(questions),
				Accuracy:   score,
				TimeSpent:  float64(totalTime),
				MaxTime:    float64(a.TimeLimit),
				Streak:     streak,
			})
			created, err := e.store.CreateAssessmentResult(ctx, &types.AssessmentResult{
				ID:             uuid.New(),
				AssessmentID:   a.ID,
				UserID:         userID,
				SkillID:        a.SkillID,
				Answers:        rawAnswers,
				Score:          score,
				PointsEarned:   earned,
				PointsPossible: possible,
				TimeSpent:      totalTime,
				XPEarned:       xp,
				CompletedAt:    now,
			})
			if err != nil {
				// a concurrent submit may have won the unique index
				if dberr.IsUniqueViolation(err) {
					return 0, apierr.Conflict("assessment_already_submitted", ErrAlreadySubmitted)
				}
				e.log.Error("Failed to store assessment result", "error", err, "assessment_id", a.ID.String())
				return 0, apierr.Internal("store_result_failed", err)
			}
			row = created
			return xp, nil
		},
	})
	if err != nil {
		return nil, err
	}

	unlocked, err := e.achievements.Check(ctx, userID, achievement.TriggerAssessmentCompleted, map[string]any{
		"assessment_id": a.ID.String(),
		"score":         score,
		"xp_earned":     xp,
	})
	if err != nil {
		// grants are idempotent; a later check picks these up
		e.log.Warn("Achievement check failed after submission", "error", err, "assessment_id", a.ID.String())
		unlocked = nil
	}

	sub := &Submission{
		ResultID:       row.ID,
		AssessmentID:   a.ID,
		SkillID:        a.SkillID,
		Score:          score,
		PointsEarned:   earned,
		PointsPossible: possible,
		TimeSpent:      totalTime,
		XPEarned:       xp,
		LeveledUp:      upd.LeveledUp,
		NewLevel:       upd.NewLevel,
		Results:        results,
		Progress:       upd,
		Achievements:   unlocked,
		CompletedAt:    row.CompletedAt,
	}
	if sub.Achievements == nil {
		sub.Achievements = []achievement.Definition{}
	}

	if e.notifier != nil {
		e.notifier.ProgressChanged(ctx, upd)
		if len(unlocked) > 0 {
			e.notifier.AchievementsUnlocked(ctx, userID, unlocked)
		}
		e.notifier.AssessmentCompleted(ctx, userID, sub)
	}
	return sub, nil
}

type HistoryItem struct {
	*types.AssessmentResult
	SkillName string `json:"skill_name"`
}

// History lists the user's results, newest first.
func (e *Engine) History(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryItem, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	rows, err := e.store.ListRecentResults(ctx, userID, limit)
	if err != nil {
		return nil, apierr.Internal("load_history_failed", fmt.Errorf("list results: %w", err))
	}
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, r := range rows {
		if !seen[r.SkillID] {
			seen[r.SkillID] = true
			ids = append(ids, r.SkillID)
		}
	}
	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		skills, err := e.store.GetSkills(ctx, ids)
		if err != nil {
			return nil, apierr.Internal("load_history_failed", fmt.Errorf("load skills: %w", err))
		}
		for _, s := range skills {
			names[s.ID] = s.Name
		}
	}
	out := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryItem{AssessmentResult: r, SkillName: names[r.SkillID]})
	}
	return out, nil
}
