package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

// Gateway is the single persistence entry point used by the engines. Calls made
// with a context returned inside InTx share that transaction.
type Gateway struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
}

type txKey struct{}

func NewGateway(db *gorm.DB, log *logger.Logger, set repos.Set) *Gateway {
	return &Gateway{db: db, log: log.With("service", "Gateway"), repos: set}
}

func txFrom(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

func (g *Gateway) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: txFrom(ctx)}
}

// InTx runs fn inside one transaction; fn must use the context it is given.
// Nested calls join the outer transaction.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Users

func (g *Gateway) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return g.repos.Users.GetByID(g.dbc(ctx), userID)
}

// Skills

func (g *Gateway) GetSkill(ctx context.Context, skillID uuid.UUID) (*types.Skill, error) {
	return g.repos.Skills.GetByID(g.dbc(ctx), skillID)
}

func (g *Gateway) GetSkills(ctx context.Context, skillIDs []uuid.UUID) ([]*types.Skill, error) {
	return g.repos.Skills.GetByIDs(g.dbc(ctx), skillIDs)
}

// Progress

func (g *Gateway) GetProgress(ctx context.Context, userID, skillID uuid.UUID) (*types.UserProgress, error) {
	return g.repos.Progress.Get(g.dbc(ctx), userID, skillID)
}

func (g *Gateway) UpsertProgress(ctx context.Context, row *types.UserProgress) error {
	return g.repos.Progress.Upsert(g.dbc(ctx), row)
}

func (g *Gateway) ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.UserProgress, error) {
	return g.repos.Progress.ListByUser(g.dbc(ctx), userID)
}

// Assessments

func (g *Gateway) GetAssessment(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	return g.repos.Assessments.GetByID(g.dbc(ctx), id)
}

func (g *Gateway) CreateAssessment(ctx context.Context, row *types.Assessment) (*types.Assessment, error) {
	return g.repos.Assessments.Create(g.dbc(ctx), row)
}

func (g *Gateway) CreateAssessmentResult(ctx context.Context, row *types.AssessmentResult) (*types.AssessmentResult, error) {
	return g.repos.Assessments.CreateResult(g.dbc(ctx), row)
}

func (g *Gateway) HasAssessmentResult(ctx context.Context, assessmentID uuid.UUID) (bool, error) {
	return g.repos.Assessments.HasResult(g.dbc(ctx), assessmentID)
}

func (g *Gateway) GetAssessmentResults(ctx context.Context, userID uuid.UUID) ([]*types.AssessmentResult, error) {
	return g.repos.Assessments.ListResultsByUser(g.dbc(ctx), userID, 0)
}

func (g *Gateway) ListRecentResults(ctx context.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error) {
	return g.repos.Assessments.ListResultsByUser(g.dbc(ctx), userID, limit)
}

// Achievements

func (g *Gateway) SeedAchievements(ctx context.Context, rows []*types.Achievement) error {
	return g.repos.Achievements.UpsertCatalog(g.dbc(ctx), rows)
}

func (g *Gateway) GetGrantedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	return g.repos.Achievements.GrantedIDs(g.dbc(ctx), userID)
}

func (g *Gateway) ListGrantedAchievements(ctx context.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	return g.repos.Achievements.ListGranted(g.dbc(ctx), userID)
}

func (g *Gateway) GrantAchievementIfAbsent(ctx context.Context, userID uuid.UUID, achievementID string, at time.Time) (bool, error) {
	return g.repos.Achievements.GrantIfAbsent(g.dbc(ctx), userID, achievementID, at)
}

func (g *Gateway) RecomputeAndPersistTotalPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	return g.repos.Achievements.RecomputeTotalPoints(g.dbc(ctx), userID)
}
