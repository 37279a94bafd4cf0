package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/modules/assessment"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type AssessmentService interface {
	Generate(ctx context.Context, userID, skillID uuid.UUID, level, questionCount int) (*assessment.Generated, error)
	Submit(ctx context.Context, userID, assessmentID uuid.UUID, answers []types.Answer, totalTime int) (*assessment.Submission, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]assessment.HistoryItem, error)
}

type assessmentService struct {
	log    *logger.Logger
	engine *assessment.Engine
}

func NewAssessmentService(log *logger.Logger, engine *assessment.Engine) AssessmentService {
	return &assessmentService{log: log.With("service", "AssessmentService"), engine: engine}
}

func (s *assessmentService) Generate(ctx context.Context, userID, skillID uuid.UUID, level, questionCount int) (*assessment.Generated, error) {
	ctx, span := observability.StartSpan(ctx, "assessment.generate",
		attribute.String("skill_id", skillID.String()),
		attribute.Int("level", level),
		attribute.Int("question_count", questionCount),
	)
	defer span.End()
	out, err := s.engine.Generate(ctx, userID, skillID, level, questionCount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (s *assessmentService) Submit(ctx context.Context, userID, assessmentID uuid.UUID, answers []types.Answer, totalTime int) (*assessment.Submission, error) {
	ctx, span := observability.StartSpan(ctx, "assessment.submit",
		attribute.String("assessment_id", assessmentID.String()),
		attribute.Int("answers", len(answers)),
	)
	defer span.End()
	sub, err := s.engine.Submit(ctx, userID, assessmentID, answers, totalTime)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("score", sub.Score),
		attribute.Int("xp_earned", sub.XPEarned),
		attribute.Int("achievements_unlocked", len(sub.Achievements)),
	)
	return sub, nil
}

func (s *assessmentService) History(ctx context.Context, userID uuid.UUID, limit int) ([]assessment.HistoryItem, error) {
	return s.engine.History(ctx, userID, limit)
}
