package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillforge-backend/internal/data/store"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/realtime"
)

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Metadata struct {
		Timestamp time.Time `json:"timestamp"`
		Version   string    `json:"version"`
		ErrorCode string    `json:"errorCode"`
	} `json:"metadata"`
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)

	cfg := Config{
		JWTSecretKey:     "test-secret",
		AccessTokenTTL:   time.Hour,
		ActivityTimezone: "UTC",
		SSEHeartbeat:     time.Minute,
	}
	metrics := observability.NewMetrics()
	hub := realtime.NewSSEHub(log, cfg.SSEHeartbeat)
	reposet := repos.NewSet(db, log)
	gateway := store.NewGateway(db, log, reposet)

	svcs, err := wireServices(log, cfg, reposet, gateway, Clients{}, hub, metrics)
	require.NoError(t, err)
	require.NoError(t, seed(context.Background(), log, svcs))

	server := wireServer(log, cfg, wireHandlers(log, db, svcs, hub, metrics), wireMiddleware(log, svcs), metrics)
	return &testServer{t: t, db: db, engine: server.Engine, metrics: metrics}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) metricsText() string {
	s.t.Helper()
	var buf bytes.Buffer
	require.NoError(s.t, s.metrics.WritePrometheus(&buf))
	return buf.String()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

type authPayload struct {
	User        types.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

func (s *testServer) register(email, username string) authPayload {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(s.t, env.Success)
	return decode[authPayload](s.t, env.Data)
}

func (s *testServer) firstSkill() types.Skill {
	s.t.Helper()
	rec, env := s.do(http.MethodGet, "/api/skills", "", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	out := decode[struct {
		Skills []types.Skill `json:"skills"`
	}](s.t, env.Data)
	require.NotEmpty(s.t, out.Skills)
	return out.Skills[0]
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ada@example.com", "ada")
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "user", reg.User.Role)

	rec, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ADA@example.com", "username": "other", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "email_taken", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authPayload](t, env.Data)

	rec, env = s.do(http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User types.User `json:"user"`
	}](t, env.Data)
	assert.Equal(t, reg.User.ID, me.User.ID)
	assert.Equal(t, "1.0.0", env.Metadata.Version)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/progress", "/api/achievements", "/api/users/me/stats", "/api/events/stream"} {
		rec, env := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "unauthorized", env.Metadata.ErrorCode, path)
	}
	rec, _ := s.do(http.MethodGet, "/api/progress", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSkillAdministrationRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	user := s.register("user@example.com", "plainuser")

	body := map[string]any{"name": "Rust", "category": "Programming", "difficulty_levels": 5}
	rec, env := s.do(http.MethodPost, "/api/skills", user.AccessToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Metadata.ErrorCode)

	admin := s.register("admin@example.com", "admin")
	require.NoError(t, s.db.Model(&types.User{}).Where("id = ?", admin.User.ID).Update("role", "admin").Error)
	rec, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[authPayload](t, env.Data).AccessToken

	rec, env = s.do(http.MethodPost, "/api/skills", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Skill types.Skill `json:"skill"`
	}](t, env.Data).Skill

	rec, env = s.do(http.MethodPost, "/api/skills", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "skill_name_taken", env.Metadata.ErrorCode)

	rec, _ = s.do(http.MethodGet, "/api/skills/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/skills/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/skills/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "skill_not_found", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodGet, "/api/skills/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", env.Metadata.ErrorCode)
}

func TestAssessmentRoundTrip(t *testing.T) {
	s := newTestServer(t)
	user := s.register("learner@example.com", "learner")
	sk := s.firstSkill()

	rec, env := s.do(http.MethodPost, "/api/assessments/generate", user.AccessToken, map[string]any{
		"skill_id": sk.ID, "level": 9, "question_count": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_level", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, "/api/assessments/generate", user.AccessToken, map[string]any{
		"skill_id": sk.ID, "level": 2, "question_count": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, string(env.Data), "correct_answer")
	gen := decode[struct {
		Assessment struct {
			ID        uuid.UUID `json:"id"`
			TimeLimit int       `json:"time_limit"`
			Questions []struct {
				ID string `json:"id"`
			} `json:"questions"`
		} `json:"assessment"`
	}](t, env.Data).Assessment
	require.Len(t, gen.Questions, 3)
	assert.Equal(t, 360, gen.TimeLimit)

	var row types.Assessment
	require.NoError(t, s.db.First(&row, "id = ?", gen.ID).Error)
	questions, err := row.DecodeQuestions()
	require.NoError(t, err)
	answers := make([]types.Answer, 0, len(questions))
	for _, q := range questions {
		answers = append(answers, types.Answer{QuestionID: q.ID, Answer: "  " + q.CorrectAnswer + " "})
	}

	submitPath := "/api/assessments/" + gen.ID.String() + "/submit"
	rec, env = s.do(http.MethodPost, submitPath, user.AccessToken, map[string]any{"answers": answers, "time_spent": 120})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := decode[struct {
		Score        float64 `json:"score"`
		XPEarned     int     `json:"xp_earned"`
		Achievements []struct {
			ID string `json:"id"`
		} `json:"achievements"`
	}](t, env.Data)
	assert.InDelta(t, 1.0, sub.Score, 1e-9)
	assert.Positive(t, sub.XPEarned)
	ids := map[string]bool{}
	for _, a := range sub.Achievements {
		ids[a.ID] = true
	}
	assert.True(t, ids["first_steps"])
	assert.True(t, ids["perfectionist"])

	rec, env = s.do(http.MethodPost, submitPath, user.AccessToken, map[string]any{"answers": answers, "time_spent": 120})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "assessment_already_submitted", env.Metadata.ErrorCode)

	other := s.register("other@example.com", "otheruser")
	rec, _ = s.do(http.MethodPost, submitPath, other.AccessToken, map[string]any{"answers": answers, "time_spent": 120})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/assessments/history", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		History []json.RawMessage `json:"history"`
	}](t, env.Data).History
	assert.Len(t, history, 1)

	rec, env = s.do(http.MethodGet, "/api/progress/"+sk.ID.String(), user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[struct {
		Progress struct {
			XP                   int `json:"xp"`
			AssessmentsCompleted int `json:"assessments_completed"`
		} `json:"progress"`
	}](t, env.Data).Progress
	assert.Equal(t, sub.XPEarned, prog.XP)
	assert.Equal(t, 1, prog.AssessmentsCompleted)

	rec, env = s.do(http.MethodGet, "/api/users/me/stats", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		User  types.User `json:"user"`
		Stats struct {
			AssessmentCount int `json:"assessment_count"`
			PerfectScores   int `json:"perfect_scores"`
		} `json:"stats"`
		AchievementsEarned int `json:"achievements_earned"`
	}](t, env.Data)
	assert.Equal(t, 1, stats.Stats.AssessmentCount)
	assert.Equal(t, 1, stats.Stats.PerfectScores)
	assert.GreaterOrEqual(t, stats.AchievementsEarned, 2)

	rec, env = s.do(http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[struct {
		Entries []struct {
			Rank        int       `json:"rank"`
			UserID      uuid.UUID `json:"user_id"`
			TotalPoints int       `json:"total_points"`
		} `json:"entries"`
	}](t, env.Data).Entries
	require.NotEmpty(t, board)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, user.User.ID, board[0].UserID)
	assert.Equal(t, stats.User.TotalPoints, board[0].TotalPoints)
	assert.Positive(t, board[0].TotalPoints)

	assert.Contains(t, s.metricsText(), `sf_assessments_submitted_total{outcome="perfect"} 1`)
}

func TestAwardXPValidation(t *testing.T) {
	s := newTestServer(t)
	user := s.register("xp@example.com", "xpuser")
	sk := s.firstSkill()
	path := "/api/progress/" + sk.ID.String() + "/xp"

	rec, env := s.do(http.MethodPost, path, user.AccessToken, map[string]any{"xp_gained": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_xp", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, path, user.AccessToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_xp", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, "/api/progress/"+uuid.NewString()+"/xp", user.AccessToken, map[string]any{"xp_gained": 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "skill_not_found", env.Metadata.ErrorCode)

	rec, env = s.do(http.MethodPost, path, user.AccessToken, map[string]any{"xp_gained": 250})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	award := decode[struct {
		Progress struct {
			TotalXP  int `json:"total_xp"`
			NewLevel int `json:"new_level"`
		} `json:"progress"`
	}](t, env.Data)
	assert.Equal(t, 250, award.Progress.TotalXP)
	assert.Contains(t, s.metricsText(), `sf_xp_awarded_total{skill_id="`+sk.ID.String()+`"} 250`)

	rec, env = s.do(http.MethodGet, "/api/progress", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Progress []json.RawMessage `json:"progress"`
	}](t, env.Data).Progress
	assert.Len(t, list, 1)
}

func TestAchievementEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := s.register("ach@example.com", "achiever")

	rec, env := s.do(http.MethodGet, "/api/achievements/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	catalog := decode[struct {
		Achievements []json.RawMessage `json:"achievements"`
	}](t, env.Data).Achievements
	assert.NotEmpty(t, catalog)

	rec, env = s.do(http.MethodPost, "/api/achievements/check", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unlocked":[]}`, string(env.Data))

	rec, env = s.do(http.MethodGet, "/api/achievements", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Earned int `json:"earned"`
		Total  int `json:"total"`
	}](t, env.Data)
	assert.Equal(t, 0, list.Earned)
	assert.Equal(t, len(catalog), list.Total)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/skills", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sf_api_requests_total{method="GET",route="/api/skills",status="200"} 1`)
}
