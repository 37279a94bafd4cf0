package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const (
	keyLeaderboardPoints = "skillforge:leaderboard:points"
	keyLeaderboardInfo   = "skillforge:leaderboard:info"

	leaderboardTTL          = 10 * time.Minute
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	TotalPoints int       `json:"total_points"`
}

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	// PointsChanged refreshes one user's cached score.
	PointsChanged(ctx context.Context, userID uuid.UUID, total int)
}

type leaderboardService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	rdb      goredis.UniversalClient
}

// NewLeaderboardService caches rankings in a Redis sorted set when rdb is set;
// otherwise every read goes to the database.
func NewLeaderboardService(log *logger.Logger, userRepo repos.UserRepo, rdb goredis.UniversalClient) LeaderboardService {
	return &leaderboardService{
		log:      log.With("service", "LeaderboardService"),
		userRepo: userRepo,
		rdb:      rdb,
	}
}

type leaderboardInfo struct {
	Username string `json:"username"`
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if s.rdb != nil {
		entries, err := s.topFromCache(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.log.Warn("Leaderboard cache read failed; using database", "error", err)
		}
	}

	// the cache always holds the full top maxLeaderboardLimit
	users, err := s.userRepo.ListTopByPoints(dbctx.Context{Ctx: ctx}, maxLeaderboardLimit)
	if err != nil {
		return nil, apierr.Internal("leaderboard_failed", err)
	}
	out := make([]LeaderboardEntry, 0, min(limit, len(users)))
	for i, u := range users {
		if i >= limit {
			break
		}
		out = append(out, LeaderboardEntry{Rank: i + 1, UserID: u.ID, Username: u.Username, TotalPoints: u.TotalPoints})
	}
	if s.rdb != nil && len(users) > 0 {
		if err := s.warm(ctx, users); err != nil {
			s.log.Warn("Leaderboard cache warm failed", "error", err)
		}
	}
	return out, nil
}

func (s *leaderboardService) topFromCache(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, keyLeaderboardPoints, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(zs))
	for _, z := range zs {
		if m, ok := z.Member.(string); ok {
			ids = append(ids, m)
		}
	}
	infos, err := s.rdb.HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		m, _ := z.Member.(string)
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		e := LeaderboardEntry{Rank: len(out) + 1, UserID: id, TotalPoints: int(z.Score)}
		if i < len(infos) {
			if raw, ok := infos[i].(string); ok {
				var info leaderboardInfo
				if json.Unmarshal([]byte(raw), &info) == nil {
					e.Username = info.Username
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *leaderboardService) warm(ctx context.Context, users []*types.User) error {
	pipe := s.rdb.Pipeline()
	for _, u := range users {
		info, err := json.Marshal(leaderboardInfo{Username: u.Username})
		if err != nil {
			return fmt.Errorf("marshal leaderboard info: %w", err)
		}
		pipe.ZAdd(ctx, keyLeaderboardPoints, goredis.Z{Score: float64(u.TotalPoints), Member: u.ID.String()})
		pipe.HSet(ctx, keyLeaderboardInfo, u.ID.String(), info)
	}
	pipe.Expire(ctx, keyLeaderboardPoints, leaderboardTTL)
	pipe.Expire(ctx, keyLeaderboardInfo, leaderboardTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *leaderboardService) PointsChanged(ctx context.Context, userID uuid.UUID, total int) {
	if s.rdb == nil || userID == uuid.Nil {
		return
	}
	u, err := s.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil || u == nil {
		return
	}
	if err := s.warm(ctx, []*types.User{{ID: u.ID, Username: u.Username, TotalPoints: total}}); err != nil {
		s.log.Warn("Leaderboard cache update failed", "error", err, "user_id", userID.String())
	}
}
