package achievement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type AchievementRepo interface {
	UpsertCatalog(dbc dbctx.Context, rows []*types.Achievement) error
	List(dbc dbctx.Context) ([]*types.Achievement, error)
	GrantedIDs(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error)
	ListGranted(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error)
	// GrantIfAbsent inserts (user, achievement) and reports whether this call
	// created the row. An existing row is left untouched.
	GrantIfAbsent(dbc dbctx.Context, userID uuid.UUID, achievementID string, at time.Time) (bool, error)
	// RecomputeTotalPoints rewrites user.total_points from the grant join in a
	// single statement and returns the new value.
	RecomputeTotalPoints(dbc dbctx.Context, userID uuid.UUID) (int, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) UpsertCatalog(dbc dbctx.Context, rows []*types.Achievement) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"description",
				"icon",
				"category",
				"points",
				"condition",
				"sort_order",
			}),
		}).
		Create(&rows).Error
}

func (r *achievementRepo) List(dbc dbctx.Context) ([]*types.Achievement, error) {
	var rows []*types.Achievement
	if err := dbc.Conn(r.db).Order("sort_order ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *achievementRepo) GrantedIDs(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error) {
	out := map[string]bool{}
	if userID == uuid.Nil {
		return out, nil
	}
	var ids []string
	if err := dbc.Conn(r.db).
		Model(&types.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *achievementRepo) ListGranted(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	var rows []*types.UserAchievement
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *achievementRepo) GrantIfAbsent(dbc dbctx.Context, userID uuid.UUID, achievementID string, at time.Time) (bool, error) {
	if userID == uuid.Nil || achievementID == "" {
		return false, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.UserAchievement{
			UserID:        userID,
			AchievementID: achievementID,
			EarnedAt:      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

const recomputeTotalPointsSQL = `UPDATE "user" SET total_points = (
	SELECT COALESCE(SUM(a.points), 0)
	FROM user_achievement AS ua
	JOIN achievement AS a ON a.id = ua.achievement_id
	WHERE ua.user_id = ?
) WHERE id = ?`

func (r *achievementRepo) RecomputeTotalPoints(dbc dbctx.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	conn := dbc.Conn(r.db)
	if err := conn.Exec(recomputeTotalPointsSQL, userID, userID).Error; err != nil {
		return 0, err
	}
	var total int64
	if err := conn.Model(&types.User{}).Select("total_points").Where("id = ?", userID).Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}
