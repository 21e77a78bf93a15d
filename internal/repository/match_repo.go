package repository

import (
	"context"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository 比赛与召集名单仓储
type MatchRepository interface {
	// GetByID 通过 id 获取比赛
	GetByID(ctx context.Context, matchID uint64) (*model.Match, error)
	// LockByID 行锁读取比赛（事务内使用，SELECT ... FOR UPDATE）
	LockByID(ctx context.Context, matchID uint64) (*model.Match, error)
	// MarkCompleted 条件更新为 COMPLETED，返回是否由本次调用完成状态切换
	MarkCompleted(ctx context.Context, matchID uint64, now time.Time) (bool, error)
	// SetMVP 写入比赛 MVP
	SetMVP(ctx context.Context, matchID, userID uint64) error
	ListPlayers(ctx context.Context, matchID uint64) ([]*model.MatchPlayer, error)
	GetPlayer(ctx context.Context, matchID, userID uint64) (*model.MatchPlayer, error)
	UpdatePlayer(ctx context.Context, matchID, userID uint64, fields map[string]interface{}) error
	CountConfirmed(ctx context.Context, matchID uint64) (int64, error)
	// ListVotingComplete 投票人数已达确认出席人数但尚未结算的比赛（供补偿任务）
	ListVotingComplete(ctx context.Context, limit int) ([]*model.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository 创建 MatchRepository 实例
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) GetByID(ctx context.Context, matchID uint64) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).Where("id = ?", matchID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) LockByID(ctx context.Context, matchID uint64) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", matchID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) MarkCompleted(ctx context.Context, matchID uint64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ? AND status NOT IN ?", matchID, []model.MatchStatus{model.MatchCompleted, model.MatchCancelled}).
		Updates(map[string]interface{}{
			"status":       model.MatchCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *matchRepository) SetMVP(ctx context.Context, matchID, userID uint64) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", matchID).
		Updates(map[string]interface{}{"mvp_user_id": userID, "updated_at": time.Now()}).Error
}

func (r *matchRepository) ListPlayers(ctx context.Context, matchID uint64) ([]*model.MatchPlayer, error) {
	var list []*model.MatchPlayer
	if err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("user_id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *matchRepository) GetPlayer(ctx context.Context, matchID, userID uint64) (*model.MatchPlayer, error) {
	var mp model.MatchPlayer
	if err := r.db.WithContext(ctx).Where("match_id = ? AND user_id = ?", matchID, userID).First(&mp).Error; err != nil {
		return nil, err
	}
	return &mp, nil
}

func (r *matchRepository) UpdatePlayer(ctx context.Context, matchID, userID uint64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&model.MatchPlayer{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Updates(fields).Error
}

func (r *matchRepository) CountConfirmed(ctx context.Context, matchID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.MatchPlayer{}).
		Where("match_id = ? AND confirmed = ?", matchID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *matchRepository) ListVotingComplete(ctx context.Context, limit int) ([]*model.Match, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []*model.Match
	if err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("status IN ?", []model.MatchStatus{model.MatchActive, model.MatchFinished}).
		Where("EXISTS (SELECT 1 FROM votes v WHERE v.match_id = matches.id)").
		Where("(SELECT COUNT(DISTINCT v.voter_id) FROM votes v WHERE v.match_id = matches.id) >= " +
			"(SELECT COUNT(*) FROM match_players mp WHERE mp.match_id = matches.id AND mp.confirmed = ?)", true).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
