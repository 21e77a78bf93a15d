package repository

import (
	"context"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
)

// HonorRepository 荣誉事实表仓储（只追加）
type HonorRepository interface {
	Create(ctx context.Context, honor *model.Honor) error
	ListByMatch(ctx context.Context, matchID uint64) ([]*model.Honor, error)
	CountByUser(ctx context.Context, userID uint64, honorType model.HonorType) (int64, error)
	// ListByUser 按比赛时间倒序返回用户某类荣誉，附带比赛时间
	ListByUser(ctx context.Context, userID uint64, honorType model.HonorType) ([]*HonorView, error)
}

// HonorView 荣誉 + 所属比赛时间
type HonorView struct {
	MatchID     uint64
	LeagueID    uint64
	Type        model.HonorType
	ScheduledAt time.Time
}

type honorRepository struct {
	db *gorm.DB
}

func NewHonorRepository(db *gorm.DB) HonorRepository {
	return &honorRepository{db: db}
}

func (r *honorRepository) Create(ctx context.Context, honor *model.Honor) error {
	return r.db.WithContext(ctx).Create(honor).Error
}

func (r *honorRepository) ListByMatch(ctx context.Context, matchID uint64) ([]*model.Honor, error) {
	var list []*model.Honor
	if err := r.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *honorRepository) CountByUser(ctx context.Context, userID uint64, honorType model.HonorType) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Honor{}).
		Where("user_id = ? AND type = ?", userID, honorType).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *honorRepository) ListByUser(ctx context.Context, userID uint64, honorType model.HonorType) ([]*HonorView, error) {
	var list []*HonorView
	if err := r.db.WithContext(ctx).Table("honors AS h").
		Select("h.match_id, h.league_id, h.type, m.scheduled_at").
		Joins("JOIN matches m ON m.id = h.match_id").
		Where("h.user_id = ? AND h.type = ?", userID, honorType).
		Order("m.scheduled_at DESC, m.id DESC").
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// DuelRepository 对决仓储
type DuelRepository interface {
	ListByMatch(ctx context.Context, matchID uint64) ([]*model.Duel, error)
	Resolve(ctx context.Context, duelID uint64, winnerID *uint64, now time.Time) error
	CountWins(ctx context.Context, userID uint64) (int64, error)
}

type duelRepository struct {
	db *gorm.DB
}

func NewDuelRepository(db *gorm.DB) DuelRepository {
	return &duelRepository{db: db}
}

func (r *duelRepository) ListByMatch(ctx context.Context, matchID uint64) ([]*model.Duel, error) {
	var list []*model.Duel
	if err := r.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *duelRepository) Resolve(ctx context.Context, duelID uint64, winnerID *uint64, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Duel{}).
		Where("id = ? AND status = ?", duelID, model.DuelPending).
		Updates(map[string]interface{}{
			"winner_id":   winnerID,
			"status":      model.DuelResolved,
			"resolved_at": now,
		}).Error
}

func (r *duelRepository) CountWins(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Duel{}).
		Where("winner_id = ? AND status = ?", userID, model.DuelResolved).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
