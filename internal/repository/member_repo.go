package repository

import (
	"context"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository 联赛成员仓储
type MemberRepository interface {
	Get(ctx context.Context, leagueID, userID uint64) (*model.LeagueMember, error)
	// GetForUpdate 行锁读取成员，用于滚动均值的读改写
	GetForUpdate(ctx context.Context, leagueID, userID uint64) (*model.LeagueMember, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.LeagueMember, error)
	ListByUserForUpdate(ctx context.Context, userID uint64) ([]*model.LeagueMember, error)
	Update(ctx context.Context, memberID uint64, fields map[string]interface{}) error
	// Increment 对计数器列做原子自增，cols 为 列名 → 增量
	Increment(ctx context.Context, leagueID, userID uint64, cols map[string]int) error
	GetUser(ctx context.Context, userID uint64) (*model.User, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Get(ctx context.Context, leagueID, userID uint64) (*model.LeagueMember, error) {
	var m model.LeagueMember
	if err := r.db.WithContext(ctx).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) GetForUpdate(ctx context.Context, leagueID, userID uint64) (*model.LeagueMember, error) {
	var m model.LeagueMember
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) ListByUser(ctx context.Context, userID uint64) ([]*model.LeagueMember, error) {
	var list []*model.LeagueMember
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("league_id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *memberRepository) ListByUserForUpdate(ctx context.Context, userID uint64) ([]*model.LeagueMember, error) {
	var list []*model.LeagueMember
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("league_id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *memberRepository) Update(ctx context.Context, memberID uint64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&model.LeagueMember{}).
		Where("id = ?", memberID).
		Updates(fields).Error
}

func (r *memberRepository) Increment(ctx context.Context, leagueID, userID uint64, cols map[string]int) error {
	if len(cols) == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(cols)+1)
	for col, delta := range cols {
		updates[col] = gorm.Expr(col+" + ?", delta)
	}
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&model.LeagueMember{}).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		Updates(updates).Error
}

func (r *memberRepository) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
