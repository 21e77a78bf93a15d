package repository

import (
	"context"
	"errors"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementRepository 成就定义、用户进度账本、装扮解锁
type AchievementRepository interface {
	// ListAll 按 sort_order, id 返回全部成就定义
	ListAll(ctx context.Context) ([]*model.Achievement, error)
	// GetOrCreateProgress 惰性创建用户进度行
	GetOrCreateProgress(ctx context.Context, userID, achievementID uint64) (*model.UserAchievement, error)
	UpdateProgress(ctx context.Context, id uint64, progress float64) error
	// MarkCompleted 条件更新 is_completed=false→true，返回是否由本次调用完成
	MarkCompleted(ctx context.Context, id uint64, progress float64, now time.Time) (bool, error)
	CountCompleted(ctx context.Context, userID uint64) (int64, error)
	ListUserProgress(ctx context.Context, userID uint64) ([]*model.UserAchievement, error)
	GetCosmetic(ctx context.Context, key string) (*model.Cosmetic, error)
	// UnlockCosmetic 解锁装扮，已拥有时忽略；返回是否新解锁
	UnlockCosmetic(ctx context.Context, userID uint64, key string, now time.Time) (bool, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListAll(ctx context.Context) ([]*model.Achievement, error) {
	var list []*model.Achievement
	if err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *achievementRepository) GetOrCreateProgress(ctx context.Context, userID, achievementID uint64) (*model.UserAchievement, error) {
	var ua model.UserAchievement
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&ua).Error
	if err == nil {
		return &ua, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	ua = model.UserAchievement{UserID: userID, AchievementID: achievementID}
	// 并发创建时唯一索引冲突，忽略后重新读取
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&ua)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return &ua, nil
	}
	var existing model.UserAchievement
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *achievementRepository) UpdateProgress(ctx context.Context, id uint64, progress float64) error {
	return r.db.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"current_progress": progress,
			"updated_at":       time.Now(),
		}).Error
}

func (r *achievementRepository) MarkCompleted(ctx context.Context, id uint64, progress float64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"current_progress": progress,
			"is_completed":     true,
			"completed_at":     now,
			"claimed_at":       now,
			"updated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *achievementRepository) CountCompleted(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *achievementRepository) ListUserProgress(ctx context.Context, userID uint64) ([]*model.UserAchievement, error) {
	var list []*model.UserAchievement
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("achievement_id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *achievementRepository) GetCosmetic(ctx context.Context, key string) (*model.Cosmetic, error) {
	var c model.Cosmetic
	if err := r.db.WithContext(ctx).Where("cosmetic_key = ?", key).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *achievementRepository) UnlockCosmetic(ctx context.Context, userID uint64, key string, now time.Time) (bool, error) {
	uc := model.UserCosmetic{UserID: userID, CosmeticKey: key, UnlockedAt: now}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&uc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
