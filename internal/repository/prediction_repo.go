package repository

import (
	"context"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PredictionRepository 竞猜组/题目/选项/用户选择仓储
type PredictionRepository interface {
	GetGroup(ctx context.Context, groupID uint64) (*model.PredictionGroup, error)
	// GetGroupForUpdate 行锁读取竞猜组（事务内使用）
	GetGroupForUpdate(ctx context.Context, groupID uint64) (*model.PredictionGroup, error)
	GetQuestion(ctx context.Context, questionID uint64) (*model.PredictionQuestion, error)
	GetOption(ctx context.Context, optionID uint64) (*model.PredictionOption, error)
	// ListOpenMatchGroups 行锁返回绑定该比赛、尚未结算的 MATCH 类型竞猜组（结算事务内使用）
	ListOpenMatchGroups(ctx context.Context, matchID uint64) ([]*model.PredictionGroup, error)
	ListQuestions(ctx context.Context, groupID uint64) ([]*model.PredictionQuestion, error)
	ListOptions(ctx context.Context, questionIDs []uint64) ([]*model.PredictionOption, error)
	ListUserPredictions(ctx context.Context, questionIDs []uint64) ([]*model.UserPrediction, error)
	GetUserPrediction(ctx context.Context, userID, questionID uint64) (*model.UserPrediction, error)
	// CountUserPicks 用户在某组内的有效选择数
	CountUserPicks(ctx context.Context, userID, groupID uint64) (int64, error)
	// UpsertUserPrediction 按 (user_id, question_id) 插入或改选
	UpsertUserPrediction(ctx context.Context, p *model.UserPrediction) error
	// SettleQuestion 写入正确选项并关闭题目
	SettleQuestion(ctx context.Context, questionID uint64, correctOptionID *uint64) error
	MarkGroupSettled(ctx context.Context, groupID uint64, now time.Time) error
	// CloseExpiredGroups 关闭已过截止时间的 OPEN 组及其题目，返回关闭的组数
	CloseExpiredGroups(ctx context.Context, now time.Time) (int64, error)
	CountCorrect(ctx context.Context, userID uint64) (int64, error)
}

type predictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) GetGroup(ctx context.Context, groupID uint64) (*model.PredictionGroup, error) {
	var g model.PredictionGroup
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *predictionRepository) GetGroupForUpdate(ctx context.Context, groupID uint64) (*model.PredictionGroup, error) {
	var g model.PredictionGroup
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", groupID).
		First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *predictionRepository) GetQuestion(ctx context.Context, questionID uint64) (*model.PredictionQuestion, error) {
	var q model.PredictionQuestion
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *predictionRepository) GetOption(ctx context.Context, optionID uint64) (*model.PredictionOption, error) {
	var o model.PredictionOption
	if err := r.db.WithContext(ctx).Where("id = ?", optionID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *predictionRepository) ListOpenMatchGroups(ctx context.Context, matchID uint64) ([]*model.PredictionGroup, error) {
	var list []*model.PredictionGroup
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("match_id = ? AND type = ? AND status <> ?", matchID, model.GroupPerMatch, model.GroupSettled).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *predictionRepository) ListQuestions(ctx context.Context, groupID uint64) ([]*model.PredictionQuestion, error) {
	var list []*model.PredictionQuestion
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *predictionRepository) ListOptions(ctx context.Context, questionIDs []uint64) ([]*model.PredictionOption, error) {
	var list []*model.PredictionOption
	if len(questionIDs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *predictionRepository) ListUserPredictions(ctx context.Context, questionIDs []uint64) ([]*model.UserPrediction, error) {
	var list []*model.UserPrediction
	if len(questionIDs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *predictionRepository) GetUserPrediction(ctx context.Context, userID, questionID uint64) (*model.UserPrediction, error) {
	var p model.UserPrediction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *predictionRepository) CountUserPicks(ctx context.Context, userID, groupID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.UserPrediction{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *predictionRepository) UpsertUserPrediction(ctx context.Context, p *model.UserPrediction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_id", "updated_at"}),
	}).Create(p).Error
}

func (r *predictionRepository) SettleQuestion(ctx context.Context, questionID uint64, correctOptionID *uint64) error {
	return r.db.WithContext(ctx).Model(&model.PredictionQuestion{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"correct_option_id": correctOptionID,
			"is_closed":         true,
		}).Error
}

func (r *predictionRepository) MarkGroupSettled(ctx context.Context, groupID uint64, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.PredictionGroup{}).
		Where("id = ?", groupID).
		Updates(map[string]interface{}{
			"status":     model.GroupSettled,
			"settled_at": now,
		}).Error
}

func (r *predictionRepository) CloseExpiredGroups(ctx context.Context, now time.Time) (int64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&model.PredictionGroup{}).
		Where("status = ? AND closes_at IS NOT NULL AND closes_at <= ?", model.GroupOpen, now).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.PredictionQuestion{}).
		Where("group_id IN ?", ids).
		Update("is_closed", true).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&model.PredictionGroup{}).
		Where("id IN ? AND status = ?", ids, model.GroupOpen).
		Update("status", model.GroupClosed)
	return res.RowsAffected, res.Error
}

func (r *predictionRepository) CountCorrect(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Table("user_predictions AS up").
		Joins("JOIN prediction_questions q ON q.id = up.question_id").
		Where("up.user_id = ? AND q.correct_option_id = up.option_id", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
