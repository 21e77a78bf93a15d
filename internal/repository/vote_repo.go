package repository

import (
	"context"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
)

// VoteRepository 赛后投票仓储，投票写入后不可变
type VoteRepository interface {
	ListByMatch(ctx context.Context, matchID uint64) ([]*model.Vote, error)
	CreateBatch(ctx context.Context, votes []*model.Vote) error
	HasVoted(ctx context.Context, matchID, voterID uint64) (bool, error)
	CountDistinctVoters(ctx context.Context, matchID uint64) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) ListByMatch(ctx context.Context, matchID uint64) ([]*model.Vote, error) {
	var list []*model.Vote
	if err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *voteRepository) CreateBatch(ctx context.Context, votes []*model.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&votes).Error
}

func (r *voteRepository) HasVoted(ctx context.Context, matchID, voterID uint64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("match_id = ? AND voter_id = ?", matchID, voterID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *voteRepository) CountDistinctVoters(ctx context.Context, matchID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("match_id = ?", matchID).
		Distinct("voter_id").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
