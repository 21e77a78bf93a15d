package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合所有仓储，绑定同一个 *gorm.DB（根连接或事务句柄）
type Store struct {
	db           *gorm.DB
	Matches      MatchRepository
	Votes        VoteRepository
	Members      MemberRepository
	Honors       HonorRepository
	Duels        DuelRepository
	Predictions  PredictionRepository
	Achievements AchievementRepository
	History      HistoryRepository
}

// NewStore 基于 db 创建仓储集合；db 为事务句柄时所有读写都参与该事务
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Matches:      NewMatchRepository(db),
		Votes:        NewVoteRepository(db),
		Members:      NewMemberRepository(db),
		Honors:       NewHonorRepository(db),
		Duels:        NewDuelRepository(db),
		Predictions:  NewPredictionRepository(db),
		Achievements: NewAchievementRepository(db),
		History:      NewHistoryRepository(db),
	}
}

// DB 返回底层句柄（供外部协作方参与同一事务）
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 开启事务，fn 返回错误或 panic 时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
