package repository

import (
	"context"
	"time"

	"LeagueSettle/internal/model"

	"gorm.io/gorm"
)

// Outcome 单场比赛对某球员的胜负结果
type Outcome string

const (
	OutcomeWin     Outcome = "W"
	OutcomeLoss    Outcome = "L"
	OutcomeDraw    Outcome = "D"
	OutcomeUnknown Outcome = ""
)

// PlayedMatch 用户参与过的已结算比赛（match_players ⋈ matches）
type PlayedMatch struct {
	MatchID     uint64
	LeagueID    *uint64
	OrganizerID uint64
	ScheduledAt time.Time
	ScoreA      *int
	ScoreB      *int
	Team        model.Team
	Overall     *float64
	Pace        *float64
	Technique   *float64
	Physical    *float64
	Shooting    *float64
	Defense     *float64
}

// Outcome 按分队与比分计算结果；未分队或比分缺失返回 OutcomeUnknown
func (p *PlayedMatch) Outcome() Outcome {
	if p.ScoreA == nil || p.ScoreB == nil {
		return OutcomeUnknown
	}
	var own, other int
	switch p.Team {
	case model.TeamA:
		own, other = *p.ScoreA, *p.ScoreB
	case model.TeamB:
		own, other = *p.ScoreB, *p.ScoreA
	default:
		return OutcomeUnknown
	}
	switch {
	case own > other:
		return OutcomeWin
	case own < other:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// CleanSheet 对手零进球
func (p *PlayedMatch) CleanSheet() bool {
	if p.ScoreA == nil || p.ScoreB == nil {
		return false
	}
	switch p.Team {
	case model.TeamA:
		return *p.ScoreB == 0
	case model.TeamB:
		return *p.ScoreA == 0
	}
	return false
}

// UserAverage 联赛内按已结算比赛计算的平均评分
type UserAverage struct {
	UserID  uint64
	Average float64
	Matches int64
}

// HistoryRepository 成就评估使用的历史只读查询
type HistoryRepository interface {
	// ListCompletedMatches 用户已结算比赛，按比赛时间倒序；limit<=0 不限
	ListCompletedMatches(ctx context.Context, userID uint64, limit int) ([]*PlayedMatch, error)
	// ListRosters 多场比赛的召集名单
	ListRosters(ctx context.Context, matchIDs []uint64) ([]*model.MatchPlayer, error)
	CountOrganized(ctx context.Context, userID uint64) (int64, error)
	CountConfirmed(ctx context.Context, userID uint64) (int64, error)
	// CountVotedMatches 用户参与投票的比赛数（按比赛去重）
	CountVotedMatches(ctx context.Context, userID uint64) (int64, error)
	// LeagueAverages 联赛全员平均评分，按均分倒序、user_id 升序
	LeagueAverages(ctx context.Context, leagueID uint64) ([]*UserAverage, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) ListCompletedMatches(ctx context.Context, userID uint64, limit int) ([]*PlayedMatch, error) {
	var list []*PlayedMatch
	q := r.db.WithContext(ctx).Table("match_players AS mp").
		Select("m.id AS match_id, m.league_id, m.organizer_id, m.scheduled_at, m.score_a, m.score_b, " +
			"mp.team, mp.overall, mp.pace, mp.technique, mp.physical, mp.shooting, mp.defense").
		Joins("JOIN matches m ON m.id = mp.match_id").
		Where("mp.user_id = ? AND m.status = ?", userID, model.MatchCompleted).
		Order("m.scheduled_at DESC, m.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *historyRepository) ListRosters(ctx context.Context, matchIDs []uint64) ([]*model.MatchPlayer, error) {
	var list []*model.MatchPlayer
	if len(matchIDs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).
		Where("match_id IN ?", matchIDs).
		Order("match_id ASC, user_id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *historyRepository) CountOrganized(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("organizer_id = ? AND status = ?", userID, model.MatchCompleted).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *historyRepository) CountConfirmed(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.MatchPlayer{}).
		Where("user_id = ? AND confirmed = ?", userID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *historyRepository) CountVotedMatches(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("voter_id = ?", userID).
		Distinct("match_id").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *historyRepository) LeagueAverages(ctx context.Context, leagueID uint64) ([]*UserAverage, error) {
	var list []*UserAverage
	if err := r.db.WithContext(ctx).Table("match_players AS mp").
		Select("mp.user_id AS user_id, AVG(mp.overall) AS average, COUNT(*) AS matches").
		Joins("JOIN matches m ON m.id = mp.match_id").
		Where("m.league_id = ? AND m.status = ? AND mp.overall IS NOT NULL", leagueID, model.MatchCompleted).
		Group("mp.user_id").
		Order("average DESC, mp.user_id ASC").
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
