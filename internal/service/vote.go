package service

import (
	"context"
	"errors"
	"fmt"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minRating = 1.0
	maxRating = 10.0
)

// VoteInput 单条评分，自评时技能分会被丢弃
type VoteInput struct {
	TargetID  uint64   `json:"target_id"`
	Overall   float64  `json:"overall"`
	Pace      *float64 `json:"pace"`
	Technique *float64 `json:"technique"`
	Physical  *float64 `json:"physical"`
	Shooting  *float64 `json:"shooting"`
	Defense   *float64 `json:"defense"`
}

// SubmitVotesResult 投票结果
type SubmitVotesResult struct {
	MatchClosed bool `json:"match_closed"`
}

// VoteService 赛后投票提交；全部确认出席者投完后触发结算
type VoteService struct {
	store      *repository.Store
	settlement *SettlementService
	logger     *logrus.Logger
}

func NewVoteService(store *repository.Store, settlement *SettlementService, logger *logrus.Logger) *VoteService {
	return &VoteService{store: store, settlement: settlement, logger: logger}
}

// SubmitVotes 写入投票。人数检查只是触发条件，是否结算由 Settle 的事务内状态判断决定
func (s *VoteService) SubmitVotes(ctx context.Context, matchID, leagueID, voterID uint64, votes []VoteInput) (*SubmitVotesResult, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: no ratings submitted", ErrInvalidVote)
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		// 与结算争用同一行锁，结算提交后这里读到的是 COMPLETED
		m, err := tx.Matches.LockByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if m.LeagueID == nil || *m.LeagueID != leagueID {
			return ErrLeagueMismatch
		}
		if m.Status != model.MatchActive && m.Status != model.MatchFinished {
			return ErrVotingClosed
		}

		roster, err := tx.Matches.ListPlayers(ctx, matchID)
		if err != nil {
			return err
		}
		inRoster := make(map[uint64]bool, len(roster))
		voterConfirmed := false
		for _, p := range roster {
			inRoster[p.UserID] = true
			if p.UserID == voterID && p.Confirmed {
				voterConfirmed = true
			}
		}
		if !voterConfirmed {
			return ErrNotConvocated
		}
		voted, err := tx.Votes.HasVoted(ctx, matchID, voterID)
		if err != nil {
			return err
		}
		if voted {
			return ErrAlreadyVoted
		}

		rows, err := buildVotes(matchID, voterID, votes, inRoster)
		if err != nil {
			return err
		}
		return tx.Votes.CreateBatch(ctx, rows)
	})
	if err != nil {
		return nil, err
	}

	voters, err := s.store.Votes.CountDistinctVoters(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("count voters: %w", err)
	}
	confirmed, err := s.store.Matches.CountConfirmed(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}
	if voters < confirmed {
		return &SubmitVotesResult{MatchClosed: false}, nil
	}

	status, err := s.settlement.Settle(ctx, matchID)
	if err != nil {
		// 投票已保存，结算由补偿任务重试
		s.logger.WithError(err).WithField("match_id", matchID).Warn("settlement after final vote failed")
		return &SubmitVotesResult{MatchClosed: false}, nil
	}
	return &SubmitVotesResult{MatchClosed: status == SettleDone || status == SettleAlreadySettled}, nil
}

func buildVotes(matchID, voterID uint64, votes []VoteInput, inRoster map[uint64]bool) ([]*model.Vote, error) {
	seen := make(map[uint64]bool, len(votes))
	rows := make([]*model.Vote, 0, len(votes))
	for _, in := range votes {
		if !inRoster[in.TargetID] {
			return nil, fmt.Errorf("%w: user %d did not play this match", ErrInvalidVote, in.TargetID)
		}
		if seen[in.TargetID] {
			return nil, fmt.Errorf("%w: duplicate rating for user %d", ErrInvalidVote, in.TargetID)
		}
		seen[in.TargetID] = true

		v := &model.Vote{MatchID: matchID, VoterID: voterID, TargetID: in.TargetID, Overall: in.Overall}
		if !validRating(&in.Overall) {
			return nil, fmt.Errorf("%w: overall rating out of range", ErrInvalidVote)
		}
		if in.TargetID != voterID {
			skills := []*float64{in.Pace, in.Technique, in.Physical, in.Shooting, in.Defense}
			for _, sk := range skills {
				if sk != nil && !validRating(sk) {
					return nil, fmt.Errorf("%w: skill rating out of range", ErrInvalidVote)
				}
			}
			v.Pace, v.Technique, v.Physical, v.Shooting, v.Defense = in.Pace, in.Technique, in.Physical, in.Shooting, in.Defense
		}
		rows = append(rows, v)
	}
	return rows, nil
}

func validRating(v *float64) bool {
	return *v >= minRating && *v <= maxRating
}
