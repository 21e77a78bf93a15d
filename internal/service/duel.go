package service

import (
	"context"
	"fmt"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RatingDuelResolver 默认对决结算：本场综合评分高者胜，相同或缺失为平局
type RatingDuelResolver struct {
	logger *logrus.Logger
}

func NewRatingDuelResolver(logger *logrus.Logger) *RatingDuelResolver {
	return &RatingDuelResolver{logger: logger}
}

// ResolveDuel 只使用传入的事务句柄
func (r *RatingDuelResolver) ResolveDuel(ctx context.Context, tx *gorm.DB, matchID uint64) error {
	store := repository.NewStore(tx)
	m, err := store.Matches.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}
	duels, err := store.Duels.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list duels: %w", err)
	}
	if len(duels) == 0 {
		return nil
	}
	players, err := store.Matches.ListPlayers(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	ratings := make(map[uint64]*float64, len(players))
	for _, p := range players {
		ratings[p.UserID] = p.Overall
	}

	now := time.Now().UTC()
	for _, d := range duels {
		if d.Status != model.DuelPending {
			continue
		}
		winner := duelWinner(ratings[d.ChallengerID], ratings[d.ChallengedID], d.ChallengerID, d.ChallengedID)
		if err := store.Duels.Resolve(ctx, d.ID, winner, now); err != nil {
			return fmt.Errorf("resolve duel %d: %w", d.ID, err)
		}
		if winner != nil && m.LeagueID != nil {
			if err := store.Members.Increment(ctx, *m.LeagueID, *winner, map[string]int{"duel_count": 1}); err != nil {
				return fmt.Errorf("increment duel counter: %w", err)
			}
		}
		entry := r.logger.WithFields(logrus.Fields{"match_id": matchID, "duel_id": d.ID})
		if winner != nil {
			entry = entry.WithField("winner_id", *winner)
		}
		entry.Debug("duel resolved")
	}
	return nil
}

func duelWinner(a, b *float64, aID, bID uint64) *uint64 {
	if a == nil || b == nil || *a == *b {
		return nil
	}
	if *a > *b {
		return &aID
	}
	return &bID
}
