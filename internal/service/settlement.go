package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LeagueSettle/internal/interfaces"
	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ratingBaseline 成员无历史均值时的基准
const ratingBaseline = 5.0

// SettleStatus 结算调用结果
type SettleStatus string

const (
	SettleDone           SettleStatus = "SETTLED"
	SettleAlreadySettled SettleStatus = "ALREADY_SETTLED"
)

// errAlreadySettled 事务内发现已结算，回滚空事务
var errAlreadySettled = errors.New("match already settled")

// SettlementService 比赛结算：单事务内完成评分、均值、荣誉、对决、竞猜与状态切换
type SettlementService struct {
	store       *repository.Store
	duels       interfaces.DuelResolver
	predictions *PredictionSettler
	hooks       *HookRunner
	timeout     time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

func NewSettlementService(
	store *repository.Store,
	duels interfaces.DuelResolver,
	predictions *PredictionSettler,
	hooks *HookRunner,
	timeout time.Duration,
	logger *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		store:       store,
		duels:       duels,
		predictions: predictions,
		hooks:       hooks,
		timeout:     timeout,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Settle 结算比赛。已结算返回 SettleAlreadySettled 且无副作用；
// 任何错误都意味着事务已整体回滚，比赛保持调用前状态
func (s *SettlementService) Settle(ctx context.Context, matchID uint64) (SettleStatus, error) {
	m, err := s.store.Matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrMatchNotFound
		}
		return "", fmt.Errorf("load match %d: %w", matchID, err)
	}
	if m.Status == model.MatchCompleted {
		return SettleAlreadySettled, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var outcome *SettlementOutcome
	err = s.store.Transaction(txCtx, func(tx *repository.Store) error {
		o, err := s.settleInTx(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})
	switch {
	case errors.Is(err, errAlreadySettled):
		return SettleAlreadySettled, nil
	case err != nil:
		s.logger.WithError(err).WithField("match_id", matchID).Error("settlement failed, rolled back")
		return "", fmt.Errorf("settle match %d: %w", matchID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"match_id":     matchID,
		"league_id":    outcome.LeagueID,
		"honors":       len(outcome.Honors),
		"participants": len(outcome.Participants),
	}).Info("match settled")
	if s.hooks != nil {
		s.hooks.Dispatch(outcome)
	}
	return SettleDone, nil
}

func (s *SettlementService) settleInTx(ctx context.Context, tx *repository.Store, matchID uint64) (*SettlementOutcome, error) {
	// 权威判断：行锁后在同一事务内复查状态
	m, err := tx.Matches.LockByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("lock match: %w", err)
	}
	switch m.Status {
	case model.MatchCompleted:
		return nil, errAlreadySettled
	case model.MatchCancelled:
		return nil, ErrMatchCancelled
	}
	if m.LeagueID == nil {
		return nil, ErrNoLeague
	}
	leagueID := *m.LeagueID
	now := s.now()

	outcome := &SettlementOutcome{MatchID: matchID, LeagueID: leagueID, SettledAt: now}
	roster, err := tx.Matches.ListPlayers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	for _, p := range roster {
		outcome.Participants = append(outcome.Participants, p.UserID)
	}

	votes, err := tx.Votes.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	aggs := AggregateVotes(votes)
	if len(aggs) == 0 {
		s.logger.WithField("match_id", matchID).Info("no votes, closing match without stats")
		return outcome, s.complete(ctx, tx, matchID, now)
	}

	for _, a := range aggs {
		if err := s.applyRatings(ctx, tx, matchID, leagueID, a); err != nil {
			return nil, err
		}
	}

	honors := SelectHonors(aggs)
	awards := []struct {
		agg     *PlayerAggregate
		typ     model.HonorType
		counter string
	}{
		{honors.Best, model.HonorMVP, "mvp_count"},
		{honors.Worst, model.HonorTronco, "tronco_count"},
		{honors.Ghost, model.HonorFantasma, "fantasma_count"},
	}
	for _, aw := range awards {
		if aw.agg == nil {
			continue
		}
		h := &model.Honor{MatchID: matchID, UserID: aw.agg.UserID, LeagueID: leagueID, Type: aw.typ}
		if err := tx.Honors.Create(ctx, h); err != nil {
			return nil, fmt.Errorf("create %s honor: %w", aw.typ, err)
		}
		if err := tx.Members.Increment(ctx, leagueID, aw.agg.UserID, map[string]int{aw.counter: 1}); err != nil {
			return nil, fmt.Errorf("increment %s: %w", aw.counter, err)
		}
		outcome.Honors = append(outcome.Honors, h)
	}
	if err := tx.Matches.SetMVP(ctx, matchID, honors.Best.UserID); err != nil {
		return nil, fmt.Errorf("set mvp: %w", err)
	}

	if s.duels != nil {
		if err := s.duels.ResolveDuel(ctx, tx.DB(), matchID); err != nil {
			return nil, fmt.Errorf("resolve duels: %w", err)
		}
	}
	if s.predictions != nil {
		oracles, err := s.predictions.SettleMatch(ctx, tx, matchID, leagueID, now)
		if err != nil {
			return nil, fmt.Errorf("settle predictions: %w", err)
		}
		outcome.Honors = append(outcome.Honors, oracles...)
	}

	outcome.Duels, err = tx.Duels.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list duels: %w", err)
	}
	return outcome, s.complete(ctx, tx, matchID, now)
}

func (s *SettlementService) complete(ctx context.Context, tx *repository.Store, matchID uint64, now time.Time) error {
	ok, err := tx.Matches.MarkCompleted(ctx, matchID, now)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !ok {
		return errAlreadySettled
	}
	return nil
}

// applyRatings 写入本场评分并滚动更新成员的联赛均值
func (s *SettlementService) applyRatings(ctx context.Context, tx *repository.Store, matchID, leagueID uint64, a *PlayerAggregate) error {
	if err := tx.Matches.UpdatePlayer(ctx, matchID, a.UserID, map[string]interface{}{
		"overall":   a.Overall,
		"pace":      a.Pace,
		"technique": a.Technique,
		"physical":  a.Physical,
		"shooting":  a.Shooting,
		"defense":   a.Defense,
	}); err != nil {
		return fmt.Errorf("update player %d ratings: %w", a.UserID, err)
	}

	member, err := tx.Members.GetForUpdate(ctx, leagueID, a.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WithFields(logrus.Fields{"league_id": leagueID, "user_id": a.UserID}).
				Warn("rated player is not a league member, skipping league averages")
			return nil
		}
		return fmt.Errorf("lock member %d: %w", a.UserID, err)
	}

	n := member.MatchesPlayed
	fields := map[string]interface{}{
		"league_overall": rollingAverage(member.LeagueOverall, n, a.Overall),
		"matches_played": n + 1,
	}
	// 技能均值按各自样本数滚动，缺失的场次不计入
	skills := []struct {
		col      string
		countCol string
		prior    *float64
		samples  int
		value    *float64
	}{
		{"league_pace", "pace_samples", member.LeaguePace, member.PaceSamples, a.Pace},
		{"league_technique", "technique_samples", member.LeagueTechnique, member.TechniqueSamples, a.Technique},
		{"league_physical", "physical_samples", member.LeaguePhysical, member.PhysicalSamples, a.Physical},
		{"league_shooting", "shooting_samples", member.LeagueShooting, member.ShootingSamples, a.Shooting},
		{"league_defense", "defense_samples", member.LeagueDefense, member.DefenseSamples, a.Defense},
	}
	for _, sk := range skills {
		if sk.value != nil {
			fields[sk.col] = rollingAverage(sk.prior, sk.samples, *sk.value)
			fields[sk.countCol] = sk.samples + 1
		}
	}
	if err := tx.Members.Update(ctx, member.ID, fields); err != nil {
		return fmt.Errorf("update member %d averages: %w", a.UserID, err)
	}
	return nil
}

// rollingAverage (old*n + value)/(n+1)，无历史值时以 5.0 为基准
func rollingAverage(prior *float64, n int, value float64) float64 {
	base := ratingBaseline
	if prior != nil {
		base = *prior
	}
	return (base*float64(n) + value) / float64(n+1)
}
