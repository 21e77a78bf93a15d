package achievement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"LeagueSettle/internal/interfaces"
	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	statFloor    = 0.0
	statCeiling  = 10.0
	statBaseline = 5.0
)

// statColumns 奖励属性名 → league_members 列
var statColumns = map[string]string{
	"overall":   "league_overall",
	"pace":      "league_pace",
	"technique": "league_technique",
	"physical":  "league_physical",
	"shooting":  "league_shooting",
	"defense":   "league_defense",
}

// Unlock 一次评估中新达成的成就
type Unlock struct {
	Achievement *model.Achievement
	Progress    float64
}

// LedgerEntry 成就定义 + 用户进度（未评估过时 Progress 为空）
type LedgerEntry struct {
	Achievement *model.Achievement     `json:"achievement"`
	Progress    *model.UserAchievement `json:"progress,omitempty"`
}

// Engine 成就规则引擎
type Engine struct {
	store    *repository.Store
	registry *Registry
	notifier interfaces.Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

func NewEngine(store *repository.Store, registry *Registry, notifier interfaces.Notifier, logger *logrus.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateMatch 赛后为每个参赛者评估，单个用户失败不影响其他用户
func (e *Engine) EvaluateMatch(ctx context.Context, leagueID, matchID uint64, userIDs []uint64) error {
	var errs []error
	for _, uid := range userIDs {
		if _, err := e.Evaluate(ctx, uid, leagueID, matchID); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
		}
	}
	return errors.Join(errs...)
}

// Evaluate 按 sort_order 评估全部成就。matchID 为 0 时单场类条件视为未达成
func (e *Engine) Evaluate(ctx context.Context, userID, leagueID, matchID uint64) ([]*Unlock, error) {
	achievements, err := e.store.Achievements.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	ec := &EvalContext{Store: e.store, UserID: userID, LeagueID: leagueID, Now: e.now()}
	if matchID != 0 {
		stats, err := e.loadMatchStats(ctx, matchID, userID)
		if err != nil {
			return nil, err
		}
		ec.Match = stats
	}

	var (
		unlocked []*Unlock
		errs     []error
	)
	for _, a := range achievements {
		ev, ok := e.registry.Get(ConditionType(a.ConditionType))
		if !ok {
			e.logger.WithFields(logrus.Fields{"achievement": a.Code, "condition": a.ConditionType}).
				Warn("unknown achievement condition")
			continue
		}
		ua, err := e.store.Achievements.GetOrCreateProgress(ctx, userID, a.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("progress %s: %w", a.Code, err))
			continue
		}
		if ua.IsCompleted {
			continue
		}
		res, err := ev.Evaluate(ctx, a.Target, ec)
		if err != nil {
			errs = append(errs, fmt.Errorf("evaluate %s: %w", a.Code, err))
			continue
		}
		if !res.Met {
			if err := e.store.Achievements.UpdateProgress(ctx, ua.ID, res.Progress); err != nil {
				errs = append(errs, fmt.Errorf("update progress %s: %w", a.Code, err))
			}
			continue
		}

		completed, err := e.complete(ctx, ua, a, res.Progress)
		if err != nil {
			errs = append(errs, fmt.Errorf("complete %s: %w", a.Code, err))
			continue
		}
		if !completed {
			continue
		}
		unlocked = append(unlocked, &Unlock{Achievement: a, Progress: res.Progress})
		e.notify(ctx, userID, a)
	}

	if len(unlocked) > 0 {
		e.logger.WithFields(logrus.Fields{"user_id": userID, "match_id": matchID, "unlocked": len(unlocked)}).
			Info("achievements unlocked")
	}
	return unlocked, errors.Join(errs...)
}

// complete 完成标记与奖励在同一事务内：条件更新只有一次能成功，奖励随之恰好发放一次
func (e *Engine) complete(ctx context.Context, ua *model.UserAchievement, a *model.Achievement, progress float64) (bool, error) {
	completed := false
	err := e.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Achievements.MarkCompleted(ctx, ua.ID, progress, e.now())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		completed = true
		return e.applyReward(ctx, tx, ua.UserID, a)
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

func (e *Engine) applyReward(ctx context.Context, tx *repository.Store, userID uint64, a *model.Achievement) error {
	switch a.RewardType {
	case model.RewardStatBoost:
		return e.applyStatBoost(ctx, tx, userID, a)
	case model.RewardCosmetic:
		return e.applyCosmetic(ctx, tx, userID, a)
	}
	return nil
}

// applyStatBoost 加成作用于用户所在的全部联赛
func (e *Engine) applyStatBoost(ctx context.Context, tx *repository.Store, userID uint64, a *model.Achievement) error {
	deltas, err := a.StatDeltas()
	if err != nil {
		return fmt.Errorf("parse reward stats: %w", err)
	}
	if len(deltas) == 0 {
		return nil
	}
	members, err := tx.Members.ListByUserForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range members {
		current := map[string]*float64{
			"league_overall":   m.LeagueOverall,
			"league_pace":      m.LeaguePace,
			"league_technique": m.LeagueTechnique,
			"league_physical":  m.LeaguePhysical,
			"league_shooting":  m.LeagueShooting,
			"league_defense":   m.LeagueDefense,
		}
		fields := make(map[string]interface{}, len(deltas))
		for stat, delta := range deltas {
			col, ok := statColumns[stat]
			if !ok {
				e.logger.WithFields(logrus.Fields{"achievement": a.Code, "stat": stat}).Warn("unknown reward stat")
				continue
			}
			fields[col] = boostStat(current[col], delta)
		}
		if len(fields) == 0 {
			continue
		}
		if err := tx.Members.Update(ctx, m.ID, fields); err != nil {
			return fmt.Errorf("boost member %d: %w", m.ID, err)
		}
	}
	return nil
}

// boostStat 空值按基准 5.0 处理，结果截断到 [0,10]
func boostStat(prior *float64, delta float64) float64 {
	base := statBaseline
	if prior != nil {
		base = *prior
	}
	return math.Max(statFloor, math.Min(statCeiling, base+delta))
}

// applyCosmetic 非 PREMIUM 用户只能获得 SHOWCASE_SLOT 类装扮，其余静默跳过
func (e *Engine) applyCosmetic(ctx context.Context, tx *repository.Store, userID uint64, a *model.Achievement) error {
	if a.RewardCosmetic == "" {
		return nil
	}
	cosmetic, err := tx.Achievements.GetCosmetic(ctx, a.RewardCosmetic)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.WithFields(logrus.Fields{"achievement": a.Code, "cosmetic": a.RewardCosmetic}).
				Warn("reward cosmetic not found")
			return nil
		}
		return fmt.Errorf("load cosmetic: %w", err)
	}
	user, err := tx.Members.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Tier != model.TierPremium && cosmetic.Type != model.CosmeticShowcaseSlot {
		e.logger.WithFields(logrus.Fields{"user_id": userID, "cosmetic": cosmetic.Key}).
			Debug("cosmetic requires premium, skipped")
		return nil
	}
	if _, err := tx.Achievements.UnlockCosmetic(ctx, userID, cosmetic.Key, e.now()); err != nil {
		return fmt.Errorf("unlock cosmetic: %w", err)
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, userID uint64, a *model.Achievement) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.Send(ctx, userID, interfaces.NotifyAchievementUnlocked,
		"Achievement unlocked", a.Name,
		map[string]interface{}{"achievement": a.Code})
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "achievement": a.Code}).
			Warn("achievement notification failed")
	}
}

func (e *Engine) loadMatchStats(ctx context.Context, matchID, userID uint64) (*MatchStats, error) {
	m, err := e.store.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	mp, err := e.store.Matches.GetPlayer(ctx, matchID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load player: %w", err)
	}
	pm := repository.PlayedMatch{ScoreA: m.ScoreA, ScoreB: m.ScoreB, Team: mp.Team}
	return &MatchStats{
		MatchID:     matchID,
		ScheduledAt: m.ScheduledAt,
		Team:        mp.Team,
		Outcome:     pm.Outcome(),
		Overall:     mp.Overall,
		Pace:        mp.Pace,
		Technique:   mp.Technique,
		Physical:    mp.Physical,
		Shooting:    mp.Shooting,
		Defense:     mp.Defense,
	}, nil
}

// Ledger 用户成就列表（含未开始的成就）
func (e *Engine) Ledger(ctx context.Context, userID uint64) ([]*LedgerEntry, error) {
	achievements, err := e.store.Achievements.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := e.store.Achievements.ListUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	byAchievement := make(map[uint64]*model.UserAchievement, len(progress))
	for _, p := range progress {
		byAchievement[p.AchievementID] = p
	}
	out := make([]*LedgerEntry, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, &LedgerEntry{Achievement: a, Progress: byAchievement[a.ID]})
	}
	return out, nil
}
