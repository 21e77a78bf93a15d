package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LeagueSettle/internal/interfaces"
	"LeagueSettle/internal/model"

	"github.com/sirupsen/logrus"
)

// SettlementOutcome 一次成功结算的结果，提交后交给 PostCommitHook
type SettlementOutcome struct {
	MatchID      uint64
	LeagueID     uint64
	Participants []uint64
	Honors       []*model.Honor
	Duels        []*model.Duel
	SettledAt    time.Time
}

// PostCommitHook 提交后执行的副作用。错误只进入日志，不影响结算结果
type PostCommitHook func(ctx context.Context, outcome *SettlementOutcome) error

type namedHook struct {
	name string
	fn   PostCommitHook
}

// HookRunner 按注册顺序在后台依次执行提交后钩子
type HookRunner struct {
	mu      sync.RWMutex
	hooks   []namedHook
	timeout time.Duration
	logger  *logrus.Logger
	wg      sync.WaitGroup
}

func NewHookRunner(timeout time.Duration, logger *logrus.Logger) *HookRunner {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &HookRunner{timeout: timeout, logger: logger}
}

// Register 追加钩子，应在启动时完成
func (r *HookRunner) Register(name string, fn PostCommitHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, namedHook{name: name, fn: fn})
}

// Dispatch 不阻塞调用方；使用独立 context，调用方请求结束不影响钩子执行
func (r *HookRunner) Dispatch(outcome *SettlementOutcome) {
	if outcome == nil {
		return
	}
	r.mu.RLock()
	hooks := make([]namedHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()
	if len(hooks) == 0 {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		for _, h := range hooks {
			r.run(ctx, h, outcome)
		}
	}()
}

func (r *HookRunner) run(ctx context.Context, h namedHook, outcome *SettlementOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{"hook": h.name, "match_id": outcome.MatchID}).
				Errorf("post-commit hook panic: %v", rec)
		}
	}()
	if err := h.fn(ctx, outcome); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{"hook": h.name, "match_id": outcome.MatchID}).
			Warn("post-commit hook failed")
	}
}

// Wait 等待已派发的钩子执行完毕（优雅退出、测试）
func (r *HookRunner) Wait() {
	r.wg.Wait()
}

// NotifyHook 向参赛者发送赛果、荣誉、对决通知
func NotifyHook(notifier interfaces.Notifier) PostCommitHook {
	return func(ctx context.Context, o *SettlementOutcome) error {
		var errs []error
		send := func(userID uint64, notifyType, title, body string, data map[string]interface{}) {
			if err := notifier.Send(ctx, userID, notifyType, title, body, data); err != nil {
				errs = append(errs, fmt.Errorf("%s to user %d: %w", notifyType, userID, err))
			}
		}
		for _, uid := range o.Participants {
			send(uid, interfaces.NotifyMatchResult, "Match settled", "Your match results are in.",
				map[string]interface{}{"match_id": o.MatchID, "league_id": o.LeagueID})
		}
		for _, h := range o.Honors {
			send(h.UserID, interfaces.NotifyHonorAward, "New honor", fmt.Sprintf("You earned %s.", h.Type),
				map[string]interface{}{"match_id": o.MatchID, "honor": string(h.Type)})
		}
		for _, d := range o.Duels {
			data := map[string]interface{}{"match_id": o.MatchID, "duel_id": d.ID}
			if d.WinnerID != nil {
				data["winner_id"] = *d.WinnerID
			}
			send(d.ChallengerID, interfaces.NotifyDuelResult, "Duel result", duelBody(d, d.ChallengerID), data)
			send(d.ChallengedID, interfaces.NotifyDuelResult, "Duel result", duelBody(d, d.ChallengedID), data)
		}
		return errors.Join(errs...)
	}
}

func duelBody(d *model.Duel, userID uint64) string {
	switch {
	case d.WinnerID == nil:
		return "Your duel ended in a draw."
	case *d.WinnerID == userID:
		return "You won your duel."
	default:
		return "You lost your duel."
	}
}

// MatchEvaluator 按比赛为参赛者评估成就
type MatchEvaluator interface {
	EvaluateMatch(ctx context.Context, leagueID, matchID uint64, userIDs []uint64) error
}

// AchievementHook 结算后为全部参赛者触发成就评估
func AchievementHook(evaluator MatchEvaluator) PostCommitHook {
	return func(ctx context.Context, o *SettlementOutcome) error {
		return evaluator.EvaluateMatch(ctx, o.LeagueID, o.MatchID, o.Participants)
	}
}
