package achievement

import (
	"context"
	"time"

	"LeagueSettle/internal/repository"
)

// leadingRun 倒序列表中从最近一场开始连续满足 outcome 的场数
func leadingRun(played []*repository.PlayedMatch, outcome repository.Outcome) int {
	n := 0
	for _, p := range played {
		if p.Outcome() != outcome {
			break
		}
		n++
	}
	return n
}

// WinStreak 当前连胜
func WinStreak(played []*repository.PlayedMatch) int {
	return leadingRun(played, repository.OutcomeWin)
}

// LossStreak 当前连败，遇到平局同样中断
func LossStreak(played []*repository.PlayedMatch) int {
	return leadingRun(played, repository.OutcomeLoss)
}

type isoWeek struct {
	year int
	week int
}

func weekOf(t time.Time) isoWeek {
	y, w := t.ISOWeek()
	return isoWeek{year: y, week: w}
}

// WeeklyStreak 从 now 所在 ISO 周向前连续有比赛的周数
func WeeklyStreak(played []*repository.PlayedMatch, now time.Time) int {
	weeks := make(map[isoWeek]bool, len(played))
	for _, p := range played {
		weeks[weekOf(p.ScheduledAt.UTC())] = true
	}
	n := 0
	for t := now.UTC(); weeks[weekOf(t)]; t = t.AddDate(0, 0, -7) {
		n++
	}
	return n
}

func streakEvaluator(fn func(played []*repository.PlayedMatch, ec *EvalContext) int) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
		played, err := ec.Played(ctx)
		if err != nil {
			return Result{}, err
		}
		return atLeast(float64(fn(played, ec)), target), nil
	})
}

func (r *Registry) registerStreaks() {
	r.register(CondWinStreak, streakEvaluator(func(played []*repository.PlayedMatch, _ *EvalContext) int {
		return WinStreak(played)
	}))
	r.register(CondLossStreak, streakEvaluator(func(played []*repository.PlayedMatch, _ *EvalContext) int {
		return LossStreak(played)
	}))
	r.register(CondWeeklyStreak, streakEvaluator(func(played []*repository.PlayedMatch, ec *EvalContext) int {
		return WeeklyStreak(played, ec.Now)
	}))
}
