package achievement

import (
	"context"

	"LeagueSettle/internal/repository"
)

// eliteThreshold 精英技能分
const eliteThreshold = 8.0

func statEvaluator(pick func(m *MatchStats) *float64) Evaluator {
	return EvaluatorFunc(func(_ context.Context, target float64, ec *EvalContext) (Result, error) {
		if ec.Match == nil {
			return Result{}, nil
		}
		v := pick(ec.Match)
		if v == nil {
			return Result{}, nil
		}
		return atLeast(*v, target), nil
	})
}

// EliteSkills 本场达到 8 分的技能项数
func EliteSkills(m *MatchStats) int {
	n := 0
	for _, v := range []*float64{m.Pace, m.Technique, m.Physical, m.Shooting, m.Defense} {
		if v != nil && *v >= eliteThreshold {
			n++
		}
	}
	return n
}

// ComebackWin 本场获胜且上一场已结算比赛失利
func ComebackWin(played []*repository.PlayedMatch, currentMatchID uint64) bool {
	for i, p := range played {
		if p.MatchID != currentMatchID {
			continue
		}
		if p.Outcome() != repository.OutcomeWin || i+1 >= len(played) {
			return false
		}
		return played[i+1].Outcome() == repository.OutcomeLoss
	}
	return false
}

func (r *Registry) registerMatch() {
	r.register(CondMatchOverall, statEvaluator(func(m *MatchStats) *float64 { return m.Overall }))
	r.register(CondMatchPace, statEvaluator(func(m *MatchStats) *float64 { return m.Pace }))
	r.register(CondMatchTechnique, statEvaluator(func(m *MatchStats) *float64 { return m.Technique }))
	r.register(CondMatchPhysical, statEvaluator(func(m *MatchStats) *float64 { return m.Physical }))
	r.register(CondMatchShooting, statEvaluator(func(m *MatchStats) *float64 { return m.Shooting }))
	r.register(CondMatchDefense, statEvaluator(func(m *MatchStats) *float64 { return m.Defense }))
	r.register(CondEliteSkills, EvaluatorFunc(func(_ context.Context, target float64, ec *EvalContext) (Result, error) {
		if ec.Match == nil {
			return Result{}, nil
		}
		return atLeast(float64(EliteSkills(ec.Match)), target), nil
	}))
	r.register(CondComebackWin, EvaluatorFunc(func(ctx context.Context, _ float64, ec *EvalContext) (Result, error) {
		if ec.Match == nil || ec.Match.Outcome != repository.OutcomeWin {
			return Result{}, nil
		}
		played, err := ec.Played(ctx)
		if err != nil {
			return Result{}, err
		}
		if ComebackWin(played, ec.Match.MatchID) {
			return Result{Met: true, Progress: 1}, nil
		}
		return Result{}, nil
	}))
	// 尚未支持：始终未达成，待产品明确语义
	r.register(CondRankOvertake, EvaluatorFunc(func(context.Context, float64, *EvalContext) (Result, error) {
		return Result{}, nil
	}))
}
