package achievement

import (
	"context"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"
)

type countFunc func(ctx context.Context, ec *EvalContext) (int64, error)

func counter(fn countFunc) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
		n, err := fn(ctx, ec)
		if err != nil {
			return Result{}, err
		}
		return atLeast(float64(n), target), nil
	})
}

// playedCounter 按已结算比赛过滤计数
func playedCounter(keep func(p *repository.PlayedMatch) bool) Evaluator {
	return counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		played, err := ec.Played(ctx)
		if err != nil {
			return 0, err
		}
		var n int64
		for _, p := range played {
			if keep(p) {
				n++
			}
		}
		return n, nil
	})
}

func honorCounter(t model.HonorType) Evaluator {
	return counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.Honors.CountByUser(ctx, ec.UserID, t)
	})
}

func (r *Registry) registerCounting() {
	r.register(CondMatchesPlayed, playedCounter(func(*repository.PlayedMatch) bool { return true }))
	r.register(CondMatchesWon, playedCounter(func(p *repository.PlayedMatch) bool {
		return p.Outcome() == repository.OutcomeWin
	}))
	r.register(CondCleanSheets, playedCounter(func(p *repository.PlayedMatch) bool {
		return p.CleanSheet()
	}))
	r.register(CondMatchesOrganized, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.History.CountOrganized(ctx, ec.UserID)
	}))
	r.register(CondMatchesConfirmed, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.History.CountConfirmed(ctx, ec.UserID)
	}))
	r.register(CondVotesCast, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.History.CountVotedMatches(ctx, ec.UserID)
	}))
	r.register(CondCorrectPredictions, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.Predictions.CountCorrect(ctx, ec.UserID)
	}))
	r.register(CondAchievementsUnlocked, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.Achievements.CountCompleted(ctx, ec.UserID)
	}))
	r.register(CondDuelWins, counter(func(ctx context.Context, ec *EvalContext) (int64, error) {
		return ec.Store.Duels.CountWins(ctx, ec.UserID)
	}))
	r.register(CondMVPAwards, honorCounter(model.HonorMVP))
	r.register(CondTroncoAwards, honorCounter(model.HonorTronco))
	r.register(CondFantasmaAwards, honorCounter(model.HonorFantasma))
	r.register(CondOracleAwards, honorCounter(model.HonorOracle))
}
