package achievement

import (
	"context"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"
)

const (
	// redemptionGap TRONCO 与 MVP 之间恰好相隔的已结算比赛数
	redemptionGap = 1

	formWindow  = 20
	formSamples = 5
)

// Redemption 本场获得 MVP，且最近一次更早的 TRONCO 与本场之间恰好隔 redemptionGap 场
func Redemption(played []*repository.PlayedMatch, currentMatchID uint64, troncoMatches map[uint64]bool) bool {
	cur := -1
	for i, p := range played {
		if p.MatchID == currentMatchID {
			cur = i
			break
		}
	}
	if cur < 0 {
		return false
	}
	for j := cur + 1; j < len(played); j++ {
		if troncoMatches[played[j].MatchID] {
			return j-cur-1 == redemptionGap
		}
	}
	return false
}

// TeammateWins 与同一队友共同赢下的最多场数
func TeammateWins(userID uint64, played []*repository.PlayedMatch, rosters []*model.MatchPlayer) int {
	teamOf := make(map[uint64]model.Team)
	for _, p := range played {
		if p.Outcome() == repository.OutcomeWin {
			teamOf[p.MatchID] = p.Team
		}
	}
	tally := make(map[uint64]int)
	best := 0
	for _, mp := range rosters {
		team, won := teamOf[mp.MatchID]
		if !won || mp.UserID == userID || mp.Team != team {
			continue
		}
		tally[mp.UserID]++
		if tally[mp.UserID] > best {
			best = tally[mp.UserID]
		}
	}
	return best
}

// RankPosition 用户在联赛均分榜中的名次（从 1 开始），未上榜返回 0
func RankPosition(averages []*repository.UserAverage, userID uint64) int {
	for i, a := range averages {
		if a.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// RecentForm 最近 formWindow 场中最新 formSamples 场有评分比赛的均分，不足时 ok=false
func RecentForm(played []*repository.PlayedMatch) (avg float64, ok bool) {
	if len(played) > formWindow {
		played = played[:formWindow]
	}
	var sum float64
	n := 0
	for _, p := range played {
		if p.Overall == nil {
			continue
		}
		sum += *p.Overall
		n++
		if n == formSamples {
			return sum / formSamples, true
		}
	}
	return 0, false
}

func (r *Registry) registerPatterns() {
	r.register(CondRedemption, EvaluatorFunc(evalRedemption))
	r.register(CondTeammateWins, EvaluatorFunc(evalTeammateWins))
	r.register(CondLeagueRank, EvaluatorFunc(evalLeagueRank))
	r.register(CondRecentForm, EvaluatorFunc(evalRecentForm))
}

func evalRedemption(ctx context.Context, _ float64, ec *EvalContext) (Result, error) {
	if ec.Match == nil {
		return Result{}, nil
	}
	honors, err := ec.Store.Honors.ListByMatch(ctx, ec.Match.MatchID)
	if err != nil {
		return Result{}, err
	}
	isMVP := false
	for _, h := range honors {
		if h.Type == model.HonorMVP && h.UserID == ec.UserID {
			isMVP = true
			break
		}
	}
	if !isMVP {
		return Result{}, nil
	}
	troncos, err := ec.Store.Honors.ListByUser(ctx, ec.UserID, model.HonorTronco)
	if err != nil {
		return Result{}, err
	}
	troncoMatches := make(map[uint64]bool, len(troncos))
	for _, t := range troncos {
		troncoMatches[t.MatchID] = true
	}
	played, err := ec.Played(ctx)
	if err != nil {
		return Result{}, err
	}
	if Redemption(played, ec.Match.MatchID, troncoMatches) {
		return Result{Met: true, Progress: 1}, nil
	}
	return Result{}, nil
}

func evalTeammateWins(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
	played, err := ec.Played(ctx)
	if err != nil {
		return Result{}, err
	}
	var wins []uint64
	for _, p := range played {
		if p.Outcome() == repository.OutcomeWin {
			wins = append(wins, p.MatchID)
		}
	}
	if len(wins) == 0 {
		return atLeast(0, target), nil
	}
	rosters, err := ec.Store.History.ListRosters(ctx, wins)
	if err != nil {
		return Result{}, err
	}
	return atLeast(float64(TeammateWins(ec.UserID, played, rosters)), target), nil
}

// evalLeagueRank 名次越小越好，progress 记录当前名次
func evalLeagueRank(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
	if ec.LeagueID == 0 {
		return Result{}, nil
	}
	averages, err := ec.Store.History.LeagueAverages(ctx, ec.LeagueID)
	if err != nil {
		return Result{}, err
	}
	pos := RankPosition(averages, ec.UserID)
	return Result{Met: pos > 0 && float64(pos) <= target, Progress: float64(pos)}, nil
}

func evalRecentForm(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
	played, err := ec.Played(ctx)
	if err != nil {
		return Result{}, err
	}
	avg, ok := RecentForm(played)
	if !ok {
		return Result{}, nil
	}
	return atLeast(avg, target), nil
}
