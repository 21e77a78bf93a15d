package achievement

import (
	"context"
	"sort"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
)

// ConditionType 成就条件类型（封闭集合）
type ConditionType string

const (
	CondMatchesPlayed        ConditionType = "MATCHES_PLAYED"
	CondMatchesWon           ConditionType = "MATCHES_WON"
	CondMatchesOrganized     ConditionType = "MATCHES_ORGANIZED"
	CondMatchesConfirmed     ConditionType = "MATCHES_CONFIRMED"
	CondVotesCast            ConditionType = "VOTES_CAST"
	CondCorrectPredictions   ConditionType = "CORRECT_PREDICTIONS"
	CondAchievementsUnlocked ConditionType = "ACHIEVEMENTS_UNLOCKED"
	CondCleanSheets          ConditionType = "CLEAN_SHEETS"
	CondMVPAwards            ConditionType = "MVP_AWARDS"
	CondTroncoAwards         ConditionType = "TRONCO_AWARDS"
	CondFantasmaAwards       ConditionType = "FANTASMA_AWARDS"
	CondOracleAwards         ConditionType = "ORACLE_AWARDS"
	CondDuelWins             ConditionType = "DUEL_WINS"
	CondWinStreak            ConditionType = "WIN_STREAK"
	CondLossStreak           ConditionType = "LOSS_STREAK"
	CondWeeklyStreak         ConditionType = "WEEKLY_STREAK"
	CondRedemption           ConditionType = "REDEMPTION"
	CondTeammateWins         ConditionType = "TEAMMATE_WINS"
	CondLeagueRank           ConditionType = "LEAGUE_RANK"
	CondRecentForm           ConditionType = "RECENT_FORM"
	CondMatchOverall         ConditionType = "MATCH_OVERALL"
	CondMatchPace            ConditionType = "MATCH_PACE"
	CondMatchTechnique       ConditionType = "MATCH_TECHNIQUE"
	CondMatchPhysical        ConditionType = "MATCH_PHYSICAL"
	CondMatchShooting        ConditionType = "MATCH_SHOOTING"
	CondMatchDefense         ConditionType = "MATCH_DEFENSE"
	CondEliteSkills          ConditionType = "ELITE_SKILLS"
	CondComebackWin          ConditionType = "COMEBACK_WIN"
	CondRankOvertake         ConditionType = "RANK_OVERTAKE"
)

// Result 单个条件的评估结果
type Result struct {
	Met      bool
	Progress float64
}

// MatchStats 刚结算比赛中该用户的评分与结果
type MatchStats struct {
	MatchID     uint64
	ScheduledAt time.Time
	Team        model.Team
	Outcome     repository.Outcome
	Overall     *float64
	Pace        *float64
	Technique   *float64
	Physical    *float64
	Shooting    *float64
	Defense     *float64
}

// EvalContext 评估上下文。Match 为空表示非赛后触发（手动评估）
type EvalContext struct {
	Store    *repository.Store
	UserID   uint64
	LeagueID uint64
	Match    *MatchStats
	Now      time.Time

	played []*repository.PlayedMatch
	loaded bool
}

// Played 用户全部已结算比赛（倒序），单次评估内只查询一次
func (ec *EvalContext) Played(ctx context.Context) ([]*repository.PlayedMatch, error) {
	if ec.loaded {
		return ec.played, nil
	}
	list, err := ec.Store.History.ListCompletedMatches(ctx, ec.UserID, 0)
	if err != nil {
		return nil, err
	}
	ec.played = list
	ec.loaded = true
	return list, nil
}

// Evaluator 条件评估器
type Evaluator interface {
	Evaluate(ctx context.Context, target float64, ec *EvalContext) (Result, error)
}

// EvaluatorFunc 函数适配
type EvaluatorFunc func(ctx context.Context, target float64, ec *EvalContext) (Result, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, target float64, ec *EvalContext) (Result, error) {
	return f(ctx, target, ec)
}

// Registry 条件类型 → 评估器，启动时构建一次
type Registry struct {
	evaluators map[ConditionType]Evaluator
	logger     *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	r := &Registry{
		evaluators: make(map[ConditionType]Evaluator),
		logger:     logger,
	}
	r.registerCounting()
	r.registerStreaks()
	r.registerPatterns()
	r.registerMatch()
	logger.WithField("conditions", len(r.evaluators)).Debug("achievement registry ready")
	return r
}

func (r *Registry) register(ct ConditionType, ev Evaluator) {
	r.evaluators[ct] = ev
}

// Get 查找评估器
func (r *Registry) Get(ct ConditionType) (Evaluator, bool) {
	ev, ok := r.evaluators[ct]
	return ev, ok
}

// ListConditions 已注册的条件类型，按名称排序
func (r *Registry) ListConditions() []ConditionType {
	out := make([]ConditionType, 0, len(r.evaluators))
	for ct := range r.evaluators {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// atLeast 计数类条件的通用结果
func atLeast(progress, target float64) Result {
	return Result{Met: progress >= target, Progress: progress}
}
