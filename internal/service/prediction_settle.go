package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
)

// oracleBonus 预言家对本场评分的加成
const oracleBonus = 0.5

// PredictionSettler 比赛竞猜结算，只在结算事务内调用
type PredictionSettler struct {
	logger *logrus.Logger
}

func NewPredictionSettler(logger *logrus.Logger) *PredictionSettler {
	return &PredictionSettler{logger: logger}
}

// SettleMatch 为绑定该比赛的 MATCH 类型竞猜组判分、记分并评出预言家，返回新写入的 ORACLE 荣誉
func (p *PredictionSettler) SettleMatch(ctx context.Context, tx *repository.Store, matchID, leagueID uint64, now time.Time) ([]*model.Honor, error) {
	groups, err := tx.Predictions.ListOpenMatchGroups(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list prediction groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	state, err := loadMatchState(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	facts := BuildFactSheet(*state)

	var sets []*QuestionSet
	for _, g := range groups {
		gs, err := p.loadQuestionSets(ctx, tx, g.ID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, gs...)
	}

	scored := ScorePredictions(facts, sets)
	for _, qs := range sets {
		if err := tx.Predictions.SettleQuestion(ctx, qs.Question.ID, scored.CorrectOption[qs.Question.ID]); err != nil {
			return nil, fmt.Errorf("settle question %d: %w", qs.Question.ID, err)
		}
	}
	for _, g := range groups {
		if err := tx.Predictions.MarkGroupSettled(ctx, g.ID, now); err != nil {
			return nil, fmt.Errorf("mark group %d settled: %w", g.ID, err)
		}
	}

	users := make([]uint64, 0, len(scored.Points))
	for uid := range scored.Points {
		users = append(users, uid)
	}
	sortIDs(users)
	for _, uid := range users {
		pts := scored.Points[uid]
		if err := tx.Matches.UpdatePlayer(ctx, matchID, uid, map[string]interface{}{"prediction_points": pts}); err != nil {
			return nil, fmt.Errorf("update prediction points for user %d: %w", uid, err)
		}
		if pts > 0 {
			if err := tx.Members.Increment(ctx, leagueID, uid, map[string]int{"prediction_points": pts}); err != nil {
				return nil, fmt.Errorf("increment pool points for user %d: %w", uid, err)
			}
		}
	}

	var honors []*model.Honor
	for _, uid := range TopScorers(scored.Points) {
		h := &model.Honor{MatchID: matchID, UserID: uid, LeagueID: leagueID, Type: model.HonorOracle}
		if err := tx.Honors.Create(ctx, h); err != nil {
			return nil, fmt.Errorf("create oracle honor: %w", err)
		}
		if err := tx.Members.Increment(ctx, leagueID, uid, map[string]int{"prediction_count": 1}); err != nil {
			return nil, fmt.Errorf("increment oracle counter: %w", err)
		}
		if err := applyOracleBonus(ctx, tx, matchID, uid); err != nil {
			return nil, err
		}
		honors = append(honors, h)
	}

	p.logger.WithFields(logrus.Fields{
		"match_id":  matchID,
		"groups":    len(groups),
		"questions": len(sets),
		"oracles":   len(honors),
	}).Info("prediction settlement done")
	return honors, nil
}

func (p *PredictionSettler) loadQuestionSets(ctx context.Context, tx *repository.Store, groupID uint64) ([]*QuestionSet, error) {
	questions, err := tx.Predictions.ListQuestions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	ids := make([]uint64, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	options, err := tx.Predictions.ListOptions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	picks, err := tx.Predictions.ListUserPredictions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list user predictions: %w", err)
	}

	byQuestion := make(map[uint64]*QuestionSet, len(questions))
	sets := make([]*QuestionSet, 0, len(questions))
	for _, q := range questions {
		key, err := ParseQuestionKey(q.Key)
		if err != nil {
			// 键无法识别时整题无正确选项
			p.logger.WithError(err).WithField("question_id", q.ID).Warn("unrecognised question key")
			key = StaticQuestion{Key: q.Key}
		}
		qs := &QuestionSet{Question: q, Key: key}
		byQuestion[q.ID] = qs
		sets = append(sets, qs)
	}
	for _, o := range options {
		if qs, ok := byQuestion[o.QuestionID]; ok {
			qs.Options = append(qs.Options, o)
		}
	}
	for _, up := range picks {
		if qs, ok := byQuestion[up.QuestionID]; ok {
			qs.Picks = append(qs.Picks, up)
		}
	}
	return sets, nil
}

func loadMatchState(ctx context.Context, tx *repository.Store, matchID uint64) (*MatchState, error) {
	m, err := tx.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	roster, err := tx.Matches.ListPlayers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	honors, err := tx.Honors.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list honors: %w", err)
	}
	duels, err := tx.Duels.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list duels: %w", err)
	}
	return &MatchState{Match: m, Roster: roster, Honors: honors, Duels: duels}, nil
}

// applyOracleBonus 对已写入的本场综合评分加成，上限 10；未评分则跳过
func applyOracleBonus(ctx context.Context, tx *repository.Store, matchID, userID uint64) error {
	mp, err := tx.Matches.GetPlayer(ctx, matchID, userID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", userID, err)
	}
	if mp.Overall == nil {
		return nil
	}
	boosted := math.Min(10, *mp.Overall+oracleBonus)
	if err := tx.Matches.UpdatePlayer(ctx, matchID, userID, map[string]interface{}{"overall": boosted}); err != nil {
		return fmt.Errorf("apply oracle bonus: %w", err)
	}
	return nil
}
