package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/testutil"
)

type predictionEnv struct {
	*settlementEnv
	svc   *PredictionService
	group *model.PredictionGroup
	now   time.Time
}

func newPredictionEnv(t *testing.T, pickLimit int) *predictionEnv {
	t.Helper()
	env := newSettlementEnv(t)
	env.seedLeague(2)
	m := env.fx.Match(1, model.MatchActive, env.matchAt, nil, nil)
	env.fx.Player(m.ID, 1, model.TeamA, true)

	now := env.matchAt.Add(-time.Hour)
	closesAt := env.matchAt
	svc := NewPredictionService(env.store, pickLimit, testutil.Logger())
	svc.now = func() time.Time { return now }
	return &predictionEnv{
		settlementEnv: env,
		svc:           svc,
		group:         env.fx.MatchGroup(1, m.ID, &closesAt),
		now:           now,
	}
}

func TestSubmitPrediction_StoresAndChangesPick(t *testing.T) {
	env := newPredictionEnv(t, 1)
	ctx := context.Background()
	q, opts := env.fx.Question(env.group.ID, KeyResult, 2, "A", "B", "DRAW")

	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["A"].ID); err != nil {
		t.Fatalf("first pick: %v", err)
	}
	// 改选同一题不受名额限制
	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["DRAW"].ID); err != nil {
		t.Fatalf("change pick: %v", err)
	}
	up, err := env.store.Predictions.GetUserPrediction(ctx, 1, q.ID)
	if err != nil {
		t.Fatalf("load pick: %v", err)
	}
	if up.OptionID != opts["DRAW"].ID {
		t.Fatalf("option = %d, want %d", up.OptionID, opts["DRAW"].ID)
	}
	n, _ := env.store.Predictions.CountUserPicks(ctx, 1, env.group.ID)
	if n != 1 {
		t.Fatalf("picks = %d, want 1", n)
	}

	q2, opts2 := env.fx.Question(env.group.ID, KeyCleanSheet, 1, "YES", "NO")
	if err := env.svc.SubmitPrediction(ctx, 1, q2.ID, opts2["YES"].ID); !errors.Is(err, ErrPickLimit) {
		t.Fatalf("over limit err = %v, want ErrPickLimit", err)
	}
}

func TestSubmitPrediction_Rejections(t *testing.T) {
	env := newPredictionEnv(t, 5)
	ctx := context.Background()
	q, opts := env.fx.Question(env.group.ID, KeyResult, 2, "A", "B")
	_, otherOpts := env.fx.Question(env.group.ID, KeyTotalGoalsOver, 1, "YES", "NO")

	closedQ, closedOpts := env.fx.Question(env.group.ID, KeyCleanSheet, 1, "YES", "NO")
	env.db.Model(closedQ).Update("is_closed", true)

	tests := []struct {
		name       string
		userID     uint64
		questionID uint64
		optionID   uint64
		want       error
	}{
		{"missing question", 1, 999, opts["A"].ID, ErrQuestionNotFound},
		{"closed question", 1, closedQ.ID, closedOpts["YES"].ID, ErrQuestionClosed},
		{"missing option", 1, q.ID, 999, ErrInvalidOption},
		{"option of another question", 1, q.ID, otherOpts["YES"].ID, ErrInvalidOption},
		{"not convocated", 2, q.ID, opts["A"].ID, ErrNotConvocated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.svc.SubmitPrediction(ctx, tt.userID, tt.questionID, tt.optionID); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitPrediction_WindowClosed(t *testing.T) {
	env := newPredictionEnv(t, 5)
	ctx := context.Background()
	q, opts := env.fx.Question(env.group.ID, KeyResult, 2, "A", "B")

	env.svc.now = func() time.Time { return env.matchAt }
	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["A"].ID); !errors.Is(err, ErrPredictionClosed) {
		t.Fatalf("at closes_at err = %v, want ErrPredictionClosed", err)
	}

	env.svc.now = func() time.Time { return env.now }
	env.db.Model(env.group).Update("status", model.GroupSettled)
	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["A"].ID); !errors.Is(err, ErrPredictionClosed) {
		t.Fatalf("settled group err = %v, want ErrPredictionClosed", err)
	}
}

func TestSubmitPrediction_LocksGroupAndRejectsAfterSettlement(t *testing.T) {
	env := newPredictionEnv(t, 5)
	ctx := context.Background()
	matchID := *env.group.MatchID
	q, opts := env.fx.Question(env.group.ID, KeyResult, 2, "A", "B", "DRAW")
	locks := lockedReads(t, env.db)

	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["A"].ID); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if n := locks("prediction_groups"); n != 1 {
		t.Fatalf("pick locked the group %d times, want 1", n)
	}

	env.db.Model(&model.Match{}).Where("id = ?", matchID).
		Updates(map[string]interface{}{"status": model.MatchFinished, "score_a": 2, "score_b": 0})
	env.fx.Vote(matchID, 1, 1, 7)
	if status, err := env.settle.Settle(ctx, matchID); err != nil || status != SettleDone {
		t.Fatalf("Settle = %s, %v", status, err)
	}
	if n := locks("prediction_groups"); n != 2 {
		t.Fatalf("settlement did not lock the group: %d locked reads", n)
	}

	if err := env.svc.SubmitPrediction(ctx, 1, q.ID, opts["B"].ID); !errors.Is(err, ErrQuestionClosed) {
		t.Fatalf("pick after settlement err = %v, want ErrQuestionClosed", err)
	}
	up, err := env.store.Predictions.GetUserPrediction(ctx, 1, q.ID)
	if err != nil {
		t.Fatalf("load pick: %v", err)
	}
	if up.OptionID != opts["A"].ID {
		t.Fatalf("scored pick changed to option %d", up.OptionID)
	}
	env.hooks.Wait()
}
