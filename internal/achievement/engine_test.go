package achievement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"
	"LeagueSettle/internal/testutil"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[uint64][]string
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, userID uint64, _, _, _ string, data map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[uint64][]string)
	}
	n.sent[userID] = append(n.sent[userID], data["achievement"].(string))
	return n.err
}

type engineEnv struct {
	db       *gorm.DB
	fx       *testutil.Fixture
	store    *repository.Store
	notifier *fakeNotifier
	engine   *Engine
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	notifier := &fakeNotifier{}
	engine := NewEngine(store, NewRegistry(testutil.Logger()), notifier, testutil.Logger())
	engine.now = func() time.Time { return day0 }
	env := &engineEnv{db: db, fx: testutil.NewFixture(t, db), store: store, notifier: notifier, engine: engine}
	env.fx.League(1, 1)
	return env
}

// completedMatch 已结算比赛，user 在 A 队
func (e *engineEnv) completedMatch(userID uint64, at time.Time, scoreA, scoreB int, overall float64) *model.Match {
	m := e.fx.Match(1, model.MatchCompleted, at, testutil.Int(scoreA), testutil.Int(scoreB))
	e.fx.RatedPlayer(m.ID, userID, model.TeamA, overall)
	return m
}

func (e *engineEnv) progress(t *testing.T, userID uint64) map[uint64]*model.UserAchievement {
	t.Helper()
	list, err := e.store.Achievements.ListUserProgress(context.Background(), userID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	out := make(map[uint64]*model.UserAchievement, len(list))
	for _, ua := range list {
		out[ua.AchievementID] = ua
	}
	return out
}

func codes(unlocks []*Unlock) []string {
	out := make([]string, 0, len(unlocks))
	for _, u := range unlocks {
		out = append(out, u.Achievement.Code)
	}
	return out
}

func TestEvaluate_ProgressAndCascadingUnlocks(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.User(1, model.TierFree)
	env.fx.Member(1, 1)
	// 由旧到新：W L W W
	env.completedMatch(1, day0.AddDate(0, 0, -21), 2, 0, 7)
	env.completedMatch(1, day0.AddDate(0, 0, -14), 0, 1, 6)
	env.completedMatch(1, day0.AddDate(0, 0, -7), 3, 2, 7)
	env.completedMatch(1, day0, 1, 0, 8)

	played := env.fx.Achievement("VETERAN", string(CondMatchesPlayed), 4, 1)
	streak := env.fx.Achievement("HOT_STREAK", string(CondWinStreak), 3, 2)
	collector := env.fx.Achievement("COLLECTOR", string(CondAchievementsUnlocked), 1, 3)

	ctx := context.Background()
	unlocks, err := env.engine.Evaluate(ctx, 1, 1, 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got := codes(unlocks)
	if len(got) != 2 || got[0] != "VETERAN" || got[1] != "COLLECTOR" {
		t.Fatalf("unlocked = %v, want [VETERAN COLLECTOR]", got)
	}

	prog := env.progress(t, 1)
	if ua := prog[streak.ID]; ua == nil || ua.IsCompleted || ua.CurrentProgress != 2 {
		t.Fatalf("win streak progress = %+v, want 2 and not completed", ua)
	}
	for _, a := range []*model.Achievement{played, collector} {
		ua := prog[a.ID]
		if ua == nil || !ua.IsCompleted || ua.CompletedAt == nil || ua.ClaimedAt == nil {
			t.Fatalf("%s not completed: %+v", a.Code, ua)
		}
	}
	if sent := env.notifier.sent[1]; len(sent) != 2 {
		t.Fatalf("notifications = %v, want 2", sent)
	}

	// 再次评估不会重复解锁
	again, err := env.engine.Evaluate(ctx, 1, 1, 0)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second pass unlocked %v", codes(again))
	}
}

func TestEvaluate_StatBoostAppliesToEveryLeagueOnce(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.League(2, 1)
	env.fx.User(1, model.TierFree)
	env.fx.Member(1, 1)
	env.fx.Member(2, 1)
	env.db.Model(&model.LeagueMember{}).Where("league_id = ? AND user_id = ?", 1, 1).
		Updates(map[string]interface{}{"league_overall": 9.8, "league_pace": 3.0})
	env.completedMatch(1, day0, 1, 0, 7)

	boost := &model.Achievement{
		Code:          "ORGANIZER",
		Name:          "Organizer",
		ConditionType: string(CondMatchesOrganized),
		Target:        1,
		RewardType:    model.RewardStatBoost,
		RewardStats:   datatypes.JSON(`{"overall": 0.5, "pace": -4, "charisma": 1}`),
	}
	if err := env.db.Create(boost).Error; err != nil {
		t.Fatalf("create achievement: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := env.engine.Evaluate(ctx, 1, 1, 0); err != nil {
			t.Fatalf("Evaluate #%d: %v", i+1, err)
		}
	}

	want := map[uint64][2]float64{
		1: {10, 0},  // 9.8+0.5 截断到 10，3-4 截断到 0
		2: {5.5, 1}, // 空值按 5.0
	}
	for leagueID, w := range want {
		m, err := env.store.Members.Get(ctx, leagueID, 1)
		if err != nil {
			t.Fatalf("member league %d: %v", leagueID, err)
		}
		if m.LeagueOverall == nil || *m.LeagueOverall != w[0] {
			t.Errorf("league %d overall = %v, want %v", leagueID, m.LeagueOverall, w[0])
		}
		if m.LeaguePace == nil || *m.LeaguePace != w[1] {
			t.Errorf("league %d pace = %v, want %v", leagueID, m.LeaguePace, w[1])
		}
	}
}

func TestEvaluate_CosmeticRewardsRespectTier(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.User(1, model.TierFree)
	env.fx.User(2, model.TierPremium)
	for _, c := range []*model.Cosmetic{
		{Key: "gold_frame", Type: model.CosmeticFrame, Name: "Gold frame"},
		{Key: "extra_slot", Type: model.CosmeticShowcaseSlot, Name: "Extra slot"},
	} {
		if err := env.db.Create(c).Error; err != nil {
			t.Fatalf("create cosmetic: %v", err)
		}
	}
	for i, key := range []string{"gold_frame", "extra_slot", "missing_key"} {
		a := &model.Achievement{
			Code:           "REWARD_" + key,
			Name:           key,
			ConditionType:  string(CondMatchesConfirmed),
			Target:         1,
			RewardType:     model.RewardCosmetic,
			RewardCosmetic: key,
			SortOrder:      i,
		}
		if err := env.db.Create(a).Error; err != nil {
			t.Fatalf("create achievement: %v", err)
		}
	}
	m := env.fx.Match(1, model.MatchActive, day0, nil, nil)
	env.fx.Player(m.ID, 1, model.TeamA, true)
	env.fx.Player(m.ID, 2, model.TeamB, true)

	ctx := context.Background()
	for _, uid := range []uint64{1, 2} {
		unlocks, err := env.engine.Evaluate(ctx, uid, 1, 0)
		if err != nil {
			t.Fatalf("Evaluate user %d: %v", uid, err)
		}
		if len(unlocks) != 3 {
			t.Fatalf("user %d unlocked %v, want all three", uid, codes(unlocks))
		}
	}

	owned := func(uid uint64) map[string]bool {
		var list []model.UserCosmetic
		env.db.Where("user_id = ?", uid).Find(&list)
		out := map[string]bool{}
		for _, c := range list {
			out[c.CosmeticKey] = true
		}
		return out
	}
	if got := owned(1); len(got) != 1 || !got["extra_slot"] {
		t.Fatalf("free user cosmetics = %v, want only extra_slot", got)
	}
	if got := owned(2); len(got) != 2 || !got["gold_frame"] || !got["extra_slot"] {
		t.Fatalf("premium user cosmetics = %v", got)
	}
}

func TestEvaluateMatch_PerMatchConditions(t *testing.T) {
	env := newEngineEnv(t)
	for uid := uint64(1); uid <= 2; uid++ {
		env.fx.User(uid, model.TierFree)
		env.fx.Member(1, uid)
	}
	prev := env.fx.Match(1, model.MatchCompleted, day0.AddDate(0, 0, -7), testutil.Int(0), testutil.Int(2))
	env.fx.RatedPlayer(prev.ID, 1, model.TeamA, 6)
	env.fx.RatedPlayer(prev.ID, 2, model.TeamA, 6)

	cur := env.fx.Match(1, model.MatchCompleted, day0, testutil.Int(3), testutil.Int(1))
	f := testutil.F64
	star := &model.MatchPlayer{MatchID: cur.ID, UserID: 1, Team: model.TeamA, Confirmed: true,
		Overall: f(8.6), Pace: f(8), Technique: f(9), Physical: f(8.2), Shooting: f(6), Defense: f(5)}
	if err := env.db.Create(star).Error; err != nil {
		t.Fatalf("create player: %v", err)
	}
	env.fx.RatedPlayer(cur.ID, 2, model.TeamB, 7)

	env.fx.Achievement("MAESTRO", string(CondMatchOverall), 8.5, 1)
	env.fx.Achievement("ALL_ROUNDER", string(CondEliteSkills), 3, 2)
	env.fx.Achievement("COMEBACK", string(CondComebackWin), 1, 3)
	overtake := env.fx.Achievement("OVERTAKE", string(CondRankOvertake), 0, 4)

	ctx := context.Background()
	if err := env.engine.EvaluateMatch(ctx, 1, cur.ID, []uint64{1, 2}); err != nil {
		t.Fatalf("EvaluateMatch: %v", err)
	}

	got := env.notifier.sent[1]
	if len(got) != 3 || got[0] != "MAESTRO" || got[1] != "ALL_ROUNDER" || got[2] != "COMEBACK" {
		t.Fatalf("user 1 unlocked %v", got)
	}
	if got := env.notifier.sent[2]; len(got) != 0 {
		t.Fatalf("user 2 unlocked %v", got)
	}
	for _, uid := range []uint64{1, 2} {
		if ua := env.progress(t, uid)[overtake.ID]; ua == nil || ua.IsCompleted {
			t.Fatalf("rank overtake must never complete: %+v", ua)
		}
	}

	// 未参赛时单场类条件不满足
	unlocks, err := env.engine.Evaluate(ctx, 3, 1, cur.ID)
	if err != nil || len(unlocks) != 0 {
		t.Fatalf("outsider: unlocks=%v err=%v", codes(unlocks), err)
	}
}

func TestEvaluate_NotificationFailureKeepsUnlock(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.User(1, model.TierFree)
	env.notifier.err = errors.New("push gateway down")
	a := env.fx.Achievement("FIRST_MATCH", string(CondMatchesPlayed), 1, 1)
	env.completedMatch(1, day0, 1, 1, 6)

	unlocks, err := env.engine.Evaluate(context.Background(), 1, 1, 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(unlocks) != 1 {
		t.Fatalf("unlocked %v, want FIRST_MATCH", codes(unlocks))
	}
	if ua := env.progress(t, 1)[a.ID]; ua == nil || !ua.IsCompleted {
		t.Fatalf("completion rolled back after notification failure: %+v", ua)
	}
}

func TestEvaluate_UnknownConditionIsSkipped(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.User(1, model.TierFree)
	env.fx.Achievement("MYSTERY", "NOT_A_CONDITION", 1, 1)
	known := env.fx.Achievement("FIRST_MATCH", string(CondMatchesPlayed), 1, 2)

	if _, err := env.engine.Evaluate(context.Background(), 1, 1, 0); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	prog := env.progress(t, 1)
	if len(prog) != 1 || prog[known.ID] == nil || prog[known.ID].CurrentProgress != 0 {
		t.Fatalf("unexpected progress rows: %+v", prog)
	}
}

func TestLedger(t *testing.T) {
	env := newEngineEnv(t)
	env.fx.User(1, model.TierFree)
	first := env.fx.Achievement("FIRST_MATCH", string(CondMatchesPlayed), 1, 1)
	env.fx.Achievement("TEN_MATCHES", string(CondMatchesPlayed), 10, 2)
	env.completedMatch(1, day0, 2, 2, 6)

	ctx := context.Background()
	if _, err := env.engine.Evaluate(ctx, 1, 1, 0); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ledger, err := env.engine.Ledger(ctx, 1)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(ledger) != 2 || ledger[0].Achievement.ID != first.ID {
		t.Fatalf("unexpected ledger order: %+v", ledger)
	}
	if !ledger[0].Progress.IsCompleted || ledger[1].Progress.IsCompleted || ledger[1].Progress.CurrentProgress != 1 {
		t.Fatalf("unexpected ledger progress")
	}

	other, err := env.engine.Ledger(ctx, 2)
	if err != nil || len(other) != 2 || other[0].Progress != nil {
		t.Fatalf("ledger for fresh user: %+v, %v", other, err)
	}
}
