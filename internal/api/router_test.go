package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LeagueSettle/internal/achievement"
	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"
	"LeagueSettle/internal/service"
	"LeagueSettle/internal/testutil"

	"github.com/gin-gonic/gin"
)

type apiEnv struct {
	router *gin.Engine
	fx     *testutil.Fixture
	hooks  *service.HookRunner
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	logger := testutil.Logger()
	store := repository.NewStore(db)
	hooks := service.NewHookRunner(time.Second, logger)
	settlement := service.NewSettlementService(store, service.NewRatingDuelResolver(logger),
		service.NewPredictionSettler(logger), hooks, 5*time.Second, logger)
	engine := achievement.NewEngine(store, achievement.NewRegistry(logger), nil, logger)

	r := gin.New()
	RegisterRoutes(r, &Handlers{
		Match:       NewMatchHandler(service.NewVoteService(store, settlement, logger), settlement, logger),
		Prediction:  NewPredictionHandler(service.NewPredictionService(store, 5, logger), logger),
		Achievement: NewAchievementHandler(engine, logger),
	})
	return &apiEnv{router: r, fx: testutil.NewFixture(t, db), hooks: hooks}
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestMatchRoutes(t *testing.T) {
	env := newAPIEnv(t)
	env.fx.League(1, 1)
	for uid := uint64(1); uid <= 2; uid++ {
		env.fx.User(uid, model.TierFree)
		env.fx.Member(1, uid)
	}
	m := env.fx.Match(1, model.MatchFinished, time.Now().UTC(), testutil.Int(1), testutil.Int(0))
	env.fx.Player(m.ID, 1, model.TeamA, true)
	env.fx.Player(m.ID, 2, model.TeamB, true)
	path := fmt.Sprintf("/api/matches/%d/votes", m.ID)

	if code, _ := env.do(t, http.MethodPost, "/api/matches/abc/settle", nil); code != http.StatusBadRequest {
		t.Fatalf("invalid id: code = %d", code)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/matches/42/settle", nil); code != http.StatusNotFound {
		t.Fatalf("missing match: code = %d", code)
	}
	if code, _ := env.do(t, http.MethodPost, path, map[string]interface{}{"league_id": 1}); code != http.StatusBadRequest {
		t.Fatalf("incomplete body: code = %d", code)
	}

	vote := func(voter, target uint64) (int, map[string]interface{}) {
		return env.do(t, http.MethodPost, path, map[string]interface{}{
			"league_id": 1,
			"voter_id":  voter,
			"votes":     []map[string]interface{}{{"target_id": target, "overall": 7}},
		})
	}
	if code, body := vote(1, 2); code != http.StatusOK || body["match_closed"] != false {
		t.Fatalf("first vote: %d %v", code, body)
	}
	if code, _ := vote(1, 2); code != http.StatusBadRequest {
		t.Fatalf("duplicate vote: code = %d", code)
	}
	if code, body := vote(2, 1); code != http.StatusOK || body["match_closed"] != true {
		t.Fatalf("final vote: %d %v", code, body)
	}

	code, body := env.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/settle", m.ID), nil)
	if code != http.StatusOK || body["status"] != string(service.SettleAlreadySettled) {
		t.Fatalf("manual settle: %d %v", code, body)
	}
	env.hooks.Wait()
}

func TestPredictionRoute(t *testing.T) {
	env := newAPIEnv(t)
	code, body := env.do(t, http.MethodPost, "/api/predictions", map[string]interface{}{
		"user_id": 1, "question_id": 99, "option_id": 1,
	})
	if code != http.StatusOK || body["success"] != false || body["error"] == nil {
		t.Fatalf("missing question: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/predictions", map[string]interface{}{"user_id": 1}); code != http.StatusBadRequest {
		t.Fatalf("incomplete body: code = %d", code)
	}
}

func TestAchievementRoutes(t *testing.T) {
	env := newAPIEnv(t)
	env.fx.League(1, 1)
	env.fx.User(1, model.TierFree)
	env.fx.Achievement("ORGANIZER", "MATCHES_ORGANIZED", 1, 1)
	env.fx.Match(1, model.MatchCompleted, time.Now().UTC(), testutil.Int(0), testutil.Int(0))

	code, body := env.do(t, http.MethodPost, "/api/users/1/achievements/evaluate?league_id=1", nil)
	if code != http.StatusOK {
		t.Fatalf("evaluate: code = %d", code)
	}
	unlocked, _ := body["unlocked"].([]interface{})
	if len(unlocked) != 1 || unlocked[0] != "ORGANIZER" {
		t.Fatalf("unlocked = %v", body["unlocked"])
	}

	code, body = env.do(t, http.MethodGet, "/api/users/1/achievements", nil)
	data, _ := body["data"].([]interface{})
	if code != http.StatusOK || len(data) != 1 {
		t.Fatalf("ledger: %d %v", code, body)
	}
}
